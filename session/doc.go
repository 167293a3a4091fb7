// Package session manages a wallet session against the device registry.
//
// A Manager owns the active account and the registry binding scoped to it.
// Account changes reported by the wallet replace the session as a whole and
// bump its generation. Operations capture the session when they start; a
// result that arrives after the generation moved on is handed back to its
// caller marked stale and never written into the new session's cached state.
//
// Registration is handled by an Orchestrator, which allows one registration
// in flight per session and recovers the device id from the DeviceRegistered
// log of the receipt, deriving it locally when the log is missing.
package session

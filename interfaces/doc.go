// Package interfaces defines the core types and collaborator interfaces of the
// device registry client.
//
// # Collaborators
//
// WalletProvider: the wallet that exposes accounts, produces signers and reports
// account changes.
//
// DeviceRegistry: a handle on the registry contract bound to one account. It is
// produced by a RegistryFactory and acts as a capability token.
//
// # Types
//
//   - DeviceID: 32-byte device identifier
//   - Device: a registry record (id, name, owner, registration time)
//   - DeviceRegisteredEvent: the decoded DeviceRegistered log
package interfaces

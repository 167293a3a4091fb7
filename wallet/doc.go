// Package wallet provides wallet providers for the registry session manager.
//
// A provider exposes accounts only after the user approves it, hands out
// signers scoped to one account, and publishes the full account list whenever
// it changes. Refusals are reported as *ProviderError values with EIP-1193
// codes (4001 user rejected, 4100 unauthorized, 4900 disconnected), the codes
// errclass maps to UserRejected.
//
// KeystoreProvider signs with keys from a go-ethereum keystore directory.
// MemoryProvider holds no keys and is meant for registry.MemoryLedger.
package wallet

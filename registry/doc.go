// Package registry provides handles to the on-chain DeviceRegistry contract.
//
// A handle implements interfaces.DeviceRegistry and is bound to exactly one
// account: the From address of the signer it was created with. Holding a handle
// is the capability to register devices and read records as that account. When
// the active account changes, callers discard the handle and ask the factory for
// a new one instead of re-pointing the old one.
//
// # Implementations
//
// OnchainRegistryClient talks to a deployed contract through a go-ethereum
// ContractBackend (usually an *ethclient.Client). RegistryFactory hands out
// clients bound to a contract address and signer.
//
// MemoryLedger simulates the contract in memory. It enforces the same revert
// reasons, applies registrations when they are confirmed, and emits
// DeviceRegistered logs encoded with the contract ABI, so the code that scans
// receipts runs unchanged against it. It is used by tests and by the
// development mode of cmd/httpserver.
//
// MockRegistry and MockRegistryFactory are testify mocks of the interfaces.
//
// # Transaction Operations
//
// RegisterDevice requires a signer. A client created without one is read-only
// and returns ErrNoTransactOpts for writes. RegisterDevice returns as soon as
// the node accepts the transaction; WaitMined blocks until it is included.
//
// # Usage Example
//
//	factory := registry.NewRegistryFactory(ethClient, ethClient)
//	handle, err := factory.RegistryFor(contractAddress, signer)
//	if err != nil {
//	    return err
//	}
//
//	tx, err := handle.RegisterDevice(ctx, "Weather Sensor")
//	if err != nil {
//	    return err
//	}
//	receipt, err := handle.WaitMined(ctx, tx)
package registry

package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DeviceRegistry is a handle to the registry contract bound to a single account.
// Holding one is the capability to call registry operations as that account.
type DeviceRegistry interface {
	// Account returns the account the handle signs and calls as.
	Account() common.Address
	// Address returns the registry contract address.
	Address() common.Address

	// RegisterDevice submits the registerDevice transaction. It does not wait for inclusion.
	RegisterDevice(ctx context.Context, name string) (*types.Transaction, error)
	// WaitMined blocks until the transaction is included and returns its receipt.
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	// ParseDeviceRegistered decodes a DeviceRegistered log. Logs of other events return an error.
	ParseDeviceRegistered(log types.Log) (*DeviceRegisteredEvent, error)

	// GetDeviceDetails reads a single device record.
	GetDeviceDetails(ctx context.Context, id DeviceID) (Device, error)
	// GetAllMyDevices reads every device owned by the bound account.
	GetAllMyDevices(ctx context.Context) ([]Device, error)
}

// RegistryFactory creates registry handles for a contract address and signer.
type RegistryFactory interface {
	RegistryFor(address common.Address, signer *bind.TransactOpts) (DeviceRegistry, error)
}

package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/preetidudam/EDI-Project/interfaces"
)

// MockRegistry mocks the DeviceRegistry interface
type MockRegistry struct {
	mock.Mock
}

// Account mocks the Account method
func (m *MockRegistry) Account() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

// Address mocks the Address method
func (m *MockRegistry) Address() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

// RegisterDevice mocks the RegisterDevice method
func (m *MockRegistry) RegisterDevice(ctx context.Context, name string) (*types.Transaction, error) {
	args := m.Called(ctx, name)
	tx, _ := args.Get(0).(*types.Transaction)
	return tx, args.Error(1)
}

// WaitMined mocks the WaitMined method
func (m *MockRegistry) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	args := m.Called(ctx, tx)
	receipt, _ := args.Get(0).(*types.Receipt)
	return receipt, args.Error(1)
}

// ParseDeviceRegistered mocks the ParseDeviceRegistered method
func (m *MockRegistry) ParseDeviceRegistered(log types.Log) (*interfaces.DeviceRegisteredEvent, error) {
	args := m.Called(log)
	ev, _ := args.Get(0).(*interfaces.DeviceRegisteredEvent)
	return ev, args.Error(1)
}

// GetDeviceDetails mocks the GetDeviceDetails method
func (m *MockRegistry) GetDeviceDetails(ctx context.Context, id interfaces.DeviceID) (interfaces.Device, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.Device), args.Error(1)
}

// GetAllMyDevices mocks the GetAllMyDevices method
func (m *MockRegistry) GetAllMyDevices(ctx context.Context) ([]interfaces.Device, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]interfaces.Device)
	return devices, args.Error(1)
}

// MockRegistryFactory mocks the RegistryFactory interface
type MockRegistryFactory struct {
	mock.Mock
}

// RegistryFor mocks the RegistryFor method
func (m *MockRegistryFactory) RegistryFor(address common.Address, signer *bind.TransactOpts) (interfaces.DeviceRegistry, error) {
	args := m.Called(address, signer)
	registry, _ := args.Get(0).(interfaces.DeviceRegistry)
	return registry, args.Error(1)
}

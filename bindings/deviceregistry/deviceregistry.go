// Package deviceregistry is a Go binding around the DeviceRegistry contract.
// It follows the abigen layout (caller, transactor and filterer halves around a
// bind.BoundContract) but only covers the functions this client uses.
package deviceregistry

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DeviceRegisteredEventName is the ABI name of the registration event.
const DeviceRegisteredEventName = "DeviceRegistered"

// DeviceRegistryMetaData contains the ABI of the DeviceRegistry contract.
var DeviceRegistryMetaData = &bind.MetaData{
	ABI: `[
	{"type":"function","name":"registerDevice","stateMutability":"nonpayable",
	 "inputs":[{"name":"name","type":"string","internalType":"string"}],
	 "outputs":[{"name":"deviceId","type":"bytes32","internalType":"bytes32"}]},
	{"type":"function","name":"getDeviceDetails","stateMutability":"view",
	 "inputs":[{"name":"deviceId","type":"bytes32","internalType":"bytes32"}],
	 "outputs":[{"name":"","type":"tuple","internalType":"struct DeviceRegistry.Device","components":[
	   {"name":"deviceId","type":"bytes32","internalType":"bytes32"},
	   {"name":"name","type":"string","internalType":"string"},
	   {"name":"owner","type":"address","internalType":"address"},
	   {"name":"timestamp","type":"uint256","internalType":"uint256"}]}]},
	{"type":"function","name":"getAllMyDevices","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"tuple[]","internalType":"struct DeviceRegistry.Device[]","components":[
	   {"name":"deviceId","type":"bytes32","internalType":"bytes32"},
	   {"name":"name","type":"string","internalType":"string"},
	   {"name":"owner","type":"address","internalType":"address"},
	   {"name":"timestamp","type":"uint256","internalType":"uint256"}]}]},
	{"type":"event","name":"DeviceRegistered","anonymous":false,
	 "inputs":[
	   {"name":"deviceId","type":"bytes32","indexed":true,"internalType":"bytes32"},
	   {"name":"owner","type":"address","indexed":true,"internalType":"address"},
	   {"name":"name","type":"string","indexed":false,"internalType":"string"},
	   {"name":"timestamp","type":"uint256","indexed":false,"internalType":"uint256"}]}
	]`,
}

// DeviceRegistryDevice mirrors the contract's Device struct.
type DeviceRegistryDevice struct {
	DeviceId  [32]byte
	Name      string
	Owner     common.Address
	Timestamp *big.Int
}

// DeviceRegistryDeviceRegistered represents a DeviceRegistered event raised by the contract.
type DeviceRegistryDeviceRegistered struct {
	DeviceId  [32]byte
	Owner     common.Address
	Name      string
	Timestamp *big.Int
	Raw       types.Log // Blockchain specific contextual infos
}

// DeviceRegistry is a Go binding around the DeviceRegistry contract.
type DeviceRegistry struct {
	DeviceRegistryCaller     // Read-only binding to the contract
	DeviceRegistryTransactor // Write-only binding to the contract
	DeviceRegistryFilterer   // Log filterer for contract events
}

// DeviceRegistryCaller is a read-only binding around the contract.
type DeviceRegistryCaller struct {
	contract *bind.BoundContract
}

// DeviceRegistryTransactor is a write-only binding around the contract.
type DeviceRegistryTransactor struct {
	contract *bind.BoundContract
}

// DeviceRegistryFilterer decodes contract events.
type DeviceRegistryFilterer struct {
	contract *bind.BoundContract
}

// NewDeviceRegistry creates a new instance of DeviceRegistry, bound to a specific deployed contract.
func NewDeviceRegistry(address common.Address, backend bind.ContractBackend) (*DeviceRegistry, error) {
	contract, err := bindDeviceRegistry(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &DeviceRegistry{
		DeviceRegistryCaller:     DeviceRegistryCaller{contract: contract},
		DeviceRegistryTransactor: DeviceRegistryTransactor{contract: contract},
		DeviceRegistryFilterer:   DeviceRegistryFilterer{contract: contract},
	}, nil
}

// NewDeviceRegistryFilterer creates a log decoder that needs no backend.
func NewDeviceRegistryFilterer(address common.Address) (*DeviceRegistryFilterer, error) {
	contract, err := bindDeviceRegistry(address, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	return &DeviceRegistryFilterer{contract: contract}, nil
}

func bindDeviceRegistry(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := DeviceRegistryMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, errors.New("GetABI returned nil")
	}
	return bind.NewBoundContract(address, *parsed, caller, transactor, filterer), nil
}

// GetDeviceDetails is a free data retrieval call binding the contract method getDeviceDetails.
//
// Solidity: function getDeviceDetails(bytes32 deviceId) view returns((bytes32,string,address,uint256))
func (_DeviceRegistry *DeviceRegistryCaller) GetDeviceDetails(opts *bind.CallOpts, deviceId [32]byte) (DeviceRegistryDevice, error) {
	var out []interface{}
	err := _DeviceRegistry.contract.Call(opts, &out, "getDeviceDetails", deviceId)
	if err != nil {
		return *new(DeviceRegistryDevice), err
	}

	out0 := *abi.ConvertType(out[0], new(DeviceRegistryDevice)).(*DeviceRegistryDevice)
	return out0, err
}

// GetAllMyDevices is a free data retrieval call binding the contract method getAllMyDevices.
// The contract answers for msg.sender, so opts.From selects the owner.
//
// Solidity: function getAllMyDevices() view returns((bytes32,string,address,uint256)[])
func (_DeviceRegistry *DeviceRegistryCaller) GetAllMyDevices(opts *bind.CallOpts) ([]DeviceRegistryDevice, error) {
	var out []interface{}
	err := _DeviceRegistry.contract.Call(opts, &out, "getAllMyDevices")
	if err != nil {
		return *new([]DeviceRegistryDevice), err
	}

	out0 := *abi.ConvertType(out[0], new([]DeviceRegistryDevice)).(*[]DeviceRegistryDevice)
	return out0, err
}

// RegisterDevice is a paid mutator transaction binding the contract method registerDevice.
//
// Solidity: function registerDevice(string name) returns(bytes32 deviceId)
func (_DeviceRegistry *DeviceRegistryTransactor) RegisterDevice(opts *bind.TransactOpts, name string) (*types.Transaction, error) {
	return _DeviceRegistry.contract.Transact(opts, "registerDevice", name)
}

// ParseDeviceRegistered is a log parse operation binding the contract event DeviceRegistered.
//
// Solidity: event DeviceRegistered(bytes32 indexed deviceId, address indexed owner, string name, uint256 timestamp)
func (_DeviceRegistry *DeviceRegistryFilterer) ParseDeviceRegistered(log types.Log) (*DeviceRegistryDeviceRegistered, error) {
	event := new(DeviceRegistryDeviceRegistered)
	if err := _DeviceRegistry.contract.UnpackLog(event, DeviceRegisteredEventName, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

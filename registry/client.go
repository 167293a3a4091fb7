package registry

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/preetidudam/EDI-Project/bindings/deviceregistry"
	"github.com/preetidudam/EDI-Project/interfaces"
)

// ErrNoTransactOpts is returned when a transaction is attempted without first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// OnchainRegistryClient implements interfaces.DeviceRegistry for a DeviceRegistry
// contract deployed on an Ethereum-compatible chain.
type OnchainRegistryClient struct {
	contract *deviceregistry.DeviceRegistry
	client   bind.ContractBackend
	backend  bind.DeployBackend
	address  common.Address
	auth     *bind.TransactOpts
}

// NewOnchainRegistryClient creates a new client for the registry contract at address.
// It requires a ContractBackend for calls and transactions and a DeployBackend
// for waiting on receipts.
func NewOnchainRegistryClient(client bind.ContractBackend, backend bind.DeployBackend, address common.Address) (*OnchainRegistryClient, error) {
	contract, err := deviceregistry.NewDeviceRegistry(address, client)
	if err != nil {
		return nil, err
	}

	return &OnchainRegistryClient{
		contract: contract,
		client:   client,
		backend:  backend,
		address:  address,
	}, nil
}

// SetTransactOpts sets the signer used for state-changing calls. Its From
// address is also the account reads are issued as.
func (c *OnchainRegistryClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// Account returns the signer's address, or the zero address for a read-only client.
func (c *OnchainRegistryClient) Account() common.Address {
	if c.auth == nil {
		return common.Address{}
	}
	return c.auth.From
}

// Address returns the registry contract address.
func (c *OnchainRegistryClient) Address() common.Address {
	return c.address
}

func (c *OnchainRegistryClient) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: c.Account()}
}

// RegisterDevice sends registerDevice(name). The transaction is returned as soon
// as the node accepts it.
func (c *OnchainRegistryClient) RegisterDevice(ctx context.Context, name string) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}

	opts := *c.auth
	opts.Context = ctx
	return c.contract.RegisterDevice(&opts, name)
}

// WaitMined waits for tx to be included and returns its receipt.
func (c *OnchainRegistryClient) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, c.backend, tx)
}

// ParseDeviceRegistered decodes a DeviceRegistered log.
func (c *OnchainRegistryClient) ParseDeviceRegistered(log types.Log) (*interfaces.DeviceRegisteredEvent, error) {
	ev, err := c.contract.ParseDeviceRegistered(log)
	if err != nil {
		return nil, err
	}
	return eventFromBinding(ev), nil
}

// GetDeviceDetails reads one device record.
func (c *OnchainRegistryClient) GetDeviceDetails(ctx context.Context, id interfaces.DeviceID) (interfaces.Device, error) {
	d, err := c.contract.GetDeviceDetails(c.callOpts(ctx), id)
	if err != nil {
		return interfaces.Device{}, err
	}
	return deviceFromBinding(d), nil
}

// GetAllMyDevices reads the devices owned by the client's account.
func (c *OnchainRegistryClient) GetAllMyDevices(ctx context.Context) ([]interfaces.Device, error) {
	list, err := c.contract.GetAllMyDevices(c.callOpts(ctx))
	if err != nil {
		return nil, err
	}

	devices := make([]interfaces.Device, 0, len(list))
	for _, d := range list {
		devices = append(devices, deviceFromBinding(d))
	}
	return devices, nil
}

func eventFromBinding(ev *deviceregistry.DeviceRegistryDeviceRegistered) *interfaces.DeviceRegisteredEvent {
	var ts int64
	if ev.Timestamp != nil {
		ts = ev.Timestamp.Int64()
	}
	return &interfaces.DeviceRegisteredEvent{
		DeviceID:  interfaces.DeviceID(ev.DeviceId),
		Owner:     ev.Owner,
		Name:      ev.Name,
		Timestamp: unixTime(ts),
	}
}

func deviceFromBinding(d deviceregistry.DeviceRegistryDevice) interfaces.Device {
	var ts int64
	if d.Timestamp != nil {
		ts = d.Timestamp.Int64()
	}
	return interfaces.Device{
		ID:           interfaces.DeviceID(d.DeviceId),
		Name:         d.Name,
		Owner:        d.Owner,
		RegisteredAt: unixTime(ts),
	}
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// RegistryFactory creates registry handles bound to a signer.
type RegistryFactory struct {
	client  bind.ContractBackend
	backend bind.DeployBackend
}

// NewRegistryFactory creates a new factory for registry clients.
// It requires a ContractBackend for reading from the blockchain and a DeployBackend for transactions.
func NewRegistryFactory(client bind.ContractBackend, backend bind.DeployBackend) *RegistryFactory {
	return &RegistryFactory{client: client, backend: backend}
}

// RegistryFor returns a handle to the registry at address that signs with signer.
// A nil signer yields a read-only handle.
func (f *RegistryFactory) RegistryFor(address common.Address, signer *bind.TransactOpts) (interfaces.DeviceRegistry, error) {
	client, err := NewOnchainRegistryClient(f.client, f.backend, address)
	if err != nil {
		return nil, err
	}
	client.SetTransactOpts(signer)
	return client, nil
}

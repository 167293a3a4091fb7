package registry

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/preetidudam/EDI-Project/bindings/deviceregistry"
	"github.com/preetidudam/EDI-Project/identity"
	"github.com/preetidudam/EDI-Project/interfaces"
)

// Revert reasons of the registry contract.
const (
	ReasonAlreadyRegistered = "Device already registered"
	ReasonEmptyName         = "Device name cannot be empty"
	ReasonNotFound          = "Device not found"
)

// RevertError mirrors the JSON-RPC error a node returns for a reverted call:
// code 3 with the ABI-encoded Error(string) payload as data.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string { return "execution reverted: " + e.Reason }

func (e *RevertError) ErrorCode() int { return 3 }

func (e *RevertError) ErrorData() interface{} {
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(e.Reason)
	if err != nil {
		return nil
	}
	return hexutil.Encode(append(append([]byte{}, revertSelector...), packed...))
}

var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

type pendingRegistration struct {
	owner common.Address
	name  string
}

// MemoryLedger is an in-memory stand-in for a chain running the registry
// contract. Submissions are checked the way gas estimation would check them,
// state changes are applied at confirmation, and receipts carry
// DeviceRegistered logs encoded with the real ABI.
//
// Tests steer it with HoldConfirmations, HoldReads, FailNextSubmit,
// FailNextRead, OmitEvents and SetDerivation.
type MemoryLedger struct {
	mutex    sync.RWMutex
	address  common.Address
	abi      *abi.ABI
	devices  map[interfaces.DeviceID]interfaces.Device
	byOwner  map[common.Address][]interfaces.DeviceID
	pending  map[common.Hash]pendingRegistration
	receipts map[common.Hash]*types.Receipt
	nonce    uint64
	block    int64

	confirmGate chan struct{}
	readGates   map[common.Address]chan struct{}

	failSubmit error
	failRead   error
	omitEvents bool
	derive     func(common.Address, string) interfaces.DeviceID
	now        func() time.Time
	calls      int
}

// NewMemoryLedger creates an empty ledger with the registry deployed at address.
func NewMemoryLedger(address common.Address) *MemoryLedger {
	parsed, err := deviceregistry.DeviceRegistryMetaData.GetAbi()
	if err != nil {
		panic(err)
	}

	return &MemoryLedger{
		address:   address,
		abi:       parsed,
		devices:   make(map[interfaces.DeviceID]interfaces.Device),
		byOwner:   make(map[common.Address][]interfaces.DeviceID),
		pending:   make(map[common.Hash]pendingRegistration),
		receipts:  make(map[common.Hash]*types.Receipt),
		readGates: make(map[common.Address]chan struct{}),
		derive: func(owner common.Address, name string) interfaces.DeviceID {
			id, _ := identity.DeriveDeviceID(owner, name)
			return id
		},
		now:   time.Now,
		block: 1,
	}
}

// Address returns the contract address the ledger serves.
func (m *MemoryLedger) Address() common.Address {
	return m.address
}

// RegistryFor returns a handle that calls the ledger as signer.From.
// Handles for any other address behave like calls to an account without code.
func (m *MemoryLedger) RegistryFor(address common.Address, signer *bind.TransactOpts) (interfaces.DeviceRegistry, error) {
	h := &memoryHandle{ledger: m, address: address, signer: signer}
	if signer != nil {
		h.account = signer.From
	}
	return h, nil
}

// HoldConfirmations makes WaitMined block until the returned release func is called.
func (m *MemoryLedger) HoldConfirmations() (release func()) {
	gate := make(chan struct{})
	m.mutex.Lock()
	m.confirmGate = gate
	m.mutex.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mutex.Lock()
			if m.confirmGate == gate {
				m.confirmGate = nil
			}
			m.mutex.Unlock()
			close(gate)
		})
	}
}

// HoldReads blocks reads issued as account until the returned release func is called.
func (m *MemoryLedger) HoldReads(account common.Address) (release func()) {
	gate := make(chan struct{})
	m.mutex.Lock()
	m.readGates[account] = gate
	m.mutex.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mutex.Lock()
			if m.readGates[account] == gate {
				delete(m.readGates, account)
			}
			m.mutex.Unlock()
			close(gate)
		})
	}
}

// FailNextSubmit makes the next registerDevice submission fail with err.
func (m *MemoryLedger) FailNextSubmit(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failSubmit = err
}

// FailNextRead makes the next read fail with err.
func (m *MemoryLedger) FailNextRead(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failRead = err
}

// OmitEvents controls whether receipts carry the DeviceRegistered log.
func (m *MemoryLedger) OmitEvents(omit bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.omitEvents = omit
}

// SetDerivation replaces the identifier scheme the simulated contract uses.
func (m *MemoryLedger) SetDerivation(derive func(owner common.Address, name string) interfaces.DeviceID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.derive = derive
}

// SetClock replaces the source of registration timestamps.
func (m *MemoryLedger) SetClock(now func() time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = now
}

// Calls returns how many contract operations reached the ledger.
func (m *MemoryLedger) Calls() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.calls
}

// Devices returns every registered device, in no particular order.
func (m *MemoryLedger) Devices() []interfaces.Device {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	devices := make([]interfaces.Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, d)
	}
	return devices
}

func (m *MemoryLedger) submit(ctx context.Context, address, owner common.Address, name string) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls++

	if address != m.address {
		return nil, bind.ErrNoCode
	}
	if m.failSubmit != nil {
		err := m.failSubmit
		m.failSubmit = nil
		return nil, err
	}
	if name == "" {
		return nil, &RevertError{Reason: ReasonEmptyName}
	}
	if _, exists := m.devices[m.derive(owner, name)]; exists {
		return nil, &RevertError{Reason: ReasonAlreadyRegistered}
	}

	data, err := m.abi.Pack("registerDevice", name)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    m.nonce,
		To:       &m.address,
		Gas:      100_000,
		GasPrice: big.NewInt(1),
		Data:     data,
	})
	m.nonce++
	m.pending[tx.Hash()] = pendingRegistration{owner: owner, name: name}
	return tx, nil
}

func (m *MemoryLedger) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	m.mutex.RLock()
	gate := m.confirmGate
	m.mutex.RUnlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if receipt, ok := m.receipts[tx.Hash()]; ok {
		return receipt, nil
	}

	reg, ok := m.pending[tx.Hash()]
	if !ok {
		return nil, errors.New("transaction not found")
	}
	delete(m.pending, tx.Hash())

	receipt := &types.Receipt{
		Type:        types.LegacyTxType,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(m.block),
		GasUsed:     21_000,
		Logs:        []*types.Log{},
	}
	m.block++

	id := m.derive(reg.owner, reg.name)
	if _, exists := m.devices[id]; exists {
		// lost a race with an identical registration included first
		receipt.Status = types.ReceiptStatusFailed
		m.receipts[tx.Hash()] = receipt
		return receipt, nil
	}

	device := interfaces.Device{
		ID:           id,
		Name:         reg.name,
		Owner:        reg.owner,
		RegisteredAt: m.now().Truncate(time.Second).UTC(),
	}
	m.devices[id] = device
	m.byOwner[reg.owner] = append(m.byOwner[reg.owner], id)

	receipt.Status = types.ReceiptStatusSuccessful
	if !m.omitEvents {
		log, err := m.registeredLog(device)
		if err != nil {
			return nil, err
		}
		log.TxHash = tx.Hash()
		log.BlockNumber = receipt.BlockNumber.Uint64()
		receipt.Logs = append(receipt.Logs, log)
	}

	m.receipts[tx.Hash()] = receipt
	return receipt, nil
}

func (m *MemoryLedger) registeredLog(d interfaces.Device) (*types.Log, error) {
	ev := m.abi.Events[deviceregistry.DeviceRegisteredEventName]
	data, err := ev.Inputs.NonIndexed().Pack(d.Name, big.NewInt(d.RegisteredAt.Unix()))
	if err != nil {
		return nil, err
	}

	return &types.Log{
		Address: m.address,
		Topics:  []common.Hash{ev.ID, common.Hash(d.ID), common.BytesToHash(d.Owner.Bytes())},
		Data:    data,
	}, nil
}

func (m *MemoryLedger) read(ctx context.Context, address, account common.Address) error {
	m.mutex.Lock()
	m.calls++
	gate := m.readGates[account]
	failRead := m.failRead
	m.failRead = nil
	m.mutex.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if address != m.address {
		return bind.ErrNoCode
	}
	return failRead
}

func (m *MemoryLedger) getDevice(ctx context.Context, address, account common.Address, id interfaces.DeviceID) (interfaces.Device, error) {
	if err := m.read(ctx, address, account); err != nil {
		return interfaces.Device{}, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	d, ok := m.devices[id]
	if !ok {
		return interfaces.Device{}, &RevertError{Reason: ReasonNotFound}
	}
	return d, nil
}

func (m *MemoryLedger) ownedBy(ctx context.Context, address, account common.Address) ([]interfaces.Device, error) {
	if err := m.read(ctx, address, account); err != nil {
		return nil, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	ids := m.byOwner[account]
	devices := make([]interfaces.Device, 0, len(ids))
	for _, id := range ids {
		devices = append(devices, m.devices[id])
	}
	return devices, nil
}

// memoryHandle is a DeviceRegistry bound to one account of a MemoryLedger.
type memoryHandle struct {
	ledger  *MemoryLedger
	address common.Address
	account common.Address
	signer  *bind.TransactOpts
}

func (h *memoryHandle) Account() common.Address { return h.account }

func (h *memoryHandle) Address() common.Address { return h.address }

func (h *memoryHandle) RegisterDevice(ctx context.Context, name string) (*types.Transaction, error) {
	if h.signer == nil {
		return nil, ErrNoTransactOpts
	}
	return h.ledger.submit(ctx, h.address, h.account, name)
}

func (h *memoryHandle) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return h.ledger.waitMined(ctx, tx)
}

func (h *memoryHandle) ParseDeviceRegistered(log types.Log) (*interfaces.DeviceRegisteredEvent, error) {
	filterer, err := deviceregistry.NewDeviceRegistryFilterer(h.address)
	if err != nil {
		return nil, err
	}
	ev, err := filterer.ParseDeviceRegistered(log)
	if err != nil {
		return nil, err
	}
	return eventFromBinding(ev), nil
}

func (h *memoryHandle) GetDeviceDetails(ctx context.Context, id interfaces.DeviceID) (interfaces.Device, error) {
	return h.ledger.getDevice(ctx, h.address, h.account, id)
}

func (h *memoryHandle) GetAllMyDevices(ctx context.Context) ([]interfaces.Device, error) {
	return h.ledger.ownedBy(ctx, h.address, h.account)
}

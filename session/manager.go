package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/atomic"

	didiotcommon "github.com/preetidudam/EDI-Project/common"
	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/identity"
	"github.com/preetidudam/EDI-Project/interfaces"
	"github.com/preetidudam/EDI-Project/metrics"
)

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	// Provider is the wallet. Nil means no wallet is available.
	Provider interfaces.WalletProvider
	// Registry is the contract address; the zero address means unconfigured.
	Registry common.Address
	Factory  interfaces.RegistryFactory
	Log      *slog.Logger
	Metrics  *metrics.Recorder
}

// state is everything scoped to one session generation.
type state struct {
	session Session
	orch    *Orchestrator
}

// Manager owns the wallet session. Connect, Disconnect and account-change
// notifications replace the session; reads and registrations run against the
// session captured when they start, and their results are only applied to
// cached state if that session is still current when they finish.
type Manager struct {
	provider interfaces.WalletProvider
	binder   *Binder
	query    Query
	log      *slog.Logger
	metrics  *metrics.Recorder

	// switchMu serializes session replacement.
	switchMu sync.Mutex

	mu        sync.Mutex
	current   *state
	myDevices []interfaces.Device
	selected  *interfaces.Device

	generation atomic.Uint64

	feed  event.Feed
	scope event.SubscriptionScope

	watchOnce   sync.Once
	accountsSub event.Subscription
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// New returns a manager with an empty session.
func New(cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = didiotcommon.DiscardLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		provider: cfg.Provider,
		binder:   NewBinder(cfg.Registry, cfg.Provider, cfg.Factory),
		log:      cfg.Log,
		metrics:  cfg.Metrics,
		ctx:      ctx,
		cancel:   cancel,
	}
	m.current = m.newState(common.Address{}, nil, 0)
	return m
}

func (m *Manager) newState(account common.Address, handle interfaces.DeviceRegistry, gen uint64) *state {
	return &state{
		session: Session{Account: account, Binding: handle, Generation: gen},
		orch:    NewOrchestrator(m.log, m.metrics),
	}
}

// Subscribe delivers every Event to ch. Sends block until ch accepts, so ch
// should be buffered and drained promptly.
func (m *Manager) Subscribe(ch chan<- Event) event.Subscription {
	return m.scope.Track(m.feed.Subscribe(ch))
}

// Session returns the current session.
func (m *Manager) Session() Session {
	return m.snapshot().session
}

// ContractConfigured reports whether a registry address is configured.
func (m *Manager) ContractConfigured() bool {
	return m.binder.ContractConfigured()
}

func (m *Manager) snapshot() *state {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// install replaces the session and drops the cached device state.
func (m *Manager) install(account common.Address, handle interfaces.DeviceRegistry) Session {
	gen := m.generation.Inc()
	st := m.newState(account, handle, gen)

	m.mu.Lock()
	m.current = st
	m.myDevices = nil
	m.selected = nil
	m.mu.Unlock()

	m.metrics.SessionGeneration(gen)
	return st.session
}

// applyIfCurrent runs apply under the state lock if gen is still the current
// generation, and reports whether it did.
func (m *Manager) applyIfCurrent(gen uint64, apply func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.session.Generation != gen {
		return false
	}
	apply()
	return true
}

func (m *Manager) publish(events ...Event) {
	for _, ev := range events {
		m.feed.Send(ev)
	}
}

func (m *Manager) notify(gen uint64, kind NotificationKind, message string) Event {
	return Event{
		Kind:         EventNotification,
		Session:      m.Session(),
		Generation:   gen,
		Notification: &Notification{Kind: kind, Message: message},
	}
}

// fail counts err, publishes an error notification and returns err. An empty
// message uses the error's own message.
func (m *Manager) fail(err *errclass.Error, message string) error {
	m.metrics.ClassifiedError(err.Kind.String())
	if message == "" {
		message = err.Message
	}
	m.publish(m.notify(m.Session().Generation, NotificationError, message))
	return err
}

// PushNotification publishes a notification on behalf of the caller.
func (m *Manager) PushNotification(kind NotificationKind, message string) {
	m.publish(m.notify(m.Session().Generation, kind, message))
}

func normalizeAccount(raw string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, false
	}
	addr := common.HexToAddress(raw)
	return addr, addr != (common.Address{})
}

// Connect requests account access from the wallet, attaches the registry for
// the primary account and makes it the active session. When the wallet
// answers with the account that is already active and attached, the session,
// its caches and any pending registration are kept. On failure the previous
// session is left untouched.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	if m.provider == nil {
		return Session{}, m.fail(errclass.New(errclass.KindNoProviderAvailable), "")
	}

	m.switchMu.Lock()
	s, installed, err := m.connectLocked(ctx)
	if err == nil {
		m.watchOnce.Do(m.watchAccounts)
	}
	m.switchMu.Unlock()
	if err != nil {
		return Session{}, m.fail(errclass.ClassifyError(err), "")
	}

	connected := m.notify(s.Generation, NotificationSuccess, fmt.Sprintf("Connected as %s", s.Account.Hex()))
	if !installed {
		m.log.Info("Wallet already connected", "account", s.Account.Hex(), "generation", s.Generation)
		m.publish(connected)
		return s, nil
	}

	m.log.Info("Wallet connected", "account", s.Account.Hex(), "generation", s.Generation)
	m.publish(
		Event{Kind: EventAccountChanged, Session: s, Generation: s.Generation},
		Event{Kind: EventDevicesInvalidated, Session: s, Generation: s.Generation},
		connected,
	)
	return s, nil
}

// connectLocked reports whether it installed a new session.
func (m *Manager) connectLocked(ctx context.Context) (Session, bool, error) {
	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return Session{}, false, err
	}
	if len(accounts) == 0 {
		return Session{}, false, errclass.New(errclass.KindNoAccountsAvailable)
	}

	account, ok := normalizeAccount(accounts[0])
	if !ok {
		m.log.Warn("Wallet returned a malformed account", "account", accounts[0])
		e := errclass.New(errclass.KindNoAccountsAvailable)
		e.Message = "The wallet returned an invalid account."
		return Session{}, false, e
	}

	if cur := m.Session(); cur.Account == account && cur.Binding != nil {
		return cur, false, nil
	}

	handle, err := m.binder.Attach(ctx, account)
	if err != nil {
		return Session{}, false, err
	}
	return m.install(account, handle), true, nil
}

// Disconnect clears the session.
func (m *Manager) Disconnect() {
	m.switchMu.Lock()
	s := m.install(common.Address{}, nil)
	m.switchMu.Unlock()

	m.log.Info("Wallet disconnected", "generation", s.Generation)
	m.publish(
		Event{Kind: EventSessionCleared, Session: s, Generation: s.Generation},
		Event{Kind: EventDevicesInvalidated, Session: s, Generation: s.Generation},
	)
}

// watchAccounts subscribes to the wallet's account changes. It runs once per
// Manager, under switchMu; a single goroutine handles the notifications in order.
func (m *Manager) watchAccounts() {
	ch := make(chan []string, 16)
	m.accountsSub = m.provider.SubscribeAccounts(ch)
	if m.accountsSub == nil {
		m.log.Warn("Wallet does not report account changes")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case accounts := <-ch:
				m.handleAccountsChanged(accounts)
			case err := <-m.accountsSub.Err():
				if err != nil {
					m.log.Error("Account subscription failed", "err", err)
				}
				return
			case <-m.ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) handleAccountsChanged(accounts []string) {
	m.switchMu.Lock()
	events := m.accountsChangedLocked(accounts)
	m.switchMu.Unlock()

	m.publish(events...)
}

func (m *Manager) accountsChangedLocked(accounts []string) []Event {
	if len(accounts) == 0 {
		s := m.install(common.Address{}, nil)
		m.metrics.AccountChanged("cleared")
		m.log.Info("Wallet exposes no accounts, session cleared", "generation", s.Generation)
		return []Event{
			{Kind: EventSessionCleared, Session: s, Generation: s.Generation},
			{Kind: EventDevicesInvalidated, Session: s, Generation: s.Generation},
		}
	}

	account, ok := normalizeAccount(accounts[0])
	if !ok {
		s := m.install(common.Address{}, nil)
		m.metrics.AccountChanged("malformed")
		m.log.Warn("Wallet reported a malformed account, session cleared", "account", accounts[0])
		return m.reconnectFailed(s, "The wallet reported an invalid account.")
	}

	if cur := m.Session(); cur.Account == account && cur.Binding != nil {
		m.metrics.AccountChanged("unchanged")
		return nil
	}

	handle, err := m.binder.Attach(m.ctx, account)
	if err != nil {
		s := m.install(account, nil)
		classified := errclass.ClassifyError(err)
		m.metrics.AccountChanged("reconnect_failed")
		m.metrics.ClassifiedError(errclass.KindReconnectFailed.String())
		m.log.Error("Re-attaching registry after account change failed", "account", account.Hex(), "err", err)
		return m.reconnectFailed(s, errclass.KindReconnectFailed.DefaultMessage()+" "+classified.Message)
	}

	s := m.install(account, handle)
	m.metrics.AccountChanged("switched")
	m.log.Info("Active account changed", "account", account.Hex(), "generation", s.Generation)
	return []Event{
		{Kind: EventAccountChanged, Session: s, Generation: s.Generation},
		{Kind: EventDevicesInvalidated, Session: s, Generation: s.Generation},
	}
}

func (m *Manager) reconnectFailed(s Session, message string) []Event {
	return []Event{
		{Kind: EventReconnectFailed, Session: s, Generation: s.Generation},
		{Kind: EventDevicesInvalidated, Session: s, Generation: s.Generation},
		{
			Kind:         EventNotification,
			Session:      s,
			Generation:   s.Generation,
			Notification: &Notification{Kind: NotificationError, Message: message},
		},
	}
}

// usable returns the captured state or the error explaining why registry
// operations cannot run.
func (m *Manager) usable() (*state, *errclass.Error) {
	st := m.snapshot()
	switch {
	case !st.session.HasAccount():
		return nil, errclass.New(errclass.KindNotConnected)
	case st.session.Binding == nil:
		return nil, errclass.New(errclass.KindReconnectFailed)
	}
	return st, nil
}

// FetchDevice reads one device and, if the session has not changed meanwhile,
// makes it the selected device.
func (m *Manager) FetchDevice(ctx context.Context, id interfaces.DeviceID) (interfaces.Device, error) {
	st, uerr := m.usable()
	if uerr != nil {
		return interfaces.Device{}, m.fail(uerr, "")
	}

	device, err := m.query.GetDevice(ctx, st.session.Binding, id)
	if err != nil {
		return interfaces.Device{}, m.fail(errclass.ClassifyError(err), "")
	}

	gen := st.session.Generation
	if !m.applyIfCurrent(gen, func() { d := device; m.selected = &d }) {
		m.metrics.StaleResult("get_device")
		m.log.Debug("Discarding device read from a previous session", "generation", gen)
		return device, nil
	}

	m.publish(Event{Kind: EventDeviceSelected, Session: st.session, Generation: gen, Device: &device})
	return device, nil
}

// LookupDevice is FetchDevice for a textual identifier. Identifiers that do
// not parse are reported as NotFound without a ledger call.
func (m *Manager) LookupDevice(ctx context.Context, raw string) (interfaces.Device, error) {
	id, err := interfaces.ParseDeviceID(raw)
	if err != nil {
		if _, uerr := m.usable(); uerr != nil {
			return interfaces.Device{}, m.fail(uerr, "")
		}
		return interfaces.Device{}, m.fail(errclass.Wrap(errclass.KindNotFound, err), "")
	}
	return m.FetchDevice(ctx, id)
}

// Listing is the result of LoadMyDevices.
type Listing struct {
	Account    common.Address      `json:"account"`
	Devices    []interfaces.Device `json:"devices"`
	Generation uint64              `json:"generation"`
	// Stale is set when the session changed while the list was loading; the
	// list was returned but not cached.
	Stale bool `json:"stale"`
}

// LoadMyDevices reads the active account's devices and caches them unless the
// session changed meanwhile.
func (m *Manager) LoadMyDevices(ctx context.Context) (Listing, error) {
	st, uerr := m.usable()
	if uerr != nil {
		return Listing{}, m.fail(uerr, "")
	}

	devices, err := m.query.ListOwned(ctx, st.session.Binding)
	if err != nil {
		return Listing{}, m.fail(errclass.ClassifyError(err), "Unable to load devices. Please retry.")
	}

	gen := st.session.Generation
	listing := Listing{Account: st.session.Account, Devices: devices, Generation: gen}

	cached := append([]interfaces.Device{}, devices...)
	if !m.applyIfCurrent(gen, func() { m.myDevices = cached }) {
		listing.Stale = true
		m.metrics.StaleResult("list_owned")
		m.log.Debug("Discarding device list from a previous session", "generation", gen)
		return listing, nil
	}

	m.publish(Event{Kind: EventDevicesLoaded, Session: st.session, Generation: gen})
	return listing, nil
}

// MyDevices returns the cached device list and whether one is loaded.
func (m *Manager) MyDevices() ([]interfaces.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.myDevices == nil {
		return nil, false
	}
	return append([]interfaces.Device{}, m.myDevices...), true
}

// SelectedDevice returns the selected device, if any.
func (m *Manager) SelectedDevice() (interfaces.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return interfaces.Device{}, false
	}
	return *m.selected, true
}

// Derive previews the id name would receive under the active account.
func (m *Manager) Derive(name string) (interfaces.DeviceID, bool) {
	return identity.DeriveDeviceID(m.Session().Account, name)
}

// RegisterDevice registers name under the active account and waits for
// confirmation. If the session changes before confirmation the registration
// is returned with Stale set and the new session's state is left alone.
func (m *Manager) RegisterDevice(ctx context.Context, name string) (Registration, error) {
	st := m.snapshot()
	if st.session.HasAccount() && st.session.Binding == nil {
		return Registration{}, m.fail(errclass.New(errclass.KindReconnectFailed), "")
	}

	reg, err := st.orch.Register(ctx, st.session.Binding, name)
	if err != nil {
		return Registration{}, m.fail(errclass.ClassifyError(err), "")
	}

	gen := st.session.Generation
	if !m.applyIfCurrent(gen, func() { m.myDevices = nil }) {
		reg.Stale = true
		m.metrics.StaleResult("register")
		m.log.Warn("Registration confirmed after the session changed",
			"account", reg.Account.Hex(), "deviceId", reg.DeviceID.Hex())
		return reg, nil
	}

	m.publish(
		Event{Kind: EventDeviceRegistered, Session: st.session, Generation: gen, Registration: &reg},
		Event{Kind: EventDevicesInvalidated, Session: st.session, Generation: gen},
		m.notify(gen, NotificationSuccess, fmt.Sprintf("Device %q registered.", name)),
	)
	return reg, nil
}

// Close stops the account watcher and ends all subscriptions.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.switchMu.Lock()
		sub := m.accountsSub
		m.switchMu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		// Closing the scope first unblocks a publish in the account loop.
		m.scope.Close()
		m.wg.Wait()
	})
}

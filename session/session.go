package session

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/preetidudam/EDI-Project/interfaces"
)

// Session is the wallet connection state at one point in time. It is a value:
// the manager replaces it wholesale, never mutates it.
type Session struct {
	// Account is the active account; the zero address means none.
	Account common.Address
	// Binding is scoped to Account. It is nil when no account is active, and
	// also when re-attaching after an account change failed.
	Binding interfaces.DeviceRegistry
	// Generation increases on every replacement.
	Generation uint64
}

// HasAccount reports whether an account is active.
func (s Session) HasAccount() bool {
	return s.Account != (common.Address{})
}

// Usable reports whether registry operations can be issued.
func (s Session) Usable() bool {
	return s.HasAccount() && s.Binding != nil
}

type sessionJSON struct {
	Account    *common.Address `json:"account"`
	Usable     bool            `json:"usable"`
	Generation uint64          `json:"generation"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	out := sessionJSON{Usable: s.Usable(), Generation: s.Generation}
	if s.HasAccount() {
		account := s.Account
		out.Account = &account
	}
	return json.Marshal(out)
}

// NotificationKind is the severity of a Notification.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a user-facing message. Rendering it is up to the presentation layer.
type Notification struct {
	Kind    NotificationKind `json:"type"`
	Message string           `json:"message"`
}

// EventKind tells subscribers what changed.
type EventKind string

const (
	// EventAccountChanged: a new account is active and its binding attached.
	EventAccountChanged EventKind = "account_changed"
	// EventSessionCleared: no account is active any more.
	EventSessionCleared EventKind = "session_cleared"
	// EventReconnectFailed: the account changed but its binding could not be
	// attached. The session keeps the account without a binding.
	EventReconnectFailed EventKind = "reconnect_failed"
	// EventDevicesInvalidated: the cached device list and selection were dropped.
	EventDevicesInvalidated EventKind = "devices_invalidated"
	// EventDevicesLoaded: the cached device list was replaced.
	EventDevicesLoaded EventKind = "devices_loaded"
	// EventDeviceSelected: the selected device was replaced.
	EventDeviceSelected EventKind = "device_selected"
	// EventDeviceRegistered: a registration issued in this session confirmed.
	EventDeviceRegistered EventKind = "device_registered"
	// EventNotification carries a Notification.
	EventNotification EventKind = "notification"
)

// Event is published to subscribers on every state change. Generation is the
// session generation the event belongs to, so consumers can drop late events.
type Event struct {
	Kind         EventKind          `json:"kind"`
	Session      Session            `json:"session"`
	Generation   uint64             `json:"generation"`
	Notification *Notification      `json:"notification,omitempty"`
	Device       *interfaces.Device `json:"device,omitempty"`
	Registration *Registration      `json:"registration,omitempty"`
}

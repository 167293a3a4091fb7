// Package interfaces defines the core interfaces and types for the device registry client.
// It provides the contract between different components without implementation details.
package interfaces

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidDeviceID is returned when a device identifier cannot be parsed.
var ErrInvalidDeviceID = errors.New("invalid device id")

// DeviceID is the 32-byte identifier the registry assigns to a device.
// It is opaque to this client except for local derivation (see package identity).
type DeviceID [32]byte

// ParseDeviceID parses a 64-character hex string, with or without 0x prefix.
func ParseDeviceID(s string) (DeviceID, error) {
	clean := strings.TrimSpace(s)
	if len(clean) >= 2 && clean[0] == '0' && (clean[1] == 'x' || clean[1] == 'X') {
		clean = clean[2:]
	}
	if len(clean) != 64 {
		return DeviceID{}, fmt.Errorf("%w: hex string must be 64 characters", ErrInvalidDeviceID)
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return DeviceID{}, fmt.Errorf("%w: %w", ErrInvalidDeviceID, err)
	}

	var id DeviceID
	copy(id[:], raw)
	return id, nil
}

// Hex returns the 0x-prefixed hex form of the identifier.
func (id DeviceID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id DeviceID) String() string {
	return id.Hex()
}

// IsZero reports whether the identifier is all zeroes.
func (id DeviceID) IsZero() bool {
	return id == DeviceID{}
}

func (id DeviceID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

func (id *DeviceID) UnmarshalText(text []byte) error {
	parsed, err := ParseDeviceID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Device is a registry record as observed on the ledger. Records are never mutated
// by this client.
type Device struct {
	ID           DeviceID
	Name         string
	Owner        common.Address
	RegisteredAt time.Time
}

type deviceJSON struct {
	ID           DeviceID       `json:"deviceId"`
	Name         string         `json:"name"`
	Owner        common.Address `json:"owner"`
	RegisteredAt int64          `json:"registeredAt"`
}

func (d Device) MarshalJSON() ([]byte, error) {
	return json.Marshal(deviceJSON{
		ID:           d.ID,
		Name:         d.Name,
		Owner:        d.Owner,
		RegisteredAt: d.RegisteredAt.Unix(),
	})
}

func (d *Device) UnmarshalJSON(data []byte) error {
	var raw deviceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Device{
		ID:           raw.ID,
		Name:         raw.Name,
		Owner:        raw.Owner,
		RegisteredAt: time.Unix(raw.RegisteredAt, 0).UTC(),
	}
	return nil
}

// DeviceRegisteredEvent is the decoded DeviceRegistered log emitted by the registry.
type DeviceRegisteredEvent struct {
	DeviceID  DeviceID
	Owner     common.Address
	Name      string
	Timestamp time.Time
}

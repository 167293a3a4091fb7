package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/atomic"

	didiotcommon "github.com/preetidudam/EDI-Project/common"
	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/identity"
	"github.com/preetidudam/EDI-Project/interfaces"
	"github.com/preetidudam/EDI-Project/metrics"
)

// Resolution tells how a registration's device id was obtained.
type Resolution int

const (
	// ResolvedFromEvent: taken from the DeviceRegistered log in the receipt.
	ResolvedFromEvent Resolution = iota
	// ResolvedByDerivation: no matching log; derived locally from owner and name.
	ResolvedByDerivation
)

func (r Resolution) String() string {
	if r == ResolvedByDerivation {
		return "derivation"
	}
	return "event"
}

func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Resolution) UnmarshalText(text []byte) error {
	switch string(text) {
	case "event":
		*r = ResolvedFromEvent
	case "derivation":
		*r = ResolvedByDerivation
	default:
		return fmt.Errorf("unknown resolution %q", text)
	}
	return nil
}

// Registration is the outcome of a confirmed registerDevice call.
type Registration struct {
	DeviceID   interfaces.DeviceID `json:"deviceId"`
	Name       string              `json:"name"`
	Resolution Resolution          `json:"resolution"`
	TxHash     common.Hash         `json:"txHash"`
	Account    common.Address      `json:"account"`
	// Stale is set when the session moved on before confirmation. The
	// registration happened, but it was not applied to the new session's state.
	Stale bool `json:"stale"`
}

// Orchestrator submits registrations and recovers the resulting device ids.
// It allows one registration in flight at a time; the manager keeps one
// Orchestrator per session.
type Orchestrator struct {
	log      *slog.Logger
	metrics  *metrics.Recorder
	inflight atomic.Bool
}

// NewOrchestrator returns an idle orchestrator. A nil logger discards logs and
// a nil recorder disables metrics.
func NewOrchestrator(log *slog.Logger, recorder *metrics.Recorder) *Orchestrator {
	if log == nil {
		log = didiotcommon.DiscardLogger()
	}
	return &Orchestrator{log: log, metrics: recorder}
}

// InFlight reports whether a registration is pending.
func (o *Orchestrator) InFlight() bool {
	return o.inflight.Load()
}

// Register submits registerDevice(name) through handle, waits for inclusion
// and returns the registered device id. Every failure is classified. The
// in-flight marker is released on every return path, including when ctx is
// cancelled while waiting.
func (o *Orchestrator) Register(ctx context.Context, handle interfaces.DeviceRegistry, name string) (Registration, error) {
	if handle == nil {
		return Registration{}, errclass.New(errclass.KindNotConnected)
	}
	if strings.TrimSpace(name) == "" {
		return Registration{}, errclass.New(errclass.KindInvalidInput)
	}

	if !o.inflight.CompareAndSwap(false, true) {
		return Registration{}, errclass.New(errclass.KindOperationInProgress)
	}
	defer o.inflight.Store(false)

	account := handle.Account()
	log := o.log.With("account", account.Hex(), "name", name)

	tx, err := handle.RegisterDevice(ctx, name)
	if err != nil {
		log.Error("Registration submission failed", "err", err)
		return Registration{}, errclass.ClassifyError(err)
	}
	log = log.With("tx", tx.Hash().Hex())
	log.Info("Registration submitted")

	receipt, err := handle.WaitMined(ctx, tx)
	if err != nil {
		log.Error("Waiting for registration failed", "err", err)
		return Registration{}, errclass.ClassifyError(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		log.Error("Registration transaction failed on the ledger", "block", receipt.BlockNumber)
		e := errclass.New(errclass.KindUnknownFailure)
		e.Message = "The registration transaction failed on the ledger."
		return Registration{}, e
	}

	id, resolution := o.ResolveDeviceID(receipt, handle, name)
	o.metrics.RegistrationCompleted(resolution.String())
	log.Info("Device registered", "deviceId", id.Hex(), "resolution", resolution.String())

	return Registration{
		DeviceID:   id,
		Name:       name,
		Resolution: resolution,
		TxHash:     tx.Hash(),
		Account:    account,
	}, nil
}

// ResolveDeviceID returns the id carried by the DeviceRegistered log that the
// registry emitted for this owner and name. Without such a log it derives the
// id locally, logs a warning and counts the fallback. When the log is found
// the local derivation is still computed, and disagreement is logged and
// counted as a mismatch.
func (o *Orchestrator) ResolveDeviceID(receipt *types.Receipt, handle interfaces.DeviceRegistry, name string) (interfaces.DeviceID, Resolution) {
	owner := handle.Account()
	derived, derivable := identity.DeriveDeviceID(owner, name)

	if receipt != nil {
		for _, l := range receipt.Logs {
			if l == nil || l.Address != handle.Address() {
				continue
			}
			ev, err := handle.ParseDeviceRegistered(*l)
			if err != nil {
				continue
			}
			if ev.Owner != owner || ev.Name != name {
				continue
			}

			if derivable && derived != ev.DeviceID {
				o.log.Warn("Device ID mismatch",
					slog.String("event", ev.DeviceID.Hex()),
					slog.String("derived", derived.Hex()),
					slog.String("scheme", identity.SchemeV1))
				o.metrics.DerivationMismatch()
			}
			return ev.DeviceID, ResolvedFromEvent
		}
	}

	o.log.Warn("No DeviceRegistered event in receipt, using locally derived device id",
		slog.String("account", owner.Hex()),
		slog.String("name", name),
		slog.String("derived", derived.Hex()))
	o.metrics.DeviceIDFallback()
	return derived, ResolvedByDerivation
}

// Package errclass normalizes wallet, transport and contract failures into a
// fixed set of error kinds with stable, user-presentable messages.
//
// Classification of ledger reverts relies on free-text matching of revert
// reasons and node messages. Those strings are not a stable contract, so the
// mapping is best effort: text the rule table does not recognize degrades to
// KindUnknownFailure rather than being guessed at.
package errclass

import (
	"errors"
)

// Kind is the normalized category of a failure.
type Kind int

const (
	KindUnknownFailure Kind = iota
	KindConfigurationError
	KindNoProviderAvailable
	KindUserRejected
	KindNoAccountsAvailable
	KindNotConnected
	KindInvalidInput
	KindOperationInProgress
	KindDuplicateDevice
	KindEmptyNameRejectedByLedger
	KindTransientFailure
	KindNotFound
	KindReconnectFailed
)

var kindNames = map[Kind]string{
	KindUnknownFailure:            "UnknownFailure",
	KindConfigurationError:        "ConfigurationError",
	KindNoProviderAvailable:       "NoProviderAvailable",
	KindUserRejected:              "UserRejected",
	KindNoAccountsAvailable:       "NoAccountsAvailable",
	KindNotConnected:              "NotConnected",
	KindInvalidInput:              "InvalidInput",
	KindOperationInProgress:       "OperationInProgress",
	KindDuplicateDevice:           "DuplicateDevice",
	KindEmptyNameRejectedByLedger: "EmptyNameRejectedByLedger",
	KindTransientFailure:          "TransientFailure",
	KindNotFound:                  "NotFound",
	KindReconnectFailed:           "ReconnectFailed",
}

var defaultMessages = map[Kind]string{
	KindUnknownFailure:            "Unexpected failure. Please retry.",
	KindConfigurationError:        "Contract address not configured. Update REGISTRY_CONTRACT_ADDRESS.",
	KindNoProviderAvailable:       "A wallet provider is required. Please install or enable it.",
	KindUserRejected:              "Request rejected in the wallet.",
	KindNoAccountsAvailable:       "The wallet did not expose any accounts.",
	KindNotConnected:              "Connect your wallet first.",
	KindInvalidInput:              "Device name cannot be empty.",
	KindOperationInProgress:       "A registration is already in progress.",
	KindDuplicateDevice:           "A device with this name is already registered to this account.",
	KindEmptyNameRejectedByLedger: "The registry rejected an empty device name.",
	KindTransientFailure:          "The transaction could not be processed. Check your balance and pending transactions, then retry.",
	KindNotFound:                  "Device not found. Check the ID and try again.",
	KindReconnectFailed:           "Account changed but the registry could not be attached for it.",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknownFailure]
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name. Unknown names decode to KindUnknownFailure.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	*k = KindUnknownFailure
	return nil
}

// DefaultMessage is the stable user-facing message of a kind.
func (k Kind) DefaultMessage() string {
	if msg, ok := defaultMessages[k]; ok {
		return msg
	}
	return defaultMessages[KindUnknownFailure]
}

// Retryable reports whether a caller may retry the operation without user action
// on the configuration or wallet.
func (k Kind) Retryable() bool {
	return k == KindTransientFailure
}

// Error is a classified failure. Message is safe to show to a user; Err keeps
// the raw cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnknownFailure            = New(KindUnknownFailure)
	ErrConfiguration             = New(KindConfigurationError)
	ErrNoProviderAvailable       = New(KindNoProviderAvailable)
	ErrUserRejected              = New(KindUserRejected)
	ErrNoAccountsAvailable       = New(KindNoAccountsAvailable)
	ErrNotConnected              = New(KindNotConnected)
	ErrInvalidInput              = New(KindInvalidInput)
	ErrOperationInProgress       = New(KindOperationInProgress)
	ErrDuplicateDevice           = New(KindDuplicateDevice)
	ErrEmptyNameRejectedByLedger = New(KindEmptyNameRejectedByLedger)
	ErrTransientFailure          = New(KindTransientFailure)
	ErrNotFound                  = New(KindNotFound)
	ErrReconnectFailed           = New(KindReconnectFailed)
)

// New returns an error of the given kind carrying its default message.
func New(kind Kind) *Error {
	return &Error{Kind: kind, Message: kind.DefaultMessage()}
}

// Wrap returns an error of the given kind with err as its cause.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: kind.DefaultMessage(), Err: err}
}

// KindOf returns the kind of a classified error, or KindUnknownFailure when err
// carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknownFailure
}

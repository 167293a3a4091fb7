package wallet

import (
	"errors"

	"github.com/preetidudam/EDI-Project/errclass"
)

// ProviderError is an EIP-1193 style provider error. It satisfies the
// go-ethereum rpc.Error interface so classifiers can read its code.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) ErrorCode() int { return e.Code }

// CodeDisconnected is the EIP-1193 code for a provider that lost its backend.
const CodeDisconnected = 4900

var (
	ErrUserRejected = &ProviderError{Code: errclass.CodeUserRejected, Message: "User rejected the request."}
	ErrUnauthorized = &ProviderError{Code: errclass.CodeUnauthorized, Message: "The requested account has not been authorized by the user."}
	ErrDisconnected = &ProviderError{Code: CodeDisconnected, Message: "The provider is disconnected."}

	// ErrNoProvider is returned by Open when no wallet backend is configured.
	ErrNoProvider = errors.New("no wallet provider configured")
)

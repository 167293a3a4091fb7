package errclass

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Provider refusal codes (EIP-1193).
const (
	CodeUserRejected = 4001
	CodeUnauthorized = 4100
)

// CodeExecutionReverted is the JSON-RPC code nodes use for reverted calls.
const CodeExecutionReverted = 3

// Failure is the raw material of a classification: an optional numeric code
// and the message fields a provider or node may fill in.
type Failure struct {
	Code         *int
	Reason       string
	ShortMessage string
	Message      string
}

// Rule maps a failure to a kind when any of its codes equals the failure code
// or any of its patterns occurs, case-insensitively, in a message field.
// ReasonOnly restricts the patterns to the decoded revert reason.
// Message, when set, replaces the kind's default message.
type Rule struct {
	Kind       Kind
	Codes      []int
	Patterns   []string
	ReasonOnly bool
	Message    string
}

// Ordered: the first matching rule wins.
var rules = []Rule{
	{
		Kind:     KindUserRejected,
		Codes:    []int{CodeUserRejected, CodeUnauthorized},
		Patterns: []string{"user rejected", "user denied"},
	},
	{
		Kind:     KindConfigurationError,
		Patterns: []string{"no contract code at given address"},
		Message:  "No registry contract is deployed at the configured address.",
	},
	{
		Kind:     KindDuplicateDevice,
		Patterns: []string{"already registered", "already exists"},
	},
	{
		Kind:     KindEmptyNameRejectedByLedger,
		Patterns: []string{"name cannot be empty", "empty name", "name required"},
	},
	{
		// transports say "method not found" too
		Kind:       KindNotFound,
		Patterns:   []string{"not found", "does not exist"},
		ReasonOnly: true,
	},
	{
		Kind: KindTransientFailure,
		Patterns: []string{
			"insufficient funds",
			"nonce too low",
			"nonce too high",
			"replacement transaction underpriced",
			"already known",
			"nonce has already been used",
		},
	},
}

var genericPrefixes = []string{
	"execution reverted:",
	"error:",
	"vm exception while processing transaction:",
	"reverted with reason string",
}

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{
			Kind:       r.Kind,
			Message:    r.Message,
			Codes:      append([]int(nil), r.Codes...),
			Patterns:   append([]string(nil), r.Patterns...),
			ReasonOnly: r.ReasonOnly,
		}
	}
	return out
}

// FromError extracts the code, revert reason and messages carried by err.
// JSON-RPC errors contribute their code; revert data attached to the error is
// decoded into Reason.
func FromError(err error) Failure {
	if err == nil {
		return Failure{}
	}

	f := Failure{Message: err.Error()}
	f.ShortMessage, _, _ = strings.Cut(f.Message, "\n")

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		code := rpcErr.ErrorCode()
		f.Code = &code
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := revertReason(dataErr.ErrorData()); ok {
			f.Reason = reason
		}
	}

	return f
}

func revertReason(data interface{}) (string, bool) {
	var raw []byte
	switch v := data.(type) {
	case string:
		decoded, err := hexutil.Decode(v)
		if err != nil {
			return "", false
		}
		raw = decoded
	case []byte:
		raw = v
	default:
		return "", false
	}

	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return "", false
	}
	return reason, true
}

// Classify maps a failure to its kind using the rule table. It never fails;
// unmatched failures become KindUnknownFailure carrying the best available
// message with generic prefixes stripped.
func Classify(f Failure) *Error {
	texts := []string{
		strings.ToLower(f.Reason),
		strings.ToLower(f.ShortMessage),
		strings.ToLower(f.Message),
	}

	for _, r := range rules {
		candidates := texts
		if r.ReasonOnly {
			candidates = texts[:1]
		}
		if r.matches(f.Code, candidates) {
			e := New(r.Kind)
			if r.Message != "" {
				e.Message = r.Message
			}
			return e
		}
	}

	e := New(KindUnknownFailure)
	if msg := bestMessage(f); msg != "" {
		e.Message = msg
	}
	return e
}

func (r Rule) matches(code *int, texts []string) bool {
	if code != nil {
		for _, c := range r.Codes {
			if c == *code {
				return true
			}
		}
	}
	for _, p := range r.Patterns {
		for _, t := range texts {
			if t != "" && strings.Contains(t, p) {
				return true
			}
		}
	}
	return false
}

func bestMessage(f Failure) string {
	for _, candidate := range []string{f.Reason, f.ShortMessage, f.Message} {
		if msg := stripPrefixes(candidate); msg != "" {
			return msg
		}
	}
	return ""
}

func stripPrefixes(msg string) string {
	msg = strings.TrimSpace(msg)
	for changed := true; changed; {
		changed = false
		lower := strings.ToLower(msg)
		for _, p := range genericPrefixes {
			if strings.HasPrefix(lower, p) {
				msg = strings.TrimSpace(msg[len(p):])
				changed = true
				break
			}
		}
	}
	return strings.Trim(msg, "'\"")
}

// ClassifyError classifies err. Already classified errors pass through
// unchanged and a nil error yields nil. The raw error is kept as the cause.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTransientFailure, err)
	}

	e := Classify(FromError(err))
	e.Err = err
	return e
}

// IsRevert reports whether err is the ledger refusing the call, as opposed to
// a transport, wallet or local failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	f := FromError(err)
	if f.Code != nil && *f.Code == CodeExecutionReverted {
		return true
	}
	if f.Reason != "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.Message), "execution reverted")
}

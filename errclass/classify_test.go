package errclass

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcError struct {
	code int
	msg  string
	data interface{}
}

func (e *rpcError) Error() string          { return e.msg }
func (e *rpcError) ErrorCode() int         { return e.code }
func (e *rpcError) ErrorData() interface{} { return e.data }

func revertData(t *testing.T, reason string) string {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}

func intPtr(v int) *int { return &v }

func TestClassify_RuleTable(t *testing.T) {
	cases := []struct {
		name string
		in   Failure
		want Kind
	}{
		{"user rejected code", Failure{Code: intPtr(4001), Message: "whatever"}, KindUserRejected},
		{"unauthorized code", Failure{Code: intPtr(4100)}, KindUserRejected},
		{"user denied text", Failure{Message: "MetaMask Tx Signature: User denied transaction signature."}, KindUserRejected},
		{"duplicate reason", Failure{Reason: "Device already registered"}, KindDuplicateDevice},
		{"duplicate in message", Failure{Message: "execution reverted: Device already exists"}, KindDuplicateDevice},
		{"empty name", Failure{ShortMessage: "execution reverted: Device name cannot be empty"}, KindEmptyNameRejectedByLedger},
		{"not found", Failure{Reason: "Device not found"}, KindNotFound},
		{"not found outside a revert", Failure{Message: "the method eth_sendTransaction does not exist/is not available"}, KindUnknownFailure},
		{"transaction not found", Failure{ShortMessage: "transaction not found"}, KindUnknownFailure},
		{"method not found code", Failure{Code: intPtr(-32601), Message: "Method not found"}, KindUnknownFailure},
		{"insufficient funds", Failure{Message: "insufficient funds for gas * price + value"}, KindTransientFailure},
		{"nonce too low", Failure{Message: "nonce too low: next nonce 5, tx nonce 4"}, KindTransientFailure},
		{"replacement", Failure{Message: "replacement transaction underpriced"}, KindTransientFailure},
		{"already known", Failure{Message: "already known"}, KindTransientFailure},
		{"unknown", Failure{Message: "execution reverted: Something new"}, KindUnknownFailure},
		{"empty", Failure{}, KindUnknownFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.in)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.Kind)
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// a refusal code wins over revert text
	got := Classify(Failure{Code: intPtr(4001), Reason: "Device already registered"})
	require.Equal(t, KindUserRejected, got.Kind)

	// revert reasons win over transient text
	got = Classify(Failure{Reason: "Device already registered", Message: "nonce too low"})
	require.Equal(t, KindDuplicateDevice, got.Kind)
}

func TestClassify_UnknownStripsPrefixes(t *testing.T) {
	cases := map[string]string{
		"execution reverted: Registry paused":                               "Registry paused",
		"Error: execution reverted: Registry paused":                        "Registry paused",
		"VM Exception while processing transaction: revert Registry paused": "revert Registry paused",
		"reverted with reason string 'Registry paused'":                     "Registry paused",
	}
	for in, want := range cases {
		got := Classify(Failure{Message: in})
		assert.Equal(t, KindUnknownFailure, got.Kind, in)
		assert.Equal(t, want, got.Message, in)
	}

	// reason is preferred over the longer node message
	got := Classify(Failure{Reason: "Registry paused", Message: "execution reverted: Registry paused (tx 0x12)"})
	assert.Equal(t, "Registry paused", got.Message)

	// nothing usable falls back to the default message
	got = Classify(Failure{Message: "execution reverted:"})
	assert.Equal(t, KindUnknownFailure.DefaultMessage(), got.Message)
}

func TestClassify_ChangedRevertTextDegradesToUnknown(t *testing.T) {
	// If the contract rewords its revert reasons, classification must not guess.
	for _, reason := range []string{"DUPLICATE_DEVICE", "Device registered twice", "Invalid device label"} {
		got := Classify(Failure{Reason: reason})
		assert.Equal(t, KindUnknownFailure, got.Kind, reason)
		assert.Equal(t, reason, got.Message)
	}
}

func TestFromError(t *testing.T) {
	err := fmt.Errorf("sending tx: %w", &rpcError{
		code: 3,
		msg:  "execution reverted: Device already registered",
		data: revertData(t, "Device already registered"),
	})

	f := FromError(err)
	require.NotNil(t, f.Code)
	assert.Equal(t, 3, *f.Code)
	assert.Equal(t, "Device already registered", f.Reason)
	assert.Equal(t, "sending tx: execution reverted: Device already registered", f.Message)

	f = FromError(&rpcError{code: 4001, msg: "line one\nline two", data: "not hex"})
	assert.Equal(t, 4001, *f.Code)
	assert.Empty(t, f.Reason)
	assert.Equal(t, "line one", f.ShortMessage)

	assert.Equal(t, Failure{}, FromError(nil))
}

func TestClassifyError(t *testing.T) {
	require.Nil(t, ClassifyError(nil))

	raw := &rpcError{code: 3, msg: "execution reverted", data: revertData(t, "Device name cannot be empty")}
	got := ClassifyError(raw)
	require.Equal(t, KindEmptyNameRejectedByLedger, got.Kind)
	require.ErrorIs(t, got, ErrEmptyNameRejectedByLedger)
	require.ErrorIs(t, got, raw)

	rejected := ClassifyError(&rpcError{code: CodeUserRejected, msg: "denied"})
	require.ErrorIs(t, rejected, ErrUserRejected)
	require.NotErrorIs(t, rejected, ErrDuplicateDevice)

	// pass through
	already := New(KindNotConnected)
	require.Same(t, already, ClassifyError(fmt.Errorf("wrapped: %w", already)))

	require.ErrorIs(t, ClassifyError(context.DeadlineExceeded), ErrTransientFailure)
	require.ErrorIs(t, ClassifyError(errors.New("boom")), ErrUnknownFailure)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "DuplicateDevice", KindDuplicateDevice.String())
	assert.Equal(t, "UnknownFailure", Kind(99).String())
	assert.True(t, KindTransientFailure.Retryable())
	assert.False(t, KindDuplicateDevice.Retryable())
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("x: %w", ErrNotFound)))
	assert.Equal(t, KindUnknownFailure, KindOf(errors.New("plain")))

	text, err := KindOperationInProgress.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "OperationInProgress", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText(text))
	assert.Equal(t, KindOperationInProgress, k)
	require.NoError(t, k.UnmarshalText([]byte("SomethingNew")))
	assert.Equal(t, KindUnknownFailure, k)
}

func TestRulesIsACopy(t *testing.T) {
	table := Rules()
	require.NotEmpty(t, table)
	require.Equal(t, KindUserRejected, table[0].Kind)

	table[0].Patterns[0] = "mutated"
	assert.Equal(t, "user rejected", Rules()[0].Patterns[0])
}

func TestClassify_MissingContract(t *testing.T) {
	got := ClassifyError(fmt.Errorf("calling registry: %w", errors.New("no contract code at given address")))
	require.Equal(t, KindConfigurationError, got.Kind)
	assert.Equal(t, "No registry contract is deployed at the configured address.", got.Message)
}

func TestIsRevert(t *testing.T) {
	assert.True(t, IsRevert(&rpcError{code: CodeExecutionReverted, msg: "execution reverted"}))
	assert.True(t, IsRevert(&rpcError{code: -32000, msg: "x", data: revertData(t, "Device not found")}))
	assert.True(t, IsRevert(errors.New("execution reverted: Device not found")))
	assert.False(t, IsRevert(errors.New("connection refused")))
	assert.False(t, IsRevert(nil))
}

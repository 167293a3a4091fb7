package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider(t *testing.T) {
	p := NewMemoryProvider("0xab8483f64d9c6d1ecf9b849ae677dd3315835cb2")
	defer p.Close()

	acct := common.HexToAddress("0xab8483f64d9c6d1ecf9b849ae677dd3315835cb2")

	_, err := p.Signer(context.Background(), acct)
	require.ErrorIs(t, err, ErrUnauthorized)

	p.RejectNext()
	_, err = p.RequestAccounts(context.Background())
	require.ErrorIs(t, err, ErrUserRejected)

	list, err := p.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0xab8483f64d9c6d1ecf9b849ae677dd3315835cb2"}, list)
	assert.Equal(t, 2, p.Requests())

	opts, err := p.Signer(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, acct, opts.From)

	sink := make(chan []string, 1)
	sub := p.SubscribeAccounts(sink)
	assert.Equal(t, 1, p.Subscribers())

	p.SetAccounts()
	select {
	case got := <-sink:
		assert.Empty(t, got)
	case <-time.After(time.Second):
		t.Fatal("no account update delivered")
	}

	sub.Unsubscribe()
	assert.Equal(t, 0, p.Subscribers())
}

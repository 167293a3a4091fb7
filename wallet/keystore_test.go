package wallet

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetidudam/EDI-Project/errclass"
)

func newTestKeystore(t *testing.T, n int, pass string) (*keystore.KeyStore, []common.Address) {
	t.Helper()
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	var addrs []common.Address
	for i := 0; i < n; i++ {
		acct, err := ks.NewAccount(pass)
		require.NoError(t, err)
		addrs = append(addrs, acct.Address)
	}
	return ks, addrs
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeystoreProvider_RequestAccounts(t *testing.T) {
	ks, addrs := newTestKeystore(t, 2, "secret")
	p := NewKeystoreProvider(ks, big.NewInt(1337), StaticApprover{Secret: "secret"}, discardLogger())
	defer p.Close()

	list, err := p.RequestAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, a := range list {
		assert.Equal(t, strings.ToLower(a), a, "accounts are reported in lowercase like a browser wallet")
	}

	require.NoError(t, p.Select(addrs[1]))
	list, err = p.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(addrs[1].Hex()), list[0])
}

func TestKeystoreProvider_Rejections(t *testing.T) {
	ks, addrs := newTestKeystore(t, 1, "secret")

	denying := NewKeystoreProvider(ks, big.NewInt(1337), StaticApprover{Deny: true}, discardLogger())
	defer denying.Close()

	_, err := denying.RequestAccounts(context.Background())
	require.ErrorIs(t, err, ErrUserRejected)
	assert.Equal(t, errclass.KindUserRejected, errclass.ClassifyError(err).Kind)

	// signing before approval is unauthorized
	_, err = denying.Signer(context.Background(), addrs[0])
	require.ErrorIs(t, err, ErrUnauthorized)

	wrongPass := NewKeystoreProvider(ks, big.NewInt(1337), StaticApprover{Secret: "wrong"}, discardLogger())
	defer wrongPass.Close()
	_, err = wrongPass.RequestAccounts(context.Background())
	require.NoError(t, err)
	_, err = wrongPass.Signer(context.Background(), addrs[0])
	require.ErrorIs(t, err, ErrUserRejected)

	_, err = wrongPass.Signer(context.Background(), common.HexToAddress("0x01"))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestKeystoreProvider_Signer(t *testing.T) {
	ks, addrs := newTestKeystore(t, 1, "secret")
	p := NewKeystoreProvider(ks, big.NewInt(1337), StaticApprover{Secret: "secret"}, discardLogger())
	defer p.Close()

	_, err := p.RequestAccounts(context.Background())
	require.NoError(t, err)

	opts, err := p.Signer(context.Background(), addrs[0])
	require.NoError(t, err)
	assert.Equal(t, addrs[0], opts.From)

	tx := types.NewTransaction(0, common.HexToAddress("0xaa"), big.NewInt(1), 21000, big.NewInt(1), nil)
	signed, err := opts.Signer(addrs[0], tx)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1337)), signed)
	require.NoError(t, err)
	assert.Equal(t, addrs[0], sender)
}

func TestKeystoreProvider_AccountFeed(t *testing.T) {
	ks, addrs := newTestKeystore(t, 2, "secret")
	p := NewKeystoreProvider(ks, big.NewInt(1337), StaticApprover{Secret: "secret"}, discardLogger())
	defer p.Close()

	sink := make(chan []string, 16)
	sub := p.SubscribeAccounts(sink)
	defer sub.Unsubscribe()

	_, err := p.RequestAccounts(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Select(addrs[1]))
	require.Eventually(t, func() bool {
		for {
			select {
			case list := <-sink:
				if len(list) == 2 && list[0] == strings.ToLower(addrs[1].Hex()) {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)

	p.Revoke()
	require.Eventually(t, func() bool {
		for {
			select {
			case list := <-sink:
				if len(list) == 0 {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOpen(t *testing.T) {
	_, err := Open("", big.NewInt(1), StaticApprover{}, discardLogger())
	require.ErrorIs(t, err, ErrNoProvider)

	_, err = Open(t.TempDir()+"/missing", big.NewInt(1), StaticApprover{}, discardLogger())
	require.ErrorIs(t, err, ErrNoProvider)

	p, err := Open(t.TempDir(), big.NewInt(1), StaticApprover{}, discardLogger())
	require.NoError(t, err)
	p.Close()
}

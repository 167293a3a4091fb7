package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// WalletProvider is the wallet the user controls. Accounts are reported as raw hex
// strings, as an EIP-1193 provider would report them; callers normalize them.
type WalletProvider interface {
	// RequestAccounts asks the user to expose accounts. The first entry is the primary account.
	RequestAccounts(ctx context.Context) ([]string, error)

	// Signer returns transaction options that sign as account.
	Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error)

	// SubscribeAccounts delivers the full account list every time it changes.
	// An empty list means the wallet no longer exposes any account.
	SubscribeAccounts(sink chan<- []string) event.Subscription
}

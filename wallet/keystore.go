package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Approver stands in for the wallet's confirmation prompts.
type Approver interface {
	// ApproveAccounts asks whether the accounts may be exposed to the caller.
	ApproveAccounts(ctx context.Context, accounts []common.Address) (bool, error)
	// Passphrase returns the passphrase that unlocks account.
	Passphrase(ctx context.Context, account common.Address) (string, error)
}

// KeystoreProvider is a wallet provider backed by a go-ethereum keystore
// directory. Accounts are only exposed after the approver allows it, and the
// account list is re-published whenever keys appear or disappear.
type KeystoreProvider struct {
	ks       *keystore.KeyStore
	chainID  *big.Int
	approver Approver
	log      *slog.Logger

	mu       sync.Mutex
	approved bool
	selected common.Address

	feed  event.Feed
	scope event.SubscriptionScope

	walletSub event.Subscription
	quit      chan struct{}
	done      chan struct{}
}

// Open returns a keystore provider for dir. It fails with ErrNoProvider when
// dir is empty or does not exist, which callers treat as "no wallet installed".
func Open(dir string, chainID *big.Int, approver Approver, log *slog.Logger) (*KeystoreProvider, error) {
	if dir == "" {
		return nil, ErrNoProvider
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: keystore %s does not exist", ErrNoProvider, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("keystore %s is not a directory", dir)
	}

	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	return NewKeystoreProvider(ks, chainID, approver, log), nil
}

// NewKeystoreProvider wraps ks. Call Close to stop watching the keystore.
func NewKeystoreProvider(ks *keystore.KeyStore, chainID *big.Int, approver Approver, log *slog.Logger) *KeystoreProvider {
	p := &KeystoreProvider{
		ks:       ks,
		chainID:  chainID,
		approver: approver,
		log:      log,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	events := make(chan accounts.WalletEvent, 8)
	p.walletSub = ks.Subscribe(events)
	go p.watch(events)

	return p
}

func (p *KeystoreProvider) watch(events chan accounts.WalletEvent) {
	defer close(p.done)
	for {
		select {
		case ev := <-events:
			p.log.Debug("keystore wallet event", "url", ev.Wallet.URL().String(), "kind", ev.Kind)
			p.publish()
		case err := <-p.walletSub.Err():
			if err != nil {
				p.log.Error("keystore subscription failed", "err", err)
			}
			return
		case <-p.quit:
			return
		}
	}
}

// RequestAccounts asks the approver to expose the keystore accounts and returns
// them as lowercase hex, the selected account first.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	all := p.addresses()

	if len(all) > 0 {
		ok, err := p.approver.ApproveAccounts(ctx, all)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUserRejected
		}
	}

	p.mu.Lock()
	p.approved = true
	list := p.orderedLocked(all)
	p.mu.Unlock()

	return list, nil
}

// Signer unlocks account with the approver's passphrase and returns a
// keystore-backed transactor for it.
func (p *KeystoreProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	p.mu.Lock()
	approved := p.approved
	p.mu.Unlock()

	if !approved || !p.ks.HasAddress(account) {
		return nil, ErrUnauthorized
	}

	pass, err := p.approver.Passphrase(ctx, account)
	if err != nil {
		return nil, err
	}

	acct := accounts.Account{Address: account}
	if err := p.ks.Unlock(acct, pass); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, ErrUserRejected
		}
		return nil, err
	}

	opts, err := bind.NewKeyStoreTransactorWithChainID(p.ks, acct, p.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// SubscribeAccounts delivers the account list on every change.
func (p *KeystoreProvider) SubscribeAccounts(sink chan<- []string) event.Subscription {
	return p.scope.Track(p.feed.Subscribe(sink))
}

// Select makes account the primary account, as switching accounts in a
// wallet UI would.
func (p *KeystoreProvider) Select(account common.Address) error {
	if !p.ks.HasAddress(account) {
		return ErrUnauthorized
	}

	p.mu.Lock()
	p.selected = account
	p.mu.Unlock()

	p.publish()
	return nil
}

// Revoke withdraws the account exposure. Subscribers receive an empty list.
func (p *KeystoreProvider) Revoke() {
	p.mu.Lock()
	p.approved = false
	p.mu.Unlock()

	p.feed.Send([]string{})
}

// Close stops watching the keystore and ends all subscriptions.
func (p *KeystoreProvider) Close() {
	close(p.quit)
	p.walletSub.Unsubscribe()
	<-p.done
	p.scope.Close()
}

func (p *KeystoreProvider) publish() {
	all := p.addresses()

	p.mu.Lock()
	if !p.approved {
		p.mu.Unlock()
		return
	}
	list := p.orderedLocked(all)
	p.mu.Unlock()

	p.feed.Send(list)
}

func (p *KeystoreProvider) addresses() []common.Address {
	accts := p.ks.Accounts()
	out := make([]common.Address, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.Address)
	}
	return out
}

func (p *KeystoreProvider) orderedLocked(all []common.Address) []string {
	list := make([]string, 0, len(all))
	selectedPresent := false
	for _, a := range all {
		if a == p.selected {
			selectedPresent = true
		}
	}
	if selectedPresent {
		list = append(list, strings.ToLower(p.selected.Hex()))
	}
	for _, a := range all {
		if selectedPresent && a == p.selected {
			continue
		}
		list = append(list, strings.ToLower(a.Hex()))
	}
	return list
}

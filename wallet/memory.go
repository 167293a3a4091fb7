package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// MemoryProvider is a wallet without keys. Its signers carry only the From
// address, which is all registry.MemoryLedger needs. It backs the development
// mode of cmd/httpserver and the session tests.
type MemoryProvider struct {
	mu         sync.Mutex
	accounts   []string
	authorized bool
	rejectNext bool
	signerErr  error
	requests   int

	feed  event.Feed
	scope event.SubscriptionScope
}

// NewMemoryProvider returns a provider exposing accounts, primary first.
// Entries are passed through as given, malformed ones included.
func NewMemoryProvider(accounts ...string) *MemoryProvider {
	return &MemoryProvider{accounts: append([]string(nil), accounts...)}
}

func (p *MemoryProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests++
	if p.rejectNext {
		p.rejectNext = false
		return nil, ErrUserRejected
	}
	p.authorized = true
	return append([]string(nil), p.accounts...), nil
}

func (p *MemoryProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.signerErr != nil {
		return nil, p.signerErr
	}
	if !p.authorized {
		return nil, ErrUnauthorized
	}
	return &bind.TransactOpts{From: account, Context: ctx}, nil
}

func (p *MemoryProvider) SubscribeAccounts(sink chan<- []string) event.Subscription {
	return p.scope.Track(p.feed.Subscribe(sink))
}

// SetAccounts replaces the exposed accounts and notifies subscribers.
// It blocks until every subscriber has received the list.
func (p *MemoryProvider) SetAccounts(accounts ...string) {
	list := append([]string{}, accounts...)

	p.mu.Lock()
	p.accounts = list
	p.mu.Unlock()

	p.feed.Send(append([]string{}, list...))
}

// RejectNext makes the next RequestAccounts fail as if the user declined.
func (p *MemoryProvider) RejectNext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectNext = true
}

// FailSigner makes Signer fail with err until called again with nil.
func (p *MemoryProvider) FailSigner(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signerErr = err
}

// Requests returns how many times accounts were requested.
func (p *MemoryProvider) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

// Subscribers returns the number of live account subscriptions.
func (p *MemoryProvider) Subscribers() int {
	return p.scope.Count()
}

// Close ends all subscriptions.
func (p *MemoryProvider) Close() {
	p.scope.Close()
}

package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/mock"
)

// MockProvider mocks the WalletProvider interface
type MockProvider struct {
	mock.Mock
}

// RequestAccounts mocks the RequestAccounts method
func (m *MockProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	accounts, _ := args.Get(0).([]string)
	return accounts, args.Error(1)
}

// Signer mocks the Signer method
func (m *MockProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	args := m.Called(ctx, account)
	opts, _ := args.Get(0).(*bind.TransactOpts)
	return opts, args.Error(1)
}

// SubscribeAccounts mocks the SubscribeAccounts method
func (m *MockProvider) SubscribeAccounts(sink chan<- []string) event.Subscription {
	args := m.Called(sink)
	sub, _ := args.Get(0).(event.Subscription)
	return sub
}

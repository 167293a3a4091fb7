package session

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/registry"
	"github.com/preetidudam/EDI-Project/wallet"
)

func TestBinderUnconfiguredContract(t *testing.T) {
	provider := &wallet.MockProvider{}
	factory := &registry.MockRegistryFactory{}

	b := NewBinder(common.Address{}, provider, factory)
	assert.False(t, b.ContractConfigured())

	handle, err := b.Attach(context.Background(), accountA)
	assert.Nil(t, handle)
	assert.ErrorIs(t, err, errclass.ErrConfiguration)

	provider.AssertNotCalled(t, "Signer", mock.Anything, mock.Anything)
	factory.AssertNotCalled(t, "RegistryFor", mock.Anything, mock.Anything)
}

func TestBinderNoProvider(t *testing.T) {
	b := NewBinder(registryAddr, nil, &registry.MockRegistryFactory{})
	_, err := b.Attach(context.Background(), accountA)
	assert.ErrorIs(t, err, errclass.ErrNoProviderAvailable)
}

func TestBinderAttach(t *testing.T) {
	signer := &bind.TransactOpts{From: accountA}
	handle := &registry.MockRegistry{}

	provider := &wallet.MockProvider{}
	provider.On("Signer", mock.Anything, accountA).Return(signer, nil)
	factory := &registry.MockRegistryFactory{}
	factory.On("RegistryFor", registryAddr, signer).Return(handle, nil)

	b := NewBinder(registryAddr, provider, factory)
	assert.Equal(t, registryAddr, b.Address())

	got, err := b.Attach(context.Background(), accountA)
	require.NoError(t, err)
	assert.Same(t, handle, got)

	provider.AssertExpectations(t)
	factory.AssertExpectations(t)
}

func TestBinderClassifiesFailures(t *testing.T) {
	provider := &wallet.MockProvider{}
	provider.On("Signer", mock.Anything, accountA).Return(nil, wallet.ErrUserRejected).Once()
	provider.On("Signer", mock.Anything, accountA).Return(&bind.TransactOpts{From: accountA}, nil)

	factory := &registry.MockRegistryFactory{}
	factory.On("RegistryFor", registryAddr, mock.Anything).Return(nil, errors.New("no contract code at given address"))

	b := NewBinder(registryAddr, provider, factory)

	_, err := b.Attach(context.Background(), accountA)
	assert.ErrorIs(t, err, errclass.ErrUserRejected)

	_, err = b.Attach(context.Background(), accountA)
	assert.ErrorIs(t, err, errclass.ErrConfiguration)
}

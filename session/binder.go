package session

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/interfaces"
)

// Binder produces registry handles scoped to one account.
type Binder struct {
	address  common.Address
	provider interfaces.WalletProvider
	factory  interfaces.RegistryFactory
}

// NewBinder returns a binder for the registry at address. The zero address
// means the registry is not configured.
func NewBinder(address common.Address, provider interfaces.WalletProvider, factory interfaces.RegistryFactory) *Binder {
	return &Binder{address: address, provider: provider, factory: factory}
}

// ContractConfigured reports whether a registry address is set.
func (b *Binder) ContractConfigured() bool {
	return b.address != (common.Address{})
}

// Address returns the configured registry address.
func (b *Binder) Address() common.Address {
	return b.address
}

// Attach obtains a signer for account from the wallet and binds it to the
// registry. An unconfigured registry fails before the wallet or the chain is
// contacted.
func (b *Binder) Attach(ctx context.Context, account common.Address) (interfaces.DeviceRegistry, error) {
	if !b.ContractConfigured() {
		return nil, errclass.New(errclass.KindConfigurationError)
	}
	if b.provider == nil {
		return nil, errclass.New(errclass.KindNoProviderAvailable)
	}

	signer, err := b.provider.Signer(ctx, account)
	if err != nil {
		return nil, errclass.ClassifyError(err)
	}

	handle, err := b.factory.RegistryFor(b.address, signer)
	if err != nil {
		return nil, errclass.ClassifyError(err)
	}
	return handle, nil
}

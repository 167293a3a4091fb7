package flags

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/preetidudam/EDI-Project/config"
	"github.com/preetidudam/EDI-Project/interfaces"
	"github.com/preetidudam/EDI-Project/metrics"
	"github.com/preetidudam/EDI-Project/registry"
	"github.com/preetidudam/EDI-Project/session"
	"github.com/preetidudam/EDI-Project/wallet"
)

// defaultDevAccounts are exposed by the in-memory wallet when none are configured.
var defaultDevAccounts = []string{
	"0x5B38Da6a701c568545dCfcB03FcB875f56beddC4",
	"0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2",
}

// Backend is the ledger and wallet a session manager runs against.
type Backend struct {
	Factory  interfaces.RegistryFactory
	Provider interfaces.WalletProvider
	closers  []func()
}

// OpenBackend connects to the ledger and opens the wallet described by cfg.
// A missing keystore leaves Provider nil; the manager then reports that no
// wallet is available.
func OpenBackend(cfg *config.Config, log *slog.Logger) (*Backend, error) {
	b := &Backend{}

	if cfg.Registry.InMemory {
		address := cfg.RegistryAddress()
		log.Warn("Using the in-memory ledger, state is lost on exit", "contract", address.Hex())
		b.Factory = registry.NewMemoryLedger(address)

		accounts := cfg.Wallet.DevAccounts
		if len(accounts) == 0 {
			accounts = defaultDevAccounts
		}
		provider := wallet.NewMemoryProvider(accounts...)
		b.Provider = provider
		b.closers = append(b.closers, provider.Close)
		return b, nil
	}

	log.Info("Connecting to Ethereum RPC", "address", cfg.Registry.RPCAddr)
	ethClient, err := ethclient.Dial(cfg.Registry.RPCAddr)
	if err != nil {
		return nil, fmt.Errorf("dialing RPC: %w", err)
	}
	b.Factory = registry.NewRegistryFactory(ethClient, ethClient)
	b.closers = append(b.closers, ethClient.Close)

	approver, err := newApprover(cfg.Wallet)
	if err != nil {
		b.Close()
		return nil, err
	}

	provider, err := wallet.Open(cfg.Wallet.KeystoreDir, big.NewInt(cfg.Registry.ChainID), approver, log)
	switch {
	case errors.Is(err, wallet.ErrNoProvider):
		log.Warn("No keystore configured, wallet operations will fail", "keystore", cfg.Wallet.KeystoreDir)
	case err != nil:
		b.Close()
		return nil, err
	default:
		b.Provider = provider
		b.closers = append(b.closers, provider.Close)
	}
	return b, nil
}

func newApprover(cfg config.WalletConfig) (wallet.Approver, error) {
	if cfg.PasswordFile == "" {
		return wallet.NewTerminalApprover(), nil
	}
	secret, err := os.ReadFile(cfg.PasswordFile)
	if err != nil {
		return nil, fmt.Errorf("reading password file: %w", err)
	}
	return wallet.StaticApprover{Secret: strings.TrimRight(string(secret), "\r\n")}, nil
}

// NewManager builds a session manager on this backend.
func (b *Backend) NewManager(cfg *config.Config, log *slog.Logger, recorder *metrics.Recorder) *session.Manager {
	return session.New(session.ManagerConfig{
		Provider: b.Provider,
		Registry: cfg.RegistryAddress(),
		Factory:  b.Factory,
		Log:      log,
		Metrics:  recorder,
	})
}

// Close releases the wallet and the RPC connection.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

package flags

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/preetidudam/EDI-Project/common"
	"github.com/preetidudam/EDI-Project/config"
	"github.com/preetidudam/EDI-Project/httpserver"
)

// LoadConfig reads the config file named by --config and applies the flags
// the user set explicitly on top of it.
func LoadConfig(cCtx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(cCtx.String(ConfigFlag.Name))
	if err != nil {
		return nil, err
	}

	if cCtx.IsSet(RegistryContractFlag.Name) {
		cfg.Registry.ContractAddress = cCtx.String(RegistryContractFlag.Name)
	}
	if cCtx.IsSet(RpcAddrFlag.Name) {
		cfg.Registry.RPCAddr = cCtx.String(RpcAddrFlag.Name)
	}
	if cCtx.IsSet(ChainIDFlag.Name) {
		cfg.Registry.ChainID = cCtx.Int64(ChainIDFlag.Name)
	}
	if cCtx.IsSet(InMemoryFlag.Name) {
		cfg.Registry.InMemory = cCtx.Bool(InMemoryFlag.Name)
	}
	if cCtx.IsSet(KeystoreFlag.Name) {
		cfg.Wallet.KeystoreDir = cCtx.String(KeystoreFlag.Name)
	}
	if cCtx.IsSet(PasswordFileFlag.Name) {
		cfg.Wallet.PasswordFile = cCtx.String(PasswordFileFlag.Name)
	}
	if cCtx.IsSet(DevAccountsFlag.Name) {
		cfg.Wallet.DevAccounts = cCtx.StringSlice(DevAccountsFlag.Name)
	}
	if cCtx.IsSet(LogJsonFlag.Name) {
		cfg.Logging.JSON = cCtx.Bool(LogJsonFlag.Name)
	}
	if cCtx.IsSet(LogDebugFlag.Name) {
		cfg.Logging.Debug = cCtx.Bool(LogDebugFlag.Name)
	}
	if cCtx.IsSet(LogServiceFlag.Name) {
		cfg.Logging.Service = cCtx.String(LogServiceFlag.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SetupLogger(cCtx *cli.Context, cfg *config.Config, output io.Writer) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cfg.Logging.Debug,
		JSON:    cfg.Logging.JSON,
		Service: cfg.Logging.Service,
		Version: common.Version,
		Output:  output,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// SetupAuditLogger returns the zap logger that records state-changing API calls.
func SetupAuditLogger(cfg *config.Config) (*zap.Logger, error) {
	var (
		audit *zap.Logger
		err   error
	)
	if cfg.Logging.JSON {
		audit, err = zap.NewProduction()
	} else {
		audit, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return audit.Named("audit").With(zap.String("service", cfg.Logging.Service)), nil
}

func ConfigureServer(cCtx *cli.Context, cfg *config.Config, logger *slog.Logger) *httpserver.HTTPServerConfig {
	if cCtx.IsSet(ListenAddrFlag.Name) {
		cfg.API.ListenAddr = cCtx.String(ListenAddrFlag.Name)
	}
	if cCtx.IsSet(MetricsAddrFlag.Name) {
		cfg.API.MetricsAddr = cCtx.String(MetricsAddrFlag.Name)
	}
	if cCtx.IsSet(PprofFlag.Name) {
		cfg.API.EnablePprof = cCtx.Bool(PprofFlag.Name)
	}
	if cCtx.IsSet(DrainSecondsFlag.Name) {
		cfg.API.DrainSeconds = int(cCtx.Int64(DrainSecondsFlag.Name))
	}

	return &httpserver.HTTPServerConfig{
		ListenAddr:               cfg.API.ListenAddr,
		MetricsAddr:              cfg.API.MetricsAddr,
		Log:                      logger,
		EnablePprof:              cfg.API.EnablePprof,
		DrainDuration:            cfg.DrainDuration(),
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              cfg.ReadTimeout(),
		WriteTimeout:             cfg.WriteTimeout(),
	}
}

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	EnvVars: []string{"REGISTRY_CONFIG"},
	Usage:   "path to a YAML config file",
}

var RegistryContractFlag = &cli.StringFlag{
	Name:    "registry-contract",
	EnvVars: []string{config.EnvContractAddress},
	Usage:   "device registry contract address, 0x-prefixed 40-char hex",
}

var RpcAddrFlag = &cli.StringFlag{
	Name:  "rpc-addr",
	Value: "http://127.0.0.1:8545",
	Usage: "address to connect to RPC",
}

var ChainIDFlag = &cli.Int64Flag{
	Name:  "chain-id",
	Value: 1337,
	Usage: "chain id used to sign transactions",
}

var InMemoryFlag = &cli.BoolFlag{
	Name:  "in-memory",
	Value: false,
	Usage: "use an in-process ledger and a key-less wallet instead of RPC and keystore",
}

var KeystoreFlag = &cli.StringFlag{
	Name:  "keystore",
	Usage: "keystore directory holding the wallet accounts",
}

var PasswordFileFlag = &cli.StringFlag{
	Name:  "password-file",
	Usage: "file with the keystore passphrase; prompts on the terminal when unset",
}

var DevAccountsFlag = &cli.StringSliceFlag{
	Name:  "dev-account",
	Usage: "account exposed by the in-memory wallet, primary first (repeatable)",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}
var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

// RegistryFlags select the ledger and the wallet.
var RegistryFlags = []cli.Flag{
	ConfigFlag,
	RegistryContractFlag,
	RpcAddrFlag,
	ChainIDFlag,
	InMemoryFlag,
	KeystoreFlag,
	PasswordFileFlag,
	DevAccountsFlag,
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var ServerFlags = []cli.Flag{
	ListenAddrFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

// Package config loads the registry client configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvContractAddress = "REGISTRY_CONTRACT_ADDRESS"
	EnvRPCAddr         = "REGISTRY_RPC_ADDR"
	EnvChainID         = "REGISTRY_CHAIN_ID"
	EnvKeystoreDir     = "REGISTRY_KEYSTORE_DIR"
	EnvMQTTBroker      = "REGISTRY_MQTT_BROKER"
)

// Config is the root configuration structure.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Wallet   WalletConfig   `yaml:"wallet"`
	API      APIConfig      `yaml:"api"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RegistryConfig locates the registry contract.
type RegistryConfig struct {
	// ContractAddress may be empty or the zero address; attaching a session
	// then fails with a configuration error instead of calling the chain.
	ContractAddress string `yaml:"contract_address"`
	RPCAddr         string `yaml:"rpc_addr"`
	ChainID         int64  `yaml:"chain_id"`
	// InMemory replaces the chain with an in-process ledger for development.
	InMemory bool `yaml:"in_memory"`
}

// WalletConfig selects the wallet backend.
type WalletConfig struct {
	KeystoreDir  string `yaml:"keystore_dir"`
	PasswordFile string `yaml:"password_file"`
	// DevAccounts are exposed by the key-less development wallet.
	DevAccounts []string `yaml:"dev_accounts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	MetricsAddr  string `yaml:"metrics_addr"`
	EnablePprof  bool   `yaml:"pprof"`
	DrainSeconds int    `yaml:"drain_seconds"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
}

// MQTTConfig contains the announcement broker settings.
type MQTTConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TopicPrefix    string `yaml:"topic_prefix"`
	QoS            int    `yaml:"qos"`
	PublishTimeout int    `yaml:"publish_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	JSON    bool   `yaml:"json"`
	Debug   bool   `yaml:"debug"`
	Service string `yaml:"service"`
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			RPCAddr: "http://127.0.0.1:8545",
			ChainID: 1337,
		},
		API: APIConfig{
			ListenAddr:   "127.0.0.1:8080",
			MetricsAddr:  "127.0.0.1:8090",
			DrainSeconds: 45,
			ReadTimeout:  60,
			WriteTimeout: 0,
		},
		MQTT: MQTTConfig{
			ClientID:       "didiot-registry",
			TopicPrefix:    "didiot",
			QoS:            1,
			PublishTimeout: 5,
		},
		Logging: LoggingConfig{
			Service: "didiot",
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvContractAddress); ok {
		cfg.Registry.ContractAddress = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvRPCAddr); v != "" {
		cfg.Registry.RPCAddr = v
	}
	if v := os.Getenv(EnvChainID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvChainID, err)
		}
		cfg.Registry.ChainID = id
	}
	if v := os.Getenv(EnvKeystoreDir); v != "" {
		cfg.Wallet.KeystoreDir = v
	}
	if v := os.Getenv(EnvMQTTBroker); v != "" {
		cfg.MQTT.Broker = v
		cfg.MQTT.Enabled = true
	}
	return nil
}

// Validate checks the configuration for values no component can work with.
// A missing or zero registry address is allowed.
func (c *Config) Validate() error {
	if addr := c.Registry.ContractAddress; addr != "" && !common.IsHexAddress(addr) {
		return fmt.Errorf("registry.contract_address %q is not a 20-byte hex address", addr)
	}
	if c.Registry.ChainID <= 0 {
		return fmt.Errorf("registry.chain_id must be positive, got %d", c.Registry.ChainID)
	}
	if !c.Registry.InMemory && c.Registry.RPCAddr == "" {
		return fmt.Errorf("registry.rpc_addr is required unless registry.in_memory is set")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
		}
	}
	return nil
}

// RegistryAddress returns the configured contract address, or the zero address when unset.
func (c *Config) RegistryAddress() common.Address {
	if c.Registry.ContractAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Registry.ContractAddress)
}

// ContractConfigured reports whether a non-zero registry address is set.
func (c *Config) ContractConfigured() bool {
	return c.RegistryAddress() != (common.Address{})
}

func (c *Config) DrainDuration() time.Duration {
	return time.Duration(c.API.DrainSeconds) * time.Second
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.API.ReadTimeout) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.API.WriteTimeout) * time.Second
}

func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.MQTT.PublishTimeout) * time.Second
}

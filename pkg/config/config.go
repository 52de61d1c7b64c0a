// Package config loads the relayer's runtime configuration from
// environment variables, following the teacher's field-per-setting
// Config struct with a Load() factory and a Validate() gate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the bridge relayer.
type Config struct {
	// Ethereum Configuration
	EthereumRPCURL string
	EthChainID     int64

	// Beacon node Configuration
	BeaconAPIURL string

	// Sidechain Configuration
	SidechainRPCURL     string
	ERC20ManagerAddress string
	HistoricalProxyID   string

	// LightClientProgramID is the sidechain actor ID of the Ethereum light
	// client program. Left unset, the beacon sync poller is not started
	// and run logs why (mirrors ContractsConfigPath's opt-in pattern).
	LightClientProgramID string

	// TrustedCheckpointRoot is the hex-encoded beacon block root the
	// light client poller's local lightclient.State mirror bootstraps
	// from via beaconapi.Client.Bootstrap, the weak-subjectivity
	// checkpoint an operator pins out of band.
	TrustedCheckpointRoot string

	// LightClientForkSchedule selects the fork schedule (altair or
	// electra) used to decode beacon API sync updates and bootstraps.
	LightClientForkSchedule string

	// BeaconPollInterval paces the beacon finality-update poller,
	// distinct from PollInterval which paces the Ethereum event listener.
	BeaconPollInterval time.Duration

	// Server Configuration
	ListenAddr  string
	MetricsAddr string

	// Persistence Configuration
	DataDir           string
	CheckpointDBPath  string
	CheckpointCapacity int
	TxStorePath       string
	DatabaseURL       string // optional; enables pkg/txstore/sqlstore mirror
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Relayer Behavior Configuration
	PollInterval        time.Duration
	BackoffBase         time.Duration
	BackoffMaxAttempts  int
	BackoffMaxDelay     time.Duration
	KillswitchPollEvery time.Duration

	// ContractsConfigPath optionally points at a JSON file describing the
	// deployed contract addresses, ABIs, and signing key the
	// merkleroot/message relayers need to submit transactions. Left
	// unset, those two relayers are not started and run logs why.
	ContractsConfigPath string

	// Service Identity
	LogLevel string
}

// Load reads configuration from environment variables. Call Validate()
// after Load() to ensure all required configuration is present.
func Load() (*Config, error) {
	cfg := &Config{
		EthereumRPCURL: getEnv("ETHEREUM_RPC_URL", ""),
		EthChainID:     getEnvInt64("ETH_CHAIN_ID", 1),

		BeaconAPIURL: getEnv("BEACON_API_URL", ""),

		SidechainRPCURL:     getEnv("SIDECHAIN_RPC_URL", ""),
		ERC20ManagerAddress: getEnv("ERC20_MANAGER_ADDRESS", ""),
		HistoricalProxyID:   getEnv("HISTORICAL_PROXY_ACTOR_ID", ""),

		LightClientProgramID:    getEnv("LIGHT_CLIENT_ACTOR_ID", ""),
		TrustedCheckpointRoot:   getEnv("TRUSTED_CHECKPOINT_ROOT", ""),
		LightClientForkSchedule: getEnv("LIGHT_CLIENT_FORK_SCHEDULE", "electra"),
		BeaconPollInterval:      getEnvDuration("BEACON_POLL_INTERVAL", 30*time.Second),

		ListenAddr:  getEnv("LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr: getEnv("METRICS_ADDR", "0.0.0.0:9090"),

		DataDir:            getEnv("DATA_DIR", "./data"),
		CheckpointDBPath:   getEnv("CHECKPOINT_DB_PATH", "./data/checkpoint"),
		CheckpointCapacity: getEnvInt("CHECKPOINT_CAPACITY", 8192),
		TxStorePath:        getEnv("TXSTORE_PATH", "./data/txstore.json"),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),

		PollInterval:        getEnvDuration("POLL_INTERVAL", 12*time.Second),
		BackoffBase:         getEnvDuration("BACKOFF_BASE", 3*time.Second),
		BackoffMaxAttempts:  getEnvInt("BACKOFF_MAX_ATTEMPTS", 10),
		BackoffMaxDelay:     getEnvDuration("BACKOFF_MAX_DELAY", 2*time.Minute),
		KillswitchPollEvery: getEnvDuration("KILLSWITCH_POLL_INTERVAL", 30*time.Second),

		ContractsConfigPath: getEnv("CONTRACTS_CONFIG_PATH", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.EthereumRPCURL == "" {
		errs = append(errs, "ETHEREUM_RPC_URL is required but not set")
	}
	if c.BeaconAPIURL == "" {
		errs = append(errs, "BEACON_API_URL is required but not set")
	}
	if c.SidechainRPCURL == "" {
		errs = append(errs, "SIDECHAIN_RPC_URL is required but not set")
	}
	if c.ERC20ManagerAddress == "" {
		errs = append(errs, "ERC20_MANAGER_ADDRESS is required but not set")
	}
	if c.HistoricalProxyID == "" {
		errs = append(errs, "HISTORICAL_PROXY_ACTOR_ID is required but not set")
	}
	if c.BackoffMaxAttempts <= 0 {
		errs = append(errs, "BACKOFF_MAX_ATTEMPTS must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

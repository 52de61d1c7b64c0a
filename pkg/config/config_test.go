package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	clearEnv(t, "ETHEREUM_RPC_URL", "ETH_CHAIN_ID", "POLL_INTERVAL", "BACKOFF_MAX_ATTEMPTS")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(1), cfg.EthChainID)
	require.Equal(t, 12*time.Second, cfg.PollInterval)
	require.Equal(t, 10, cfg.BackoffMaxAttempts)
	require.Equal(t, "./data", cfg.DataDir)
}

func TestLoadReadsOverridesFromEnvironment(t *testing.T) {
	clearEnv(t, "ETHEREUM_RPC_URL", "ETH_CHAIN_ID", "POLL_INTERVAL")
	os.Setenv("ETHEREUM_RPC_URL", "https://example.invalid/rpc")
	os.Setenv("ETH_CHAIN_ID", "11155111")
	os.Setenv("POLL_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://example.invalid/rpc", cfg.EthereumRPCURL)
	require.Equal(t, int64(11155111), cfg.EthChainID)
	require.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	cfg := &Config{BackoffMaxAttempts: 10}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ETHEREUM_RPC_URL")
	require.Contains(t, err.Error(), "BEACON_API_URL")
	require.Contains(t, err.Error(), "SIDECHAIN_RPC_URL")
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := &Config{
		EthereumRPCURL:      "https://example.invalid/rpc",
		BeaconAPIURL:        "https://example.invalid/beacon",
		SidechainRPCURL:     "ws://example.invalid/rpc",
		ERC20ManagerAddress: "0x1111111111111111111111111111111111111111",
		HistoricalProxyID:   "0x2222",
		BackoffMaxAttempts:  10,
	}
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveBackoffAttempts(t *testing.T) {
	cfg := &Config{
		EthereumRPCURL:      "x",
		BeaconAPIURL:        "x",
		SidechainRPCURL:     "x",
		ERC20ManagerAddress: "x",
		HistoricalProxyID:   "x",
		BackoffMaxAttempts:  0,
	}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "BACKOFF_MAX_ATTEMPTS")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
rpc_list:
  - https://api.mainnet-beta.solana.com
wallet_file: wallets.csv
candy_machine_id: CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR
candy_guard_id: Guard1JwRhJkVH6XZhzoYxeBVQe872VH6QggF4BWmS9g
token_mint: EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
payment_destination_ata: metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s
token_amount: 250000000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, uint32(DefaultComputeUnits), cfg.ComputeUnits)
	assert.Equal(t, uint64(DefaultFeeReserveLamports), cfg.FeeReserveLamports)
	assert.Equal(t, 2*time.Second, cfg.MintDelay())
	assert.Equal(t, time.Minute, cfg.ConfirmTimeout())
	assert.Equal(t, 2*time.Minute, cfg.ApprovalTimeout())
	assert.True(t, cfg.SingleSkipPreflight)
	assert.Equal(t, uint(1), cfg.SingleMaxRetries)
	assert.False(t, cfg.BatchSkipPreflight)
	assert.Equal(t, uint(3), cfg.BatchMaxRetries)
	assert.Equal(t, uint64(250_000_000), cfg.TokenAmount)
	assert.False(t, cfg.LicenseEnabled())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CANDY_MINTER_RPC_LIST", "https://rpc-a.example, https://rpc-b.example")
	t.Setenv("CANDY_MINTER_MINT_DELAY_MS", "0")
	t.Setenv("CANDY_MINTER_WALLET", "main")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://rpc-a.example", "https://rpc-b.example"}, cfg.RPCList)
	assert.Equal(t, time.Duration(0), cfg.MintDelay())
	assert.Equal(t, "main", cfg.Wallet)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "bad rpc scheme",
			content: "rpc_list: [ws://node]\nwallet_file: w.csv\ncandy_machine_id: CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR\ncandy_guard_id: Guard1JwRhJkVH6XZhzoYxeBVQe872VH6QggF4BWmS9g\n",
			errText: "invalid RPC URL",
		},
		{
			name:    "bad machine key",
			content: "rpc_list: [https://node]\nwallet_file: w.csv\ncandy_machine_id: not-a-key\ncandy_guard_id: Guard1JwRhJkVH6XZhzoYxeBVQe872VH6QggF4BWmS9g\n",
			errText: "invalid candy_machine_id",
		},
		{
			name:    "missing guard",
			content: "rpc_list: [https://node]\nwallet_file: w.csv\ncandy_machine_id: CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR\n",
			errText: "missing candy_guard_id",
		},
		{
			name:    "payment half configured",
			content: "rpc_list: [https://node]\nwallet_file: w.csv\ncandy_machine_id: CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR\ncandy_guard_id: Guard1JwRhJkVH6XZhzoYxeBVQe872VH6QggF4BWmS9g\ntoken_mint: EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v\n",
			errText: "must be set together",
		},
		{
			name:    "compute units too high",
			content: validYAML + "compute_units: 2000000\n",
			errText: "invalid compute_units",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestPublicKey(t *testing.T) {
	assert.True(t, PublicKey("").IsZero())
	assert.True(t, PublicKey("garbage").IsZero())
	assert.Equal(t, "CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR",
		PublicKey("CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR").String())
}

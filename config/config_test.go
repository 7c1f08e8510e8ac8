package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.RPCAddress)
	require.Equal(t, ":9464", cfg.MetricsAddress)
	require.NotEmpty(t, cfg.DataDir)

	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.OwnerAddress, reloaded.OwnerAddress)
}

func TestLoadExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
RPCAddress = ":9000"
OwnerAddress = "0x0000000000000000000000000000000000000001"
PotAddress = "0x0000000000000000000000000000000000000002"
ProtocolWallet = "0x0000000000000000000000000000000000000009"
TreasuryWallet = "0x0000000000000000000000000000000000000008"
UnitPrice = "100"
ProtocolFeePercent = 15
TreasurySplitPercent = 10

[[Allocations]]
Address = "0x0000000000000000000000000000000000000003"
Balance = "1000000"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.RPCAddress)
	require.Equal(t, ":9464", cfg.MetricsAddress)

	owner, err := cfg.Owner()
	require.NoError(t, err)
	require.Equal(t, byte(1), owner[19])

	genesis, allocations, err := cfg.Genesis()
	require.NoError(t, err)
	require.Equal(t, int64(100), genesis.UnitPrice.Int64())
	require.Equal(t, uint32(15), genesis.ProtocolFeePercent)
	require.Equal(t, uint32(10), genesis.TreasurySplitPercent)
	require.Equal(t, byte(9), genesis.ProtocolWallet[19])
	require.Equal(t, byte(8), genesis.TreasuryWallet[19])
	require.Len(t, allocations, 1)
	for _, balance := range allocations {
		require.Equal(t, big.NewInt(1_000_000), balance)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad owner": `
OwnerAddress = "nonsense"
PotAddress = "0x0000000000000000000000000000000000000002"
`,
		"short address": `
OwnerAddress = "0x0001"
PotAddress = "0x0000000000000000000000000000000000000002"
`,
		"negative amount": `
OwnerAddress = "0x0000000000000000000000000000000000000001"
PotAddress = "0x0000000000000000000000000000000000000002"
UnitPrice = "-5"
`,
		"percent too large": `
OwnerAddress = "0x0000000000000000000000000000000000000001"
PotAddress = "0x0000000000000000000000000000000000000002"
ProtocolFeePercent = 101
`,
		"bad allocation": `
OwnerAddress = "0x0000000000000000000000000000000000000001"
PotAddress = "0x0000000000000000000000000000000000000002"

[[Allocations]]
Address = "0x0000000000000000000000000000000000000003"
Balance = "not-a-number"
`,
	}

	for name, contents := range cases {
		path := filepath.Join(dir, name+".toml")
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644), name)
		_, err := Load(path)
		require.Error(t, err, name)
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	require.Equal(t, byte(1), addr[19])

	addr, err = ParseAddress("0000000000000000000000000000000000000001")
	require.NoError(t, err)
	require.Equal(t, byte(1), addr[19])

	_, err = ParseAddress("")
	require.Error(t, err)

	_, err = ParseAddress("0xzz")
	require.Error(t, err)
}

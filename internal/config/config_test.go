package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
game:
  owner: "dice:owner"
  prize_amount: 5000
ledger:
  backend: memory
  genesis:
    - address: "dice:treasury"
      amount: 100000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, uint64(1), cfg.Chain.ID)
	assert.Equal(t, "dice:owner", cfg.Game.Owner)
	assert.Equal(t, int64(5000), cfg.Game.PrizeAmount)
	assert.Equal(t, "dice:treasury", cfg.Game.TreasuryAddress)
	assert.Equal(t, 10*time.Second, cfg.Game.Cooldown())
	assert.Equal(t, int64(1_000_000), cfg.Game.MaxPrizePool)
	assert.Equal(t, uint64(6), cfg.Game.MaxNumber)
	require.Len(t, cfg.Ledger.Genesis, 1)
	assert.Equal(t, int64(100_000), cfg.Ledger.Genesis[0].Amount)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"missing owner": `
game:
  prize_amount: 100
`,
		"cap below prize": `
game:
  owner: "dice:owner"
  prize_amount: 100
  max_prize_pool: 50
`,
		"postgres without url": `
game:
  owner: "dice:owner"
ledger:
  backend: postgres
`,
		"unknown backend": `
game:
  owner: "dice:owner"
ledger:
  backend: cloud
`,
		"bad genesis grant": `
game:
  owner: "dice:owner"
ledger:
  genesis:
    - address: ""
      amount: 10
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

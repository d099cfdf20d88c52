package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthurium-ai/personal-finance/internal/suggest"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":8787", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, suggest.DefaultLimit, cfg.Suggest.Limit)
	assert.Equal(t, suggest.DefaultWarmThreshold, cfg.Suggest.WarmThreshold)
	assert.Equal(t, 5000, cfg.Suggest.HistoryLimit)
	assert.False(t, cfg.Suggest.IndexCache)
	assert.Empty(t, cfg.Suggest.Rules)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	p := writeFile(t, `
server:
  addr: ":9000"
suggest:
  warm_threshold: 25
  rules:
    - category: Pets
      keywords: [ração, veterinário]
    - category: Transporte
      keywords: [uber]
`)
	t.Setenv("LEDGER_SERVER_ADDR", ":9100")
	t.Setenv("LEDGER_AUTH_JWT_SECRET", "s")

	cfg, err := Load(New(), p)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "s", cfg.Auth.JWTSecret)
	assert.Equal(t, 25, cfg.Suggest.WarmThreshold)
	assert.Equal(t, []suggest.RuleEntry{
		{Category: "Pets", Keywords: []string{"ração", "veterinário"}},
		{Category: "Transporte", Keywords: []string{"uber"}},
	}, cfg.Suggest.Rules)

	table := cfg.Suggest.RuleTable()
	assert.Equal(t, []string{"Pets", "Transporte"}, table.Classify("Racao e uber", 3))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := map[string]map[string]string{
		"driver":         {"LEDGER_DATABASE_DRIVER": "mysql"},
		"postgres url":   {"LEDGER_DATABASE_DRIVER": "postgres"},
		"log level":      {"LEDGER_LOGGING_LEVEL": "loud"},
		"limit":          {"LEDGER_SUGGEST_LIMIT": "0"},
		"threshold":      {"LEDGER_SUGGEST_WARM_THRESHOLD": "-1"},
		"history limit":  {"LEDGER_SUGGEST_HISTORY_LIMIT": "-5"},
		"request timout": {"LEDGER_SERVER_REQUEST_TIMEOUT": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(New(), "")
			assert.Error(t, err)
		})
	}
}

func TestSuggestConfig_DefaultRuleTable(t *testing.T) {
	table := SuggestConfig{}.RuleTable()
	assert.Equal(t, len(suggest.DefaultRules), table.Len())
	assert.Equal(t, suggest.Options{Limit: 3, WarmThreshold: 10}, SuggestConfig{Limit: 3, WarmThreshold: 10}.Options())
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebudget/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:     "debug",
		LogFormat:    "json",
		BudgetAlerts: false,
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HOMEBUDGET_CLI_TEST=yes\n"), 0o600))
	t.Setenv("HOMEBUDGET_CLI_TEST", "")
	require.NoError(t, os.Unsetenv("HOMEBUDGET_CLI_TEST"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "yes", os.Getenv("HOMEBUDGET_CLI_TEST"))

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")), "missing files are ignored")
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(testConfig(), &buf, "test")
	logger.Debug("hello")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"), "json format expected: %s", out)
	assert.Contains(t, out, `"component":"test"`)
}

func TestSetupLoggerBadLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "loud"
	var buf bytes.Buffer
	SetupLogger(cfg, &buf, "test")
	assert.Contains(t, buf.String(), "Falling back to info level")
}

func TestNewLedgerServiceEmbeddedSeed(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(testConfig(), &buf, "test")

	svc, err := NewLedgerService(testConfig(), nil, logger)
	require.NoError(t, err)
	assert.NotEmpty(t, svc.Ledger().ListTransactions())
	assert.NotEmpty(t, svc.Ledger().ListBudgets())
	assert.False(t, svc.Preferences().BudgetAlerts)
	assert.True(t, svc.Preferences().Notifications)
	assert.False(t, svc.Ledger().LinkedSpending())
}

func TestNewLedgerServiceSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[transaction]]
id = "t1"
amount = "10.00"
category = "Food"
description = "Bagel"
days_ago = 1

[[budget]]
id = "b1"
category = "Food"
allocated = "100"
`), 0o600))

	cfg := testConfig()
	cfg.SeedFile = path
	cfg.LinkedSpending = true
	var buf bytes.Buffer
	svc, err := NewLedgerService(cfg, nil, SetupLogger(cfg, &buf, "test"))
	require.NoError(t, err)
	assert.Len(t, svc.Ledger().ListTransactions(), 1)
	assert.True(t, svc.Ledger().LinkedSpending())

	cfg.SeedFile = filepath.Join(dir, "absent.toml")
	_, err = NewLedgerService(cfg, nil, SetupLogger(cfg, &buf, "test"))
	assert.Error(t, err)
}

func TestShutdownContext(t *testing.T) {
	ctx, cancel := ShutdownContext(0)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), deadline, time.Second)
}

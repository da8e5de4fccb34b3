package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebudget/internal/core"
	"homebudget/internal/ledger"
)

var now = time.Date(2024, time.December, 27, 9, 0, 0, 0, time.UTC)

func TestDefaultSeed(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	require.NotNil(t, f.Settings.BudgetAlerts)
	assert.True(t, *f.Settings.BudgetAlerts)

	l := ledger.New(ledger.WithClock(func() time.Time { return now }))
	require.NoError(t, f.Apply(l, now))

	txs := l.ListTransactions()
	require.Len(t, txs, 4)
	assert.Equal(t, "Grocery shopping", txs[0].Description)
	assert.Equal(t, "2024-12-26", txs[0].Date.String())
	assert.Equal(t, core.KindIncome, txs[1].Kind)
	assert.NotEmpty(t, txs[0].ID)

	budgets := l.ListBudgets()
	require.Len(t, budgets, 5)
	assert.Equal(t, "Shopping", budgets[4].Category)
	assert.Equal(t, int64(45000), budgets[4].Spent.Cents)

	totals := l.Totals()
	assert.Equal(t, int64(290000), totals.TotalAllocated.Cents)
	assert.Equal(t, int64(262000), totals.TotalSpent.Cents)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("[[transaction]]\namount = \"1\"\ndescr = \"typo\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "descr")
}

func TestRecordsValidation(t *testing.T) {
	f, err := Parse(strings.NewReader(`
[[transaction]]
amount = "abc"
description = "broken"
`))
	require.NoError(t, err)
	_, _, err = f.Records(core.DateOf(now))
	assert.ErrorIs(t, err, core.ErrValidation)

	f, err = Parse(strings.NewReader(`
[[budget]]
category = "Food"
allocated = "10"
spent = "-1"
`))
	require.NoError(t, err)
	_, _, err = f.Records(core.DateOf(now))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[transaction]]
amount = "10"
description = "Fixed date"
date = "2024-01-15"
days_ago = 3
`), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	txs, budgets, err := f.Records(core.DateOf(now))
	require.NoError(t, err)
	assert.Empty(t, budgets)
	require.Len(t, txs, 1)
	assert.Equal(t, "2024-01-15", txs[0].Date.String())
	assert.Equal(t, core.DefaultCategory, txs[0].Category)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[budget]]
category = "Food"
alocated = "100"
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alocated")
	assert.Contains(t, err.Error(), path)
}

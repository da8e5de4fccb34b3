package ledger

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebudget/internal/core"
)

var fixedNow = time.Date(2024, time.December, 27, 10, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	n := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	}
	return New(append(base, opts...)...)
}

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{ID: "1", Amount: core.Money{Cents: 8550}, Category: "Food", Description: "Grocery shopping", Date: core.NewDate(2024, time.December, 26), Kind: core.KindExpense},
		{ID: "2", Amount: core.Money{Cents: 250000}, Category: "Salary", Description: "Monthly salary", Date: core.NewDate(2024, time.December, 25), Kind: core.KindIncome},
		{ID: "3", Amount: core.Money{Cents: 4500}, Category: "Transport", Description: "Uber ride", Date: core.NewDate(2024, time.December, 24), Kind: core.KindExpense},
		{ID: "4", Amount: core.Money{Cents: 12000}, Category: "Bills", Description: "Electricity bill", Date: core.NewDate(2024, time.December, 23), Kind: core.KindExpense},
	}
}

func TestAddTransactionPrepends(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Load(sampleTransactions(), nil))

	created, err := l.AddTransaction(core.TransactionInput{Amount: "12.40", Description: "Coffee", Category: "Food"})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-27", created.Date.String())

	list := l.ListTransactions()
	require.Len(t, list, 5)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "1", list[1].ID)
}

func TestAddTransactionValidationLeavesStateUnchanged(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Load(sampleTransactions(), nil))
	before := l.Version()

	for _, in := range []core.TransactionInput{
		{Description: "no amount"},
		{Amount: "ten", Description: "words"},
		{Amount: "-4", Description: "negative"},
		{Amount: "4"},
	} {
		_, err := l.AddTransaction(in)
		assert.ErrorIs(t, err, core.ErrValidation)
	}
	assert.Len(t, l.ListTransactions(), 4)
	assert.Equal(t, before, l.Version())
}

func TestTransactionIDsAreUnique(t *testing.T) {
	l := New(WithClock(func() time.Time { return fixedNow }))
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tx, err := l.AddTransaction(core.TransactionInput{Amount: "1", Description: "x"})
		require.NoError(t, err)
		assert.False(t, seen[tx.ID], "id %s reused", tx.ID)
		seen[tx.ID] = true
	}
}

func TestDeleteTransactionIdempotent(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Load(sampleTransactions(), nil))

	assert.True(t, l.DeleteTransaction("3"))
	after := l.ListTransactions()
	assert.False(t, l.DeleteTransaction("3"))
	assert.Equal(t, after, l.ListTransactions())
	assert.False(t, l.DeleteTransaction("missing"))

	_, err := l.Transaction("3")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFilterTransactions(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Load(sampleTransactions(), nil))

	collect := func(query, category string) []string {
		var ids []string
		for tx := range l.FilterTransactions(query, category) {
			ids = append(ids, tx.Description)
		}
		return ids
	}

	assert.Equal(t, []string{"Uber ride"}, collect("uber", "All"))
	assert.Equal(t, []string{"Grocery shopping", "Monthly salary", "Uber ride", "Electricity bill"}, collect("", "All"))
	assert.Equal(t, []string{"Monthly salary"}, collect("SAL", ""))
	assert.Equal(t, []string{"Electricity bill"}, collect("", "Bills"))
	assert.Empty(t, collect("uber", "Food"))
	assert.Equal(t, []string{"Uber ride"}, collect("transport", "All"))
}

func TestFilterTransactionsIsRestartable(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Load(sampleTransactions(), nil))

	seq := l.FilterTransactions("", "All")
	assert.Len(t, slices.Collect(seq), 4)

	_, err := l.AddTransaction(core.TransactionInput{Amount: "3", Description: "Bus"})
	require.NoError(t, err)
	assert.Len(t, slices.Collect(seq), 5)

	// early break
	for range seq {
		break
	}
}

func TestAddBudgetDuplicateCategory(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddBudget(core.BudgetInput{Category: "Food", Allocated: "800"})
	require.NoError(t, err)

	_, err = l.AddBudget(core.BudgetInput{Category: "Food", Allocated: "100"})
	var dup *core.DuplicateCategoryError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Food", dup.Category)
	assert.Len(t, l.ListBudgets(), 1)
}

func TestAddBudgetAppendsWithPaletteColor(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 8; i++ {
		b, err := l.AddBudget(core.BudgetInput{Category: fmt.Sprintf("C%d", i), Allocated: "10"})
		require.NoError(t, err)
		assert.Equal(t, core.Palette[i%len(core.Palette)], b.Color)
		assert.Zero(t, b.Spent.Cents)
	}
	budgets := l.ListBudgets()
	assert.Equal(t, "C0", budgets[0].Category)
	assert.Equal(t, "C7", budgets[7].Category)

	_, err := l.AddBudget(core.BudgetInput{Category: "Bad", Allocated: "abc"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Len(t, l.ListBudgets(), 8)
}

func TestTotals(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Load(nil, []core.Budget{
		{Category: "Food", Allocated: core.Money{Cents: 80000}, Spent: core.Money{Cents: 65000}},
		{Category: "Bills", Allocated: core.Money{Cents: 120000}, Spent: core.Money{Cents: 110000}},
	}))

	totals := l.Totals()
	assert.Equal(t, int64(200000), totals.TotalAllocated.Cents)
	assert.Equal(t, int64(175000), totals.TotalSpent.Cents)
	assert.Equal(t, int64(25000), totals.Remaining.Cents)
}

func TestTotalsConsistentAcrossMutations(t *testing.T) {
	l := newTestLedger(t)
	var ids []string
	for i := 0; i < 6; i++ {
		b, err := l.AddBudget(core.BudgetInput{Category: fmt.Sprintf("C%d", i), Allocated: fmt.Sprintf("%d.25", i+1)})
		require.NoError(t, err)
		ids = append(ids, b.ID)
		totals := l.Totals()
		assert.Equal(t, totals.TotalAllocated.Cents-totals.TotalSpent.Cents, totals.Remaining.Cents)
	}
	for _, id := range ids[:3] {
		l.DeleteBudget(id)
		totals := l.Totals()
		assert.Equal(t, totals.TotalAllocated.Cents-totals.TotalSpent.Cents, totals.Remaining.Cents)
	}
	assert.False(t, l.DeleteBudget(ids[0]))
}

func TestLinkedSpending(t *testing.T) {
	l := newTestLedger(t, WithLinkedSpending())
	require.NoError(t, l.Load(sampleTransactions(), nil))

	b, err := l.AddBudget(core.BudgetInput{Category: "Food", Allocated: "100"})
	require.NoError(t, err)
	assert.Equal(t, int64(8550), b.Spent.Cents)

	tx, err := l.AddTransaction(core.TransactionInput{Amount: "10", Description: "Bakery", Category: "Food"})
	require.NoError(t, err)
	got, _ := l.BudgetByCategory("Food")
	assert.Equal(t, int64(9550), got.Spent.Cents)

	_, err = l.AddTransaction(core.TransactionInput{Amount: "10", Description: "Refund", Category: "Food", Kind: "income"})
	require.NoError(t, err)
	got, _ = l.BudgetByCategory("Food")
	assert.Equal(t, int64(9550), got.Spent.Cents)

	l.DeleteTransaction(tx.ID)
	got, _ = l.BudgetByCategory("Food")
	assert.Equal(t, int64(8550), got.Spent.Cents)
}

func TestUnlinkedSpendingByDefault(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddBudget(core.BudgetInput{Category: "Food", Allocated: "100"})
	require.NoError(t, err)
	_, err = l.AddTransaction(core.TransactionInput{Amount: "10", Description: "Bakery", Category: "Food"})
	require.NoError(t, err)
	got, ok := l.BudgetByCategory("Food")
	require.True(t, ok)
	assert.Zero(t, got.Spent.Cents)
}

func TestReportSummaryUsesPeriod(t *testing.T) {
	l := newTestLedger(t)
	txs := append(sampleTransactions(), core.Transaction{
		ID: "old", Amount: core.Money{Cents: 99900}, Category: "Food", Description: "Old feast",
		Date: core.NewDate(2023, time.January, 1), Kind: core.KindExpense,
	})
	require.NoError(t, l.Load(txs, nil))

	s := l.ReportSummary(core.Period1M)
	assert.Equal(t, int64(250000), s.TotalIncome.Cents)
	assert.Equal(t, int64(8550+4500+12000), s.TotalExpenses.Cents)

	all := l.ReportSummary(core.PeriodAll)
	assert.Equal(t, int64(8550+4500+12000+99900), all.TotalExpenses.Cents)
	assert.Equal(t, "Food", all.Categories[0].Name)
}

func TestReportSummaryAllKeepsFutureDates(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddTransaction(core.TransactionInput{
		Amount: "100", Description: "Advance", Category: "Salary", Date: "2025-01-05", Kind: "income",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10000), l.ReportSummary(core.PeriodAll).TotalIncome.Cents)
	assert.Zero(t, l.ReportSummary(core.Period1M).TotalIncome.Cents)
}

func TestAddTransactionRejectsNonASCIIDigits(t *testing.T) {
	l := newTestLedger(t)
	for _, amount := range []string{"1.٣", "٣"} {
		_, err := l.AddTransaction(core.TransactionInput{Amount: amount, Description: "x"})
		assert.ErrorIs(t, err, core.ErrValidation, amount)
	}
	assert.Empty(t, l.ListTransactions())
}

func TestLoadRejectsDuplicates(t *testing.T) {
	l := newTestLedger(t)
	err := l.Load(nil, []core.Budget{
		{Category: "Food", Allocated: core.Money{Cents: 100}},
		{Category: "Food", Allocated: core.Money{Cents: 200}},
	})
	assert.ErrorIs(t, err, core.ErrDuplicateCategory)
	assert.Empty(t, l.ListBudgets())

	err = l.Load([]core.Transaction{{ID: "x", Description: "bad", Kind: core.KindExpense, Date: core.NewDate(2024, 1, 1)}}, nil)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestConcurrentMutations(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = l.AddTransaction(core.TransactionInput{Amount: "1", Description: fmt.Sprintf("t%d", i)})
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = l.AddBudget(core.BudgetInput{Category: fmt.Sprintf("c%d", i%5), Allocated: "1"})
			_ = l.Totals()
			_ = l.ReportSummary(core.PeriodAll)
		}(i)
	}
	wg.Wait()
	assert.Len(t, l.ListTransactions(), 20)
	assert.Len(t, l.ListBudgets(), 5)
}

func TestDashboard(t *testing.T) {
	l := newTestLedger(t)
	txs := append(sampleTransactions(), core.Transaction{
		ID: "nov", Amount: core.Money{Cents: 5000}, Category: "Food", Description: "November",
		Date: core.NewDate(2024, time.November, 30), Kind: core.KindExpense,
	})
	require.NoError(t, l.Load(txs, []core.Budget{
		{Category: "Food", Allocated: core.Money{Cents: 80000}, Spent: core.Money{Cents: 65000}},
	}))

	d := l.Dashboard(fixedNow)
	assert.Equal(t, "2024-12", d.Month)
	assert.Equal(t, int64(250000), d.Income.Cents)
	assert.Equal(t, int64(25050), d.Expenses.Cents)
	assert.Equal(t, int64(250000-25050), d.Balance.Cents)
	require.Len(t, d.Budgets, 1)
	assert.Equal(t, core.TierWarning, d.Budgets[0].Tier)
	assert.Len(t, d.Recent, 5)
	assert.Equal(t, "Bills", d.Categories[0].Name)
}

func TestDashboardEmptyLedgerMarshalsEmptyLists(t *testing.T) {
	d := newTestLedger(t).Dashboard(fixedNow)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"recent":[]`)
	assert.Contains(t, string(b), `"categories":[]`)
	assert.Contains(t, string(b), `"budgets":[]`)
}

// Package ledger owns the in-memory transaction and budget collections.
//
// A Ledger serializes writers behind one lock and hands readers copies, so
// every derived metric is computed on a consistent snapshot.
package ledger

import (
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"homebudget/internal/core"
)

// Ledger is safe for concurrent use.
type Ledger struct {
	mu           sync.RWMutex
	transactions []core.Transaction // newest first
	budgets      []core.Budget      // creation order
	version      uint64

	now            func() time.Time
	newID          func() string
	linkedSpending bool
}

type Option func(*Ledger)

// WithClock overrides the time source used for default dates and reports.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides identifier assignment.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// WithLinkedSpending makes expense transactions count against the budget
// sharing their category. Off by default: budgets are then tracked by hand.
func WithLinkedSpending() Option {
	return func(l *Ledger) { l.linkedSpending = true }
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the ledger's notion of the current time.
func (l *Ledger) Now() time.Time { return l.now() }

// LinkedSpending reports whether transactions feed budget spending.
func (l *Ledger) LinkedSpending() bool { return l.linkedSpending }

// Version increases on every successful mutation.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// AddTransaction validates in and inserts the result at the head of the
// collection. Nothing changes when validation fails.
func (l *Ledger) AddTransaction(in core.TransactionInput) (core.Transaction, error) {
	t, err := core.NewTransaction(l.newID(), in, core.DateOf(l.now()))
	if err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = slices.Insert(l.transactions, 0, t)
	l.applySpending(t, 1)
	l.version++
	return t, nil
}

// DeleteTransaction removes the transaction with id. A missing id is not an
// error; removed tells the caller whether anything happened.
func (l *Ledger) DeleteTransaction(id string) (removed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.transactions, func(t core.Transaction) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	t := l.transactions[i]
	l.transactions = slices.Delete(l.transactions, i, i+1)
	l.applySpending(t, -1)
	l.version++
	return true
}

// Transaction looks up a single transaction.
func (l *Ledger) Transaction(id string) (core.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

// ListTransactions returns a copy of the collection, newest first.
func (l *Ledger) ListTransactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.transactions)
}

// FilterTransactions yields the transactions whose description or category
// contains query (case-insensitive) and, unless category is "All" or empty,
// whose category equals category. Each iteration snapshots the collection
// afresh, so the sequence can be ranged over repeatedly.
func (l *Ledger) FilterTransactions(query, category string) iter.Seq[core.Transaction] {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(yield func(core.Transaction) bool) {
		for _, t := range l.ListTransactions() {
			if !matches(t, q, category) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

func matches(t core.Transaction, q, category string) bool {
	if category != "" && category != core.AllCategories && t.Category != category {
		return false
	}
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Description), q) ||
		strings.Contains(strings.ToLower(t.Category), q)
}

// AddBudget validates in and appends a budget with zero spending. The color
// cycles through the palette by current budget count.
func (l *Ledger) AddBudget(in core.BudgetInput) (core.Budget, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := core.NewBudget(l.newID(), in, core.PaletteColor(len(l.budgets)))
	if err != nil {
		return core.Budget{}, err
	}
	if l.budgetIndex(b.Category) >= 0 {
		return core.Budget{}, &core.DuplicateCategoryError{Category: b.Category}
	}
	if l.linkedSpending {
		b.Spent = l.spentFor(b.Category)
	}
	l.budgets = append(l.budgets, b)
	l.version++
	return b, nil
}

// DeleteBudget removes the budget with id; a missing id is a no-op.
func (l *Ledger) DeleteBudget(id string) (removed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.budgets, func(b core.Budget) bool { return b.ID == id })
	if i < 0 {
		return false
	}
	l.budgets = slices.Delete(l.budgets, i, i+1)
	l.version++
	return true
}

func (l *Ledger) Budget(id string) (core.Budget, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.budgets {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Budget{}, core.ErrNotFound
}

// BudgetByCategory finds the live budget for category.
func (l *Ledger) BudgetByCategory(category string) (core.Budget, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.budgetIndex(category); i >= 0 {
		return l.budgets[i], true
	}
	return core.Budget{}, false
}

// ListBudgets returns a copy of the budgets in creation order.
func (l *Ledger) ListBudgets() []core.Budget {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.budgets)
}

// BudgetStatuses returns every budget with its progress, remaining and tier.
func (l *Ledger) BudgetStatuses() []core.BudgetStatus {
	budgets := l.ListBudgets()
	out := make([]core.BudgetStatus, len(budgets))
	for i, b := range budgets {
		out[i] = core.StatusOf(b)
	}
	return out
}

func (l *Ledger) Totals() core.Totals {
	return core.SumBudgets(l.ListBudgets())
}

// ReportSummary summarizes the current transactions over period.
func (l *Ledger) ReportSummary(period core.Period) core.ReportSummary {
	return core.Summarize(l.ListTransactions(), period, l.now())
}

// budgetIndex must be called with mu held.
func (l *Ledger) budgetIndex(category string) int {
	return slices.IndexFunc(l.budgets, func(b core.Budget) bool { return b.Category == category })
}

// spentFor must be called with mu held.
func (l *Ledger) spentFor(category string) core.Money {
	var m core.Money
	for _, t := range l.transactions {
		if t.Kind == core.KindExpense && t.Category == category {
			m.Cents += t.Amount.Cents
		}
	}
	return m
}

// applySpending must be called with mu held. sign is +1 on insert, -1 on removal.
func (l *Ledger) applySpending(t core.Transaction, sign int64) {
	if !l.linkedSpending || t.Kind != core.KindExpense {
		return
	}
	if i := l.budgetIndex(t.Category); i >= 0 {
		l.budgets[i].Spent.Cents += sign * t.Amount.Cents
		if l.budgets[i].Spent.Cents < 0 {
			l.budgets[i].Spent.Cents = 0
		}
	}
}

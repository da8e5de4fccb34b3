package ledger

import (
	"fmt"
	"slices"

	"homebudget/internal/core"
)

// Load replaces the ledger contents with the given records. Transactions are
// kept in the order given (newest first); budgets keep their stored spending
// and color. Missing ids are generated. The ledger is untouched on error.
func (l *Ledger) Load(txs []core.Transaction, budgets []core.Budget) error {
	txs = slices.Clone(txs)
	budgets = slices.Clone(budgets)

	seen := make(map[string]struct{}, len(txs))
	for i := range txs {
		if txs[i].ID == "" {
			txs[i].ID = l.newID()
		}
		if _, dup := seen[txs[i].ID]; dup {
			return fmt.Errorf("transaction %d: duplicate id %q", i, txs[i].ID)
		}
		seen[txs[i].ID] = struct{}{}
		if err := txs[i].Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	categories := make(map[string]struct{}, len(budgets))
	for i := range budgets {
		b := &budgets[i]
		if b.ID == "" {
			b.ID = l.newID()
		}
		if b.Category == "" {
			return fmt.Errorf("budget %d: %w", i, &core.ValidationError{Field: "category", Err: core.ErrEmptyCategory})
		}
		if b.Allocated.Cents < 0 || b.Spent.Cents < 0 {
			return fmt.Errorf("budget %d: %w", i, &core.ValidationError{Field: "allocated", Err: core.ErrInvalidAmount})
		}
		if _, dup := categories[b.Category]; dup {
			return &core.DuplicateCategoryError{Category: b.Category}
		}
		categories[b.Category] = struct{}{}
		if b.Color == "" {
			b.Color = core.PaletteColor(i)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = txs
	l.budgets = budgets
	l.version++
	return nil
}

package ledger

import (
	"time"

	"homebudget/internal/core"
)

// Dashboard is the month-at-a-glance view.
type Dashboard struct {
	Month      string                   `json:"month"`
	Income     core.Money               `json:"income"`
	Expenses   core.Money               `json:"expenses"`
	Balance    core.Money               `json:"balance"`
	Categories []core.CategoryBreakdown `json:"categories"`
	Budgets    []core.BudgetStatus      `json:"budgets"`
	Totals     core.Totals              `json:"totals"`
	Recent     []core.Transaction       `json:"recent"`
}

const recentLimit = 5

// Dashboard aggregates the calendar month containing now.
func (l *Ledger) Dashboard(now time.Time) Dashboard {
	txs := l.ListTransactions()
	year, month, _ := now.Date()

	d := Dashboard{Month: now.Format("2006-01")}
	byCategory := make(map[string]int64)
	for _, t := range txs {
		if y, m, _ := t.Date.Date(); y != year || m != month {
			continue
		}
		switch t.Kind {
		case core.KindIncome:
			d.Income.Cents += t.Amount.Cents
		case core.KindExpense:
			d.Expenses.Cents += t.Amount.Cents
			byCategory[t.Category] += t.Amount.Cents
		}
	}
	d.Balance = core.Money{Cents: d.Income.Cents - d.Expenses.Cents}
	d.Categories = core.Breakdown(byCategory, d.Expenses)
	d.Budgets = l.BudgetStatuses()
	d.Totals = core.SumBudgets(l.ListBudgets())
	d.Recent = append(make([]core.Transaction, 0, recentLimit), txs[:min(recentLimit, len(txs))]...)
	return d
}

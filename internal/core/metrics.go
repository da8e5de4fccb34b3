package core

import "github.com/shopspring/decimal"

// StatusTier classifies how much of a budget has been consumed.
type StatusTier string

const (
	TierOnTrack StatusTier = "onTrack"
	TierWarning StatusTier = "warning"
	TierOver    StatusTier = "over"
)

var (
	hundred          = decimal.NewFromInt(100)
	warningThreshold = decimal.RequireFromString("0.8")
)

// Rank orders tiers by severity so callers can detect escalation.
func (s StatusTier) Rank() int {
	switch s {
	case TierWarning:
		return 1
	case TierOver:
		return 2
	default:
		return 0
	}
}

// ProgressPercentage returns spent/allocated*100 capped at 100.
// A zero allocation yields 0.
func ProgressPercentage(spent, allocated Money) decimal.Decimal {
	if allocated.Cents <= 0 || spent.Cents <= 0 {
		return decimal.Zero
	}
	pct := spent.Decimal().Div(allocated.Decimal()).Mul(hundred)
	return decimal.Min(pct, hundred)
}

// Remaining is allocated minus spent. Negative values mean overspending.
func Remaining(spent, allocated Money) Money {
	return Money{Cents: allocated.Cents - spent.Cents}
}

// Tier classifies spent against allocated. Any spending on a zero
// allocation is over.
func Tier(spent, allocated Money) StatusTier {
	if allocated.Cents <= 0 {
		if spent.Cents > 0 {
			return TierOver
		}
		return TierOnTrack
	}
	ratio := spent.Decimal().Div(allocated.Decimal())
	switch {
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return TierOver
	case ratio.GreaterThanOrEqual(warningThreshold):
		return TierWarning
	default:
		return TierOnTrack
	}
}

// SavingsRate is net/income*100, or 0 without income.
func SavingsRate(net, income Money) decimal.Decimal {
	return percentOf(net, income)
}

// ExpenseRatio is expenses/income*100, or 0 without income.
func ExpenseRatio(expenses, income Money) decimal.Decimal {
	return percentOf(expenses, income)
}

func percentOf(part, whole Money) decimal.Decimal {
	if whole.Cents == 0 {
		return decimal.Zero
	}
	return part.Decimal().Div(whole.Decimal()).Mul(hundred)
}

// BudgetStatus is a budget together with its derived metrics.
type BudgetStatus struct {
	Budget
	Progress  decimal.Decimal `json:"progress"`
	Remaining Money           `json:"remaining"`
	Tier      StatusTier      `json:"tier"`
}

func StatusOf(b Budget) BudgetStatus {
	return BudgetStatus{
		Budget:    b,
		Progress:  ProgressPercentage(b.Spent, b.Allocated).Round(2),
		Remaining: Remaining(b.Spent, b.Allocated),
		Tier:      Tier(b.Spent, b.Allocated),
	}
}

// Totals aggregates the live budget collection.
type Totals struct {
	TotalAllocated Money `json:"totalAllocated"`
	TotalSpent     Money `json:"totalSpent"`
	Remaining      Money `json:"remaining"`
}

func SumBudgets(budgets []Budget) Totals {
	var t Totals
	for _, b := range budgets {
		t.TotalAllocated.Cents += b.Allocated.Cents
		t.TotalSpent.Cents += b.Spent.Cents
	}
	t.Remaining = Money{Cents: t.TotalAllocated.Cents - t.TotalSpent.Cents}
	return t
}

package core

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Period selects how far back a report looks.
type Period string

const (
	Period1M  Period = "1M"
	Period3M  Period = "3M"
	Period6M  Period = "6M"
	Period1Y  Period = "1Y"
	PeriodAll Period = "ALL"

	DefaultPeriod = Period3M
)

var Periods = []Period{Period1M, Period3M, Period6M, Period1Y, PeriodAll}

func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "period", Err: fmt.Errorf("unknown period %q", s)}
}

func (p Period) months() int {
	switch p {
	case Period1M:
		return 1
	case Period3M:
		return 3
	case Period6M:
		return 6
	case Period1Y:
		return 12
	default:
		return 0
	}
}

// Contains reports whether d falls inside the period ending on the day of now.
// PeriodAll contains every date, including ones after now.
func (p Period) Contains(d Date, now time.Time) bool {
	n := p.months()
	if n == 0 {
		return true
	}
	end := DateOf(now)
	if d.After(end.Time) {
		return false
	}
	start := end.AddDate(0, -n, 0)
	return !d.Before(start)
}

type (
	CategoryBreakdown struct {
		Name       string          `json:"name"`
		Amount     Money           `json:"amount"`
		Percentage decimal.Decimal `json:"percentage"`
	}

	ReportSummary struct {
		Period        Period              `json:"period"`
		TotalIncome   Money               `json:"totalIncome"`
		TotalExpenses Money               `json:"totalExpenses"`
		NetSavings    Money               `json:"netSavings"`
		SavingsRate   decimal.Decimal     `json:"savingsRate"`
		ExpenseRatio  decimal.Decimal     `json:"expenseRatio"`
		Categories    []CategoryBreakdown `json:"categories"`
	}
)

// Summarize aggregates the transactions that fall inside period as seen
// from now. Categories hold expenses only, largest first, ties by name.
func Summarize(txs []Transaction, period Period, now time.Time) ReportSummary {
	s := ReportSummary{Period: period}
	byCategory := make(map[string]int64)
	for _, t := range txs {
		if !period.Contains(t.Date, now) {
			continue
		}
		switch t.Kind {
		case KindIncome:
			s.TotalIncome.Cents += t.Amount.Cents
		case KindExpense:
			s.TotalExpenses.Cents += t.Amount.Cents
			byCategory[t.Category] += t.Amount.Cents
		}
	}
	s.NetSavings = Money{Cents: s.TotalIncome.Cents - s.TotalExpenses.Cents}
	s.SavingsRate = SavingsRate(s.NetSavings, s.TotalIncome)
	s.ExpenseRatio = ExpenseRatio(s.TotalExpenses, s.TotalIncome)
	s.Categories = Breakdown(byCategory, s.TotalExpenses)
	return s
}

// Breakdown turns per-category totals into sorted entries with their share of total.
func Breakdown(byCategory map[string]int64, total Money) []CategoryBreakdown {
	out := make([]CategoryBreakdown, 0, len(byCategory))
	for name, cents := range byCategory {
		amount := Money{Cents: cents}
		out = append(out, CategoryBreakdown{
			Name:       name,
			Amount:     amount,
			Percentage: percentOf(amount, total),
		})
	}
	slices.SortFunc(out, func(a, b CategoryBreakdown) int {
		if a.Amount.Cents != b.Amount.Cents {
			if a.Amount.Cents > b.Amount.Cents {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

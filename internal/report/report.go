// Package report renders report summaries for sharing and spreadsheet hand-off.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"homebudget/internal/core"
)

// Format selects an export rendering.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", &core.ValidationError{Field: "format", Err: fmt.Errorf("unknown format %q", s)}
	}
}

// ContentType is the MIME type of a rendered export.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Title is the share sheet title for a report.
func Title(period core.Period) string {
	return "HomeBudget Pro Report - " + string(period)
}

// Write renders s in format f.
func Write(w io.Writer, f Format, s core.ReportSummary) error {
	if f == FormatCSV {
		return WriteCSV(w, s)
	}
	_, err := io.WriteString(w, Text(s))
	return err
}

// Text renders the human-readable report. Labels and their order are part
// of the share format and must stay stable.
func Text(s core.ReportSummary) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	fmt.Fprintf(&b, "HomeBudget Pro Financial Report - %s\n\n", s.Period)
	fmt.Fprintf(&b, "Period: %s\n", s.Period)
	fmt.Fprintf(&b, "Total Income: $%s\n", amount(p, s.TotalIncome))
	fmt.Fprintf(&b, "Total Expenses: $%s\n", amount(p, s.TotalExpenses))
	fmt.Fprintf(&b, "Net Savings: $%s\n", amount(p, s.NetSavings))
	fmt.Fprintf(&b, "Savings Rate: %s%%\n\n", s.SavingsRate.StringFixed(1))
	b.WriteString("Top Spending Categories:\n")
	for i, c := range s.Categories {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: $%s (%s%%)", c.Name, amount(p, c.Amount), c.Percentage.StringFixed(1))
	}
	return b.String()
}

// amount groups thousands and drops trailing fractional zeros: 19,500 or 85.5.
func amount(p *message.Printer, m core.Money) string {
	return p.Sprintf("%v", number.Decimal(m.Decimal().InexactFloat64(), number.MaxFractionDigits(2)))
}

// WriteCSV writes a metric/value block followed by the category table.
func WriteCSV(w io.Writer, s core.ReportSummary) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value"},
		{"period", string(s.Period)},
		{"total_income", s.TotalIncome.String()},
		{"total_expenses", s.TotalExpenses.String()},
		{"net_savings", s.NetSavings.String()},
		{"savings_rate", s.SavingsRate.StringFixed(2)},
		{"expense_ratio", s.ExpenseRatio.StringFixed(2)},
		{},
		{"category", "amount", "percentage"},
	}
	for _, c := range s.Categories {
		rows = append(rows, []string{c.Name, c.Amount.String(), c.Percentage.StringFixed(2)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Rows flattens s into spreadsheet rows: a header block then one row per category.
func Rows(s core.ReportSummary, generated string) [][]any {
	rows := [][]any{
		{"Report", string(s.Period), generated},
		{"Total Income", moneyCell(s.TotalIncome)},
		{"Total Expenses", moneyCell(s.TotalExpenses)},
		{"Net Savings", moneyCell(s.NetSavings)},
		{"Savings Rate", percentCell(s.SavingsRate)},
		{"Expense Ratio", percentCell(s.ExpenseRatio)},
	}
	for _, c := range s.Categories {
		rows = append(rows, []any{c.Name, moneyCell(c.Amount), percentCell(c.Percentage)})
	}
	return rows
}

func moneyCell(m core.Money) string { return m.String() }

func percentCell(d decimal.Decimal) string { return d.StringFixed(2) + "%" }

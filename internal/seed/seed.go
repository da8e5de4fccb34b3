// Package seed loads the sample ledger from a TOML document.
package seed

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"homebudget/assets"
	"homebudget/internal/core"
	"homebudget/internal/ledger"
)

type (
	File struct {
		Settings     Settings            `toml:"settings"`
		Transactions []TransactionRecord `toml:"transaction"`
		Budgets      []BudgetRecord      `toml:"budget"`
	}

	Settings struct {
		Notifications *bool `toml:"notifications"`
		BudgetAlerts  *bool `toml:"budget_alerts"`
	}

	TransactionRecord struct {
		ID          string `toml:"id"`
		Amount      string `toml:"amount"`
		Category    string `toml:"category"`
		Description string `toml:"description"`
		Kind        string `toml:"kind"`
		Date        string `toml:"date"`
		DaysAgo     int    `toml:"days_ago"`
	}

	BudgetRecord struct {
		ID        string `toml:"id"`
		Category  string `toml:"category"`
		Allocated string `toml:"allocated"`
		Spent     string `toml:"spent"`
		Color     string `toml:"color"`
	}
)

// Parse decodes a seed document and rejects unknown keys.
func Parse(r io.Reader) (*File, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode seed: unknown key %q", undecoded[0].String())
	}
	return &f, nil
}

// LoadFile reads the seed at path with the same checks as Parse.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Default returns the embedded sample ledger.
func Default() (*File, error) {
	return Parse(bytes.NewReader(assets.SeedTOML))
}

// Load returns the seed at path, or the embedded sample when path is empty.
func Load(path string) (*File, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Records converts the document into ledger records. Relative dates are
// resolved against today.
func (f *File) Records(today core.Date) ([]core.Transaction, []core.Budget, error) {
	txs := make([]core.Transaction, 0, len(f.Transactions))
	for i, r := range f.Transactions {
		date := r.Date
		if date == "" {
			date = today.AddDate(0, 0, -r.DaysAgo).Format(core.DateLayout)
		}
		t, err := core.NewTransaction(r.ID, core.TransactionInput{
			Amount:      r.Amount,
			Category:    r.Category,
			Description: r.Description,
			Date:        date,
			Kind:        r.Kind,
		}, today)
		if err != nil {
			return nil, nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, t)
	}

	budgets := make([]core.Budget, 0, len(f.Budgets))
	for i, r := range f.Budgets {
		b, err := core.NewBudget(r.ID, core.BudgetInput{Category: r.Category, Allocated: r.Allocated}, r.Color)
		if err != nil {
			return nil, nil, fmt.Errorf("budget %d: %w", i, err)
		}
		if r.Spent != "" {
			spent, err := core.ParseCents(r.Spent)
			if err != nil {
				return nil, nil, fmt.Errorf("budget %d: %w", i, &core.ValidationError{Field: "spent", Err: err})
			}
			b.Spent = core.Money{Cents: spent}
		}
		budgets = append(budgets, b)
	}
	return txs, budgets, nil
}

// Apply replaces the ledger contents with the document's records.
func (f *File) Apply(l *ledger.Ledger, now time.Time) error {
	txs, budgets, err := f.Records(core.DateOf(now))
	if err != nil {
		return err
	}
	return l.Load(txs, budgets)
}

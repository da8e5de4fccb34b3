package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// DateLayout is the ISO calendar form used on every external surface.
const DateLayout = "2006-01-02"

// DefaultCategory is assigned when a transaction is created without one.
const DefaultCategory = "Food"

// AllCategories disables the category filter.
const AllCategories = "All"

type (
	// Kind tells whether a transaction adds to or subtracts from the balance.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string `json:"id"`
		Amount      Money  `json:"amount"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Date        Date   `json:"date"`
		Kind        Kind   `json:"kind"`
	}

	Budget struct {
		ID        string `json:"id"`
		Category  string `json:"category"`
		Allocated Money  `json:"allocated"`
		Spent     Money  `json:"spent"`
		Color     string `json:"color"`
	}

	// TransactionInput is the raw, unvalidated form of a new transaction.
	// Amount and Date arrive as text from forms and JSON bodies alike.
	TransactionInput struct {
		Amount      string `json:"amount" toml:"amount"`
		Category    string `json:"category" toml:"category"`
		Description string `json:"description" toml:"description"`
		Date        string `json:"date,omitempty" toml:"date"`
		Kind        string `json:"kind,omitempty" toml:"kind"`
	}

	// BudgetInput is the raw form of a new budget.
	BudgetInput struct {
		Category  string `json:"category" toml:"category"`
		Allocated string `json:"allocated" toml:"allocated"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateCategory = errors.New("duplicate budget category")
	ErrNotFound          = errors.New("not found")
)

// NewDate returns the calendar day at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping the wall-clock date of t.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindExpense:
		return KindExpense, nil
	case KindIncome:
		return KindIncome, nil
	default:
		return "", ErrInvalidKind
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the invariants every stored transaction must satisfy.
func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if t.Kind != KindExpense && t.Kind != KindIncome {
		return &ValidationError{Field: "kind", Err: ErrInvalidKind}
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return nil
}

// NewTransaction validates in and builds a transaction with the given id.
// An empty date means today, an empty category means DefaultCategory and an
// empty kind means expense.
func NewTransaction(id string, in TransactionInput, today Date) (Transaction, error) {
	if strings.TrimSpace(in.Amount) == "" {
		return Transaction{}, &ValidationError{Field: "amount", Err: fmt.Errorf("%w: required", ErrInvalidAmount)}
	}
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "amount", Err: err}
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return Transaction{}, &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "kind", Err: err}
	}
	date := today
	if strings.TrimSpace(in.Date) != "" {
		if date, err = ParseDate(in.Date); err != nil {
			return Transaction{}, &ValidationError{Field: "date", Err: err}
		}
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = DefaultCategory
	}
	return Transaction{
		ID:          id,
		Amount:      Money{Cents: cents},
		Category:    category,
		Description: desc,
		Date:        date,
		Kind:        kind,
	}, nil
}

// NewBudget validates in and builds an empty budget with the given id and color.
func NewBudget(id string, in BudgetInput, color string) (Budget, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return Budget{}, &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if strings.TrimSpace(in.Allocated) == "" {
		return Budget{}, &ValidationError{Field: "allocated", Err: fmt.Errorf("%w: required", ErrInvalidAmount)}
	}
	cents, err := ParseDecimalToCents(in.Allocated)
	if err != nil {
		return Budget{}, &ValidationError{Field: "allocated", Err: err}
	}
	return Budget{
		ID:        id,
		Category:  category,
		Allocated: Money{Cents: cents},
		Color:     color,
	}, nil
}

// Signed returns the amount with the polarity implied by the kind.
func (t Transaction) Signed() int64 {
	if t.Kind == KindIncome {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

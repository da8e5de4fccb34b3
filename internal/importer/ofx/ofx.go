// Package ofx turns OFX/QFX bank and credit card statements into ledger
// transaction inputs.
package ofx

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"homebudget/internal/core"
	"homebudget/internal/log"
)

// Result is one parsed statement file.
type Result struct {
	Inputs   []core.TransactionInput
	Accounts []string
	Skipped  int // zero-amount entries
}

type rule struct {
	category string
	keywords []string
}

// Parser is stateless and safe for concurrent use.
type Parser struct {
	rules  []rule
	logger *log.Logger
}

// NewParser creates a parser that logs through logger, or the default
// logger when nil.
func NewParser(logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Parser{logger: logger.WithComponent(log.ComponentImport), rules: []rule{
		{"Food", []string{"STARBUCKS", "WHOLE FOODS", "GROCERY", "MARKET", "RESTAURANT", "CAFE", "BAKERY", "PIZZA"}},
		{"Transport", []string{"UBER", "LYFT", "TAXI", "TRANSIT", "SHELL", "CHEVRON", "PARKING", "AIRLINE"}},
		{"Bills", []string{"ELECTRIC", "UTILITY", "WATER", "INSURANCE", "INTERNET", "PHONE", "RENT", "CHECK #"}},
		{"Entertainment", []string{"NETFLIX", "SPOTIFY", "CINEMA", "THEATER", "STEAM", "HULU"}},
		{"Salary", []string{"PAYROLL", "SALARY", "DIRECT DEP"}},
	}}
}

var (
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)`)
	openTagRe  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocess fixes formatting mistakes common in bank exports.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n\ufeff")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRe.ReplaceAllString(content, "$1>")
}

// Parse reads a statement. Debits become expenses and credits become income.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read OFX: %w", err)
	}
	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(raw))))
	if err != nil {
		return nil, &core.ValidationError{Field: "file", Err: fmt.Errorf("parse OFX: %w", err)}
	}

	res := &Result{}
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			res.Accounts = append(res.Accounts, string(stmt.BankAcctFrom.AcctID))
			p.collect(res, stmt.BankTranList.Transactions)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			res.Accounts = append(res.Accounts, string(stmt.CCAcctFrom.AcctID))
			p.collect(res, stmt.BankTranList.Transactions)
		}
	}

	p.logger.InfoContext(ctx, "Parsed OFX statement",
		log.FieldOperation, log.OpImport,
		"accounts", len(res.Accounts),
		"transactions", len(res.Inputs),
		"skipped", res.Skipped)
	return res, nil
}

func (p *Parser) collect(res *Result, txs []ofxgo.Transaction) {
	for _, tx := range txs {
		in, ok := p.convert(tx)
		if !ok {
			res.Skipped++
			continue
		}
		res.Inputs = append(res.Inputs, in)
	}
}

func (p *Parser) convert(tx ofxgo.Transaction) (core.TransactionInput, bool) {
	amt, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
	if err != nil || amt.IsZero() {
		return core.TransactionInput{}, false
	}
	kind := core.KindIncome
	if amt.IsNegative() {
		kind = core.KindExpense
	}
	desc := description(tx)
	return core.TransactionInput{
		Amount:      amt.Abs().StringFixed(2),
		Category:    p.categorize(desc),
		Description: desc,
		Date:        tx.DtPosted.UTC().Format(core.DateLayout),
		Kind:        string(kind),
	}, true
}

func (p *Parser) categorize(desc string) string {
	upper := strings.ToUpper(desc)
	for _, r := range p.rules {
		for _, k := range r.keywords {
			if strings.Contains(upper, k) {
				return r.category
			}
		}
	}
	return "Other"
}

var cardPrefixes = []string{"POS PURCHASE ", "DEBIT CARD PURCHASE ", "ACH DEBIT ", "CHECK CARD ", "VISA PURCHASE "}

// description prefers the payee, then NAME, then MEMO for generic names.
func description(tx ofxgo.Transaction) string {
	if tx.Payee != nil && strings.TrimSpace(string(tx.Payee.Name)) != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (name == "" || strings.EqualFold(name, "DEBIT") || strings.EqualFold(name, "CREDIT")) {
		name = strings.TrimSpace(string(tx.Memo))
	}
	for _, prefix := range cardPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}
	if name == "" {
		name = string(tx.FiTID)
	}
	return name
}

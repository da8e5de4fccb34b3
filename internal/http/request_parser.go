// Package http serves the JSON API over the ledger service.
//
// This file reads request bodies and query strings into the domain input
// types. Bodies may be JSON or form-encoded.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"homebudget/internal/core"
	"homebudget/internal/report"
)

// maxBodyBytes bounds JSON and form bodies. Statement uploads use maxUploadBytes.
const (
	maxBodyBytes   = 64 << 10
	maxUploadBytes = 5 << 20
)

// ErrBodyTooLarge is returned when a body exceeds its limit.
var ErrBodyTooLarge = errors.New("request body too large")

// RequestBodyParser handles JSON and form-encoded bodies alike.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var maxErr *http.MaxBytesError
	if errors.As(p.err, &maxErr) {
		p.err = ErrBodyTooLarge
	}
	return p
}

// Parse decodes the body as JSON when it looks like JSON, else as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("invalid form body: %w", p.err)
	}
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Bool reads key as a boolean. Form checkboxes send "on".
func (p *RequestBodyParser) Bool(key string) (bool, error) {
	v := strings.ToLower(p.Get(key))
	if v == "on" {
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &core.ValidationError{Field: key, Err: fmt.Errorf("not a boolean: %q", v)}
	}
	return b, nil
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// TransactionInput extracts the fields of a new transaction.
func (p *RequestBodyParser) TransactionInput() core.TransactionInput {
	return core.TransactionInput{
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Date:        p.Get("date"),
		Kind:        p.Get("kind"),
	}
}

// BudgetInput extracts the fields of a new budget.
func (p *RequestBodyParser) BudgetInput() core.BudgetInput {
	return core.BudgetInput{
		Category:  p.Get("category"),
		Allocated: p.Get("allocated"),
	}
}

// stringValue renders JSON scalars as text. Numbers keep their JSON spelling.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// ReportParams holds the report query parameters.
type ReportParams struct {
	Period core.Period
	Format report.Format
}

// ParseReportParams reads period and format, defaulting to 3M and text.
func ParseReportParams(query url.Values) (ReportParams, error) {
	period, err := core.ParsePeriod(query.Get("period"))
	if err != nil {
		return ReportParams{}, err
	}
	format, err := report.ParseFormat(query.Get("format"))
	if err != nil {
		return ReportParams{}, err
	}
	return ReportParams{Period: period, Format: format}, nil
}

// FilterParams holds the transaction list filter.
type FilterParams struct {
	Query    string
	Category string
}

func ParseFilterParams(query url.Values) FilterParams {
	category := sanitizeInput(query.Get("category"))
	if category == "" {
		category = core.AllCategories
	}
	return FilterParams{
		Query:    sanitizeInput(query.Get("q")),
		Category: category,
	}
}

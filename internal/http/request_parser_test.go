package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"homebudget/internal/core"
	"homebudget/internal/report"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(httptest.NewRecorder(), req)
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, "application/json",
		`{"amount": 12.5, "description": "  Lunch\u0007 ", "category": "Food", "kind": "expense"}`)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Error("IsJSON() = false")
	}

	in := p.TransactionInput()
	want := core.TransactionInput{Amount: "12.5", Description: "Lunch", Category: "Food", Kind: "expense"}
	if in != want {
		t.Errorf("TransactionInput() = %+v, want %+v", in, want)
	}
	if p.Has("date") {
		t.Error("Has(date) = true for absent key")
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "category=Bills&allocated=300.00")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Error("IsJSON() = true for form body")
	}
	in := p.BudgetInput()
	if in.Category != "Bills" || in.Allocated != "300.00" {
		t.Errorf("BudgetInput() = %+v", in)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	p := newParser(t, "application/json", `{"amount":`)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	// Parse is memoized.
	if err := p.Parse(); err == nil {
		t.Fatal("second Parse() lost the error")
	}
}

func TestRequestBodyParser_Empty(t *testing.T) {
	p := newParser(t, "", "")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("anything"); got != "" {
		t.Errorf("Get() = %q, want empty", got)
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	p := newParser(t, "application/json", `{"description":"`+strings.Repeat("x", maxBodyBytes)+`"}`)
	if err := p.Parse(); err != ErrBodyTooLarge {
		t.Fatalf("Parse() error = %v, want ErrBodyTooLarge", err)
	}
}

func TestRequestBodyParser_Bool(t *testing.T) {
	tests := []struct {
		body    string
		want    bool
		wantErr bool
	}{
		{`{"flag": true}`, true, false},
		{`{"flag": false}`, false, false},
		{"flag=on", true, false},
		{"flag=0", false, false},
		{"flag=maybe", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			p := newParser(t, "", tt.body)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := p.Bool("flag")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Bool() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Bool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseReportParams(t *testing.T) {
	got, err := ParseReportParams(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Period != core.Period3M || got.Format != report.FormatText {
		t.Errorf("defaults = %+v", got)
	}

	got, err = ParseReportParams(url.Values{"period": {"1y"}, "format": {"CSV"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Period != core.Period1Y || got.Format != report.FormatCSV {
		t.Errorf("parsed = %+v", got)
	}

	if _, err := ParseReportParams(url.Values{"period": {"2W"}}); err == nil {
		t.Error("expected error for unknown period")
	}
	if _, err := ParseReportParams(url.Values{"format": {"pdf"}}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseFilterParams(t *testing.T) {
	got := ParseFilterParams(url.Values{"q": {" coffee "}})
	if got.Query != "coffee" || got.Category != core.AllCategories {
		t.Errorf("ParseFilterParams() = %+v", got)
	}
	got = ParseFilterParams(url.Values{"category": {"Food"}})
	if got.Category != "Food" {
		t.Errorf("Category = %q", got.Category)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"a\x00b\x1bc", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"del\x7f", "del"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

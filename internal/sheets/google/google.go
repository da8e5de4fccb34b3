package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"homebudget/internal/amqp"
	"homebudget/internal/core"
	"homebudget/internal/report"
	ports "homebudget/internal/sheets"
)

// Ensure interface conformance
var (
	_ ports.ReportExporter = (*Client)(nil)
	_ ports.AlertSink      = (*Client)(nil)
)

type Options struct {
	SpreadsheetID   string
	ReportSheet     string // base name, the current year is prefixed
	AlertSheet      string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	reportSheet   string
	alertSheet    string
	now           func() time.Time
}

// New creates a Sheets client authenticated with a service account.
// Inline JSON credentials win over the credentials file.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	year := time.Now().Year()
	reportBase := opts.ReportSheet
	if strings.TrimSpace(reportBase) == "" {
		reportBase = "Reports"
	}
	alertBase := opts.AlertSheet
	if strings.TrimSpace(alertBase) == "" {
		alertBase = "Alerts"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		reportSheet:   yearPrefixedName(reportBase, year),
		alertSheet:    yearPrefixedName(alertBase, year),
		now:           time.Now,
	}
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// Export appends the summary block to the report sheet and returns the
// updated range.
func (c *Client) Export(ctx context.Context, s core.ReportSummary) (string, error) {
	if s.Period == "" {
		return "", errors.New("report without period")
	}
	rows := report.Rows(s, c.now().UTC().Format(time.RFC3339))
	// Blank separator between successive exports.
	rows = append(rows, []any{})
	return c.append(ctx, c.reportSheet, rows)
}

// RecordAlert appends one row per alert to the alert sheet.
func (c *Client) RecordAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if msg == nil {
		return errors.New("nil alert")
	}
	_, err := c.append(ctx, c.alertSheet, [][]any{alertRow(msg)})
	return err
}

func alertRow(msg *amqp.BudgetAlertMessage) []any {
	return []any{
		msg.Timestamp.UTC().Format(time.RFC3339),
		msg.Category,
		string(msg.Tier),
		msg.Progress + "%",
		msg.Spent.String(),
		msg.Allocated.String(),
		msg.BudgetID,
	}
}

func (c *Client) append(ctx context.Context, sheet string, rows [][]any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1", sheet)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

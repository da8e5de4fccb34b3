package sheets

import (
	"context"

	"homebudget/internal/amqp"
	"homebudget/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter pushes a report summary somewhere durable.
	ReportExporter interface {
		Export(ctx context.Context, s core.ReportSummary) (ref string, err error)
	}

	// AlertSink records budget alerts consumed by the worker.
	AlertSink interface {
		RecordAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
	}
)

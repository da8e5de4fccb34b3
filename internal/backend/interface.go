package backend

import (
	"context"

	"homebudget/internal/amqp"
	"homebudget/internal/sheets"
)

// Backend is where reports are exported and consumed alerts are recorded.
type Backend interface {
	sheets.ReportExporter
	sheets.AlertSink
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function.
// AMQP is nil when no broker is configured or the broker was unreachable.
type BackendResult struct {
	Backend Backend
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"homebudget/internal/amqp"
	"homebudget/internal/core"
	ports "homebudget/internal/sheets"
)

var (
	_ ports.ReportExporter = (*Store)(nil)
	_ ports.AlertSink      = (*Store)(nil)
)

// Store keeps exported reports and alerts in process memory.
type Store struct {
	mu      sync.Mutex
	reports []core.ReportSummary
	alerts  []amqp.BudgetAlertMessage
}

func New() *Store {
	return &Store{}
}

// Export stores the summary and returns a synthetic reference.
func (s *Store) Export(_ context.Context, sum core.ReportSummary) (string, error) {
	if sum.Period == "" {
		return "", errors.New("report without period")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, sum)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

func (s *Store) RecordAlert(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	if msg == nil {
		return errors.New("nil alert")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, *msg)
	return nil
}

// Reports returns a copy of every exported summary, oldest first.
func (s *Store) Reports() []core.ReportSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ReportSummary(nil), s.reports...)
}

func (s *Store) Alerts() []amqp.BudgetAlertMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]amqp.BudgetAlertMessage(nil), s.alerts...)
}

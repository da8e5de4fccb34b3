package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"homebudget/internal/amqp"
	"homebudget/internal/core"
	"homebudget/internal/ledger"
	"homebudget/internal/log"
	"homebudget/internal/metrics"
)

// Publisher is the outbound side of the message broker.
type Publisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// Preferences are the runtime settings toggles.
type Preferences struct {
	Notifications bool `json:"notifications"`
	BudgetAlerts  bool `json:"budgetAlerts"`
}

func DefaultPreferences() Preferences {
	return Preferences{Notifications: true, BudgetAlerts: true}
}

// LedgerService orchestrates ledger mutations with logging, metrics and
// event publishing. Publishing never fails a mutation.
type LedgerService struct {
	ledger    *ledger.Ledger
	publisher Publisher
	logger    *log.Logger
	events    *log.StructuredLogger

	mu    sync.RWMutex
	prefs Preferences
}

// NewLedgerService wires l to publisher. A nil publisher disables
// publishing; a nil logger falls back to the default slog logger.
func NewLedgerService(l *ledger.Ledger, publisher Publisher, logger *log.Logger, prefs Preferences) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	s := &LedgerService{
		ledger:    l,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		prefs:     prefs,
	}
	s.updateGauges()
	return s
}

func (s *LedgerService) Ledger() *ledger.Ledger { return s.ledger }

// AddTransaction records a transaction and, with linked spending, alerts on
// any tier escalation of the matching budget.
func (s *LedgerService) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = core.DefaultCategory
	}
	before, tracked := s.statusFor(category)

	t, err := s.ledger.AddTransaction(in)
	metrics.LedgerMutations.WithLabelValues("transaction", log.OpCreate, metrics.Outcome(err)).Inc()
	if err != nil {
		s.events.LogError(ctx, "Transaction rejected", err, errorType(err), log.OpCreate, nil)
		return core.Transaction{}, err
	}

	s.events.LogTransactionCreated(ctx, t.ID, t.Category, string(t.Kind), t.Amount.Cents)
	s.updateGauges()
	s.publishEvent(ctx, amqp.ActionTransactionAdded, t.ID, t.Category)

	if tracked && s.ledger.LinkedSpending() && t.Kind == core.KindExpense {
		if after, ok := s.statusFor(t.Category); ok && after.Tier.Rank() > before.Tier.Rank() {
			s.alert(ctx, after)
		}
	}
	return t, nil
}

// DeleteTransaction removes a transaction; missing ids are ignored.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) bool {
	removed := s.ledger.DeleteTransaction(id)
	s.events.LogDeleted(ctx, log.FieldTransactionID, id, removed)
	if removed {
		metrics.LedgerMutations.WithLabelValues("transaction", log.OpDelete, "ok").Inc()
		s.updateGauges()
		s.publishEvent(ctx, amqp.ActionTransactionDeleted, id, "")
	}
	return removed
}

// AddBudget creates a budget. A budget that starts beyond the warning
// threshold (possible with linked spending) alerts immediately.
func (s *LedgerService) AddBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
	b, err := s.ledger.AddBudget(in)
	metrics.LedgerMutations.WithLabelValues("budget", log.OpCreate, metrics.Outcome(err)).Inc()
	if err != nil {
		s.events.LogError(ctx, "Budget rejected", err, errorType(err), log.OpCreate, nil)
		return core.Budget{}, err
	}

	s.events.LogBudgetCreated(ctx, b.ID, b.Category, b.Allocated.Cents)
	s.updateGauges()
	s.publishEvent(ctx, amqp.ActionBudgetAdded, b.ID, b.Category)

	if status := core.StatusOf(b); status.Tier != core.TierOnTrack {
		s.alert(ctx, status)
	}
	return b, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id string) bool {
	removed := s.ledger.DeleteBudget(id)
	s.events.LogDeleted(ctx, log.FieldBudgetID, id, removed)
	if removed {
		metrics.LedgerMutations.WithLabelValues("budget", log.OpDelete, "ok").Inc()
		s.updateGauges()
		s.publishEvent(ctx, amqp.ActionBudgetDeleted, id, "")
	}
	return removed
}

// ImportTransactions adds every input and returns how many were accepted.
// Rejected inputs are reported together; accepted ones stay in the ledger.
func (s *LedgerService) ImportTransactions(ctx context.Context, inputs []core.TransactionInput) (int, error) {
	var (
		added int
		errs  []error
	)
	for i, in := range inputs {
		if _, err := s.AddTransaction(ctx, in); err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, in.Description, err))
			continue
		}
		added++
	}
	metrics.TransactionsImported.Add(float64(added))
	s.logger.InfoContext(ctx, "Statement imported",
		log.FieldOperation, log.OpImport,
		"added", added,
		"rejected", len(errs))
	return added, errors.Join(errs...)
}

// ScanBudgets publishes an alert for every budget at warning or over. It is
// an explicit request, so the preference toggle does not apply.
func (s *LedgerService) ScanBudgets(ctx context.Context) []core.BudgetStatus {
	var flagged []core.BudgetStatus
	for _, st := range s.ledger.BudgetStatuses() {
		if st.Tier == core.TierOnTrack {
			continue
		}
		flagged = append(flagged, st)
		s.publishAlert(ctx, st)
	}
	s.logger.InfoContext(ctx, "Budget scan finished", "flagged", len(flagged))
	return flagged
}

func (s *LedgerService) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

func (s *LedgerService) UpdatePreferences(ctx context.Context, p Preferences) Preferences {
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Preferences updated", "notifications", p.Notifications, "budget_alerts", p.BudgetAlerts)
	return p
}

// alertsEnabled requires both the master notification switch and the
// budget alert toggle.
func (s *LedgerService) alertsEnabled() bool {
	p := s.Preferences()
	return p.Notifications && p.BudgetAlerts
}

func (s *LedgerService) alert(ctx context.Context, st core.BudgetStatus) {
	if !s.alertsEnabled() {
		s.logger.DebugContext(ctx, "Budget alert suppressed by preferences", log.FieldCategory, st.Category, log.FieldTier, st.Tier)
		return
	}
	s.publishAlert(ctx, st)
}

func (s *LedgerService) publishAlert(ctx context.Context, st core.BudgetStatus) {
	s.logger.WarnContext(ctx, "Budget threshold reached",
		log.FieldBudgetID, st.ID,
		log.FieldCategory, st.Category,
		log.FieldTier, st.Tier,
		"progress", st.Progress.StringFixed(2))

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping budget alert")
		metrics.BudgetAlerts.WithLabelValues(string(st.Tier), "skipped").Inc()
		return
	}
	err := s.publisher.PublishBudgetAlert(ctx, amqp.NewBudgetAlertMessage(st))
	metrics.BudgetAlerts.WithLabelValues(string(st.Tier), metrics.Outcome(err)).Inc()
	if err != nil {
		s.events.LogError(ctx, "Failed to publish budget alert", err, log.ErrorTypeNetwork, log.OpPublish,
			log.NewFields().WithBudget(st.ID, st.Category, st.Allocated.Cents))
	}
}

func (s *LedgerService) publishEvent(ctx context.Context, action, id, category string) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerEventMessage(action, id, category, s.ledger.Version())
	if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event", log.FieldError, err.Error(), "action", action, "id", id)
	}
}

func (s *LedgerService) statusFor(category string) (core.BudgetStatus, bool) {
	b, ok := s.ledger.BudgetByCategory(category)
	if !ok {
		return core.BudgetStatus{}, false
	}
	return core.StatusOf(b), true
}

func (s *LedgerService) updateGauges() {
	metrics.LedgerTransactions.Set(float64(len(s.ledger.ListTransactions())))
	metrics.LedgerBudgets.Set(float64(len(s.ledger.ListBudgets())))
}

// Close releases the publisher if it holds resources.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}

func errorType(err error) string {
	if core.IsUserError(err) {
		return log.ErrorTypeValidation
	}
	return log.ErrorTypeInternal
}

package worker

import (
	"context"
	"fmt"
	"time"

	"homebudget/internal/amqp"
	"homebudget/internal/cache"
	"homebudget/internal/log"
	"homebudget/internal/metrics"
	"homebudget/internal/sheets"
)

// Consumer delivers budget alerts until ctx is cancelled.
type Consumer interface {
	ConsumeBudgetAlerts(ctx context.Context, handler func(context.Context, *amqp.BudgetAlertMessage) error) error
}

// AlertWorker records consumed budget alerts in a sink. Repeats of the same
// budget and tier inside the dedupe window are acknowledged but not recorded.
type AlertWorker struct {
	sink   sheets.AlertSink
	seen   *cache.LRUCache[time.Time]
	logger *log.Logger
}

const (
	dedupeEntries = 256
	DefaultDedupe = 10 * time.Minute
)

// NewAlertWorker creates a worker. A zero window disables deduplication.
func NewAlertWorker(sink sheets.AlertSink, window time.Duration, logger *log.Logger) *AlertWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	w := &AlertWorker{sink: sink, logger: logger.WithComponent(log.ComponentWorker)}
	if window > 0 {
		w.seen = cache.NewLRUCache[time.Time](dedupeEntries, window)
	}
	return w
}

// Dedupe exposes the dedupe cache so it can be registered for cleanup.
func (w *AlertWorker) Dedupe() cache.Cleaner {
	if w.seen == nil {
		return nil
	}
	return w.seen
}

// HandleBudgetAlert processes a single alert. A returned error requeues it.
func (w *AlertWorker) HandleBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	key := msg.BudgetID + "|" + string(msg.Tier)
	if msg.BudgetID == "" {
		key = msg.Category + "|" + string(msg.Tier)
	}
	if w.seen != nil {
		if first, ok := w.seen.Get(key); ok {
			w.logger.DebugContext(ctx, "Duplicate budget alert skipped",
				log.FieldCategory, msg.Category,
				log.FieldTier, msg.Tier,
				"first_seen", first)
			metrics.AlertsConsumed.WithLabelValues("duplicate").Inc()
			return nil
		}
	}

	if err := w.sink.RecordAlert(ctx, msg); err != nil {
		metrics.AlertsConsumed.WithLabelValues("error").Inc()
		return fmt.Errorf("record alert: %w", err)
	}
	if w.seen != nil {
		w.seen.Set(key, time.Now())
	}

	metrics.AlertsConsumed.WithLabelValues("ok").Inc()
	w.logger.InfoContext(ctx, "Budget alert recorded",
		log.FieldBudgetID, msg.BudgetID,
		log.FieldCategory, msg.Category,
		log.FieldTier, msg.Tier,
		"progress", msg.Progress)
	return nil
}

// Run consumes until ctx is cancelled. Cancellation is a clean stop.
func (w *AlertWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Alert worker started", log.FieldOperation, log.OpConsume)
	err := consumer.ConsumeBudgetAlerts(ctx, w.HandleBudgetAlert)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Alert worker stopped", log.FieldOperation, log.OpShutdown)
		return nil
	}
	return err
}

// LogSink records alerts in the structured log only.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger.WithComponent(log.ComponentAlerts)}
}

func (s *LogSink) RecordAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	s.logger.WarnContext(ctx, "Budget alert",
		log.FieldBudgetID, msg.BudgetID,
		log.FieldCategory, msg.Category,
		log.FieldTier, msg.Tier,
		"progress", msg.Progress,
		"spent", msg.Spent.String(),
		"allocated", msg.Allocated.String())
	return nil
}

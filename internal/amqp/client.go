package amqp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second

	// RoutingKeyLedgerEvent routes mutation events. Nothing is bound to it by
	// default; downstream consumers declare their own queues.
	RoutingKeyLedgerEvent = "ledger.event"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string
	dial         dialFunc

	// dialMu serializes redials so concurrent callers share one new session.
	dialMu sync.Mutex

	mu      sync.Mutex
	conn    io.Closer
	channel channel
	closed  bool

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// channel is the part of *amqp091.Channel the client uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	IsClosed() bool
	Close() error
}

type dialFunc func(url, exchange, queue string) (io.Closer, channel, error)

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	return newClient(url, exchangeName, queueName, dialBroker)
}

func newClient(url, exchangeName, queueName string, dial dialFunc) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		dial:         dial,
	}
	if _, err := c.reconnect(nil); err != nil {
		return nil, err
	}
	return c, nil
}

func dialBroker(url, exchange, queue string) (io.Closer, channel, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setup(ch, exchange, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return conn, ch, nil
}

// reconnect replaces the session whose channel is stale and closes it.
// When another caller has already replaced stale with a live channel, that
// channel is returned without dialing.
func (c *Client) reconnect(stale channel) (channel, error) {
	c.dialMu.Lock()
	defer c.dialMu.Unlock()

	c.mu.Lock()
	cur, closed := c.channel, c.closed
	c.mu.Unlock()
	if closed {
		return nil, amqp091.ErrClosed
	}
	if cur != nil && cur != stale && !cur.IsClosed() {
		return cur, nil
	}

	dial := c.dial
	if dial == nil {
		dial = dialBroker
	}
	conn, ch, err := dial(c.url, c.exchangeName, c.queueName)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		closeSession(conn, ch)
		return nil, amqp091.ErrClosed
	}
	oldConn, oldCh := c.conn, c.channel
	c.conn, c.channel = conn, ch
	c.mu.Unlock()

	closeSession(oldConn, oldCh)
	return ch, nil
}

func closeSession(conn io.Closer, ch channel) error {
	if ch != nil {
		ch.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// Routing key equals the queue name on a direct exchange.
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishBudgetAlert sends an alert to the alert queue.
func (c *Client) PublishBudgetAlert(ctx context.Context, msg *BudgetAlertMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queueName, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published budget alert",
		"budget_id", msg.BudgetID,
		"category", msg.Category,
		"tier", msg.Tier,
		"exchange", c.exchangeName)
	return nil
}

// PublishLedgerEvent announces a ledger mutation on the exchange.
func (c *Client) PublishLedgerEvent(ctx context.Context, msg *LedgerEventMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, RoutingKeyLedgerEvent, body); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Published ledger event", "action", msg.Action, "id", msg.ID, "version", msg.Version)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: %w", routingKey, ErrCircuitOpen)
	}

	ch, err := c.currentChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(pctx, c.exchangeName, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropChannel(ch)
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	return nil
}

// currentChannel returns the open channel, redialing once if it was lost.
func (c *Client) currentChannel() (channel, error) {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch != nil && !ch.IsClosed() {
		return ch, nil
	}
	return c.reconnect(ch)
}

// dropChannel closes the session ch belongs to, unless it was already replaced.
func (c *Client) dropChannel(ch channel) {
	c.mu.Lock()
	if c.channel != ch {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn, c.channel = nil, nil
	c.mu.Unlock()
	closeSession(conn, ch)
}

// ConsumeBudgetAlerts delivers alerts to handler until ctx is cancelled.
// Lost connections are re-established with exponential backoff.
func (c *Client) ConsumeBudgetAlerts(ctx context.Context, handler func(context.Context, *BudgetAlertMessage) error) error {
	attempt := 0
	for {
		ch, err := c.currentChannel()
		if err == nil {
			err = c.consumeOnce(ctx, ch, handler, func() { attempt = 0 })
		}
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}
		if c.isClosed() {
			return amqp091.ErrClosed
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP consumer lost connection, reconnecting", "error", err, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if _, err := c.reconnect(ch); err != nil {
			slog.WarnContext(ctx, "AMQP reconnect failed", "error", err, "attempt", attempt)
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, ch channel, handler func(context.Context, *BudgetAlertMessage) error, started func()) error {
	msgs, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	started()
	slog.InfoContext(ctx, "Started consuming budget alerts", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("connection closed: delivery channel closed")
			}
			process(ctx, delivery.Body, delivery, handler)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// process acks handled alerts, drops malformed ones and requeues handler
// failures.
func process(ctx context.Context, body []byte, ack acknowledger, handler func(context.Context, *BudgetAlertMessage) error) {
	msg, err := BudgetAlertMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		ack.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle budget alert", "error", err, "category", msg.Category, "tier", msg.Tier)
		ack.Nack(false, true)
		return
	}

	ack.Ack(false)
	slog.DebugContext(ctx, "Processed budget alert", "category", msg.Category, "tier", msg.Tier)
}

// Close releases the session. It is safe to call more than once, and no
// reconnect happens afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, ch := c.conn, c.channel
	c.conn, c.channel, c.closed = nil, nil, true
	c.mu.Unlock()
	return closeSession(conn, ch)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		c.mu.Lock()
		c.lastFailure = time.Now()
		c.mu.Unlock()
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// isCircuitOpen moves an expired open circuit to half-open so one publish
// can probe the broker.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	return min(d, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

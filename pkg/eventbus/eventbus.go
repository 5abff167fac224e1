// Package eventbus implements the priority-scheduled event dispatch
// pipeline: fan-out with mixed subscriber criticality, bounded
// per-attempt execution time, exponential-backoff retry, and a
// dead-letter register for persistent non-critical failures.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
	"github.com/plaenen/usercqrs/pkg/observability"
)

// attemptTimeout bounds every single delivery attempt, independent of
// how many retries remain in the schedule.
const attemptTimeout = 30 * time.Second

// EventBus owns a sequence of subscribers and fans out published
// events to them according to each subscriber's Priority.
type EventBus struct {
	mu          sync.Mutex
	subscribers []Subscriber
	poisoned    bool

	retryPolicy RetryPolicy
	deadLetters DeadLetterRecorder
	metrics     *observability.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option configures an EventBus.
type Option func(*EventBus)

// WithRetryPolicy overrides the default retry schedule for every
// subscriber that doesn't implement RetryableSubscriber.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(b *EventBus) { b.retryPolicy = policy }
}

// WithDeadLetterRecorder wires the dead-letter register a non-critical
// subscriber's exhausted failures are recorded into.
func WithDeadLetterRecorder(recorder DeadLetterRecorder) Option {
	return func(b *EventBus) { b.deadLetters = recorder }
}

// WithMetrics wires the metrics registry delivery outcomes are recorded to.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(b *EventBus) { b.metrics = metrics }
}

// WithLogger sets the logger used for the bus's logging contract.
func WithLogger(logger *slog.Logger) Option {
	return func(b *EventBus) { b.logger = logger }
}

// WithTracer attaches an OpenTelemetry tracer; each delivery attempt is
// then wrapped in an "eventbus.deliver" span that carries the
// subscriber's name as an attribute.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *EventBus) { b.tracer = tracer }
}

// New constructs an EventBus with no subscribers.
func New(opts ...Option) *EventBus {
	b := &EventBus{
		retryPolicy: DefaultRetryPolicy(),
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer("usercqrs/eventbus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber. Subscribing while a publish is in
// flight does not deliver the in-flight event to the new subscriber,
// since Publish snapshots the list at the start of each call.
func (b *EventBus) Subscribe(sub Subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.mu.Lock()
			b.poisoned = true
			b.mu.Unlock()
			err = fmt.Errorf("subscriber list lock poisoned while subscribing: %v", r)
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.poisoned {
		return ErrLockPoisoned
	}
	b.subscribers = append(b.subscribers, sub)
	return nil
}

// snapshot clones the subscriber list under lock.
func (b *EventBus) snapshot() ([]Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.poisoned {
		return nil, ErrLockPoisoned
	}
	out := make([]Subscriber, len(b.subscribers))
	copy(out, b.subscribers)
	return out, nil
}

// Publish delivers event to every subscriber, partitioned by Priority:
// Critical subscribers run sequentially inline and block the caller;
// if one fails or times out, Publish aborts immediately with a
// *CriticalHandlerError. High and Normal subscribers run concurrently
// and are awaited; their exhausted failures are collected and returned
// as []HandlerError without failing the publish. Low subscribers are
// spawned and never awaited; their failures are logged and recorded to
// the dead-letter register but never surface here.
func (b *EventBus) Publish(ctx context.Context, event eventsourcing.Event) ([]HandlerError, error) {
	subs, err := b.snapshot()
	if err != nil {
		return nil, err
	}

	var critical, high, normal, low []Subscriber
	for _, sub := range subs {
		switch sub.Priority() {
		case PriorityCritical:
			critical = append(critical, sub)
		case PriorityHigh:
			high = append(high, sub)
		case PriorityNormal:
			normal = append(normal, sub)
		default:
			low = append(low, sub)
		}
	}

	for _, sub := range critical {
		duration, err := b.invokeOnce(ctx, sub, event)
		b.recordAttempt(ctx, sub, PriorityCritical, 1, duration, outcomeFor(err))
		if err != nil {
			b.logger.ErrorContext(ctx, "critical subscriber failed",
				slog.String("subscriber", sub.Name()),
				slog.String("event_type", event.EventType),
				slog.String("error", err.Error()))
			return nil, &CriticalHandlerError{HandlerError{
				SubscriberName: sub.Name(),
				Message:        err.Error(),
				Critical:       true,
			}}
		}
		b.logger.DebugContext(ctx, "critical subscriber succeeded",
			slog.String("subscriber", sub.Name()),
			slog.Duration("elapsed", duration))
	}

	var mu sync.Mutex
	var handlerErrors []HandlerError

	g, gctx := errgroup.WithContext(ctx)
	_ = gctx // each subscriber retries against the original ctx, not the group's
	for _, sub := range append(append([]Subscriber{}, high...), normal...) {
		sub := sub
		g.Go(func() error {
			if herr := b.runWithRetry(ctx, sub, event, false); herr != nil {
				mu.Lock()
				handlerErrors = append(handlerErrors, *herr)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, sub := range low {
		sub := sub
		go func() {
			b.runWithRetry(context.Background(), sub, event, true)
		}()
	}

	return handlerErrors, nil
}

// runWithRetry drives the retry state machine for one non-critical
// subscriber. lowPriority suppresses returning a HandlerError, since
// Low failures never surface in Publish's return value.
func (b *EventBus) runWithRetry(ctx context.Context, sub Subscriber, event eventsourcing.Event, lowPriority bool) *HandlerError {
	policy := b.retryPolicy
	if rs, ok := sub.(RetryableSubscriber); ok {
		policy = rs.RetryPolicy()
	}

	priority := sub.Priority()
	maxAttempts := policy.MaxRetries + 1

	var lastErr error
	var timedOut bool

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		duration, err := b.invokeOnce(ctx, sub, event)
		timedOut = isDeadlineExceeded(err)

		if err == nil {
			outcome := "success"
			if attempt > 1 {
				outcome = "retry-success"
			}
			b.recordAttempt(ctx, sub, priority, attempt, duration, outcome)
			b.logger.DebugContext(ctx, "subscriber succeeded",
				slog.String("subscriber", sub.Name()),
				slog.Int("attempt", attempt),
				slog.Duration("elapsed", duration))
			return nil
		}

		lastErr = err
		attemptsLeft := attempt < maxAttempts

		switch {
		case attemptsLeft:
			b.recordAttempt(ctx, sub, priority, attempt, duration, "retry")
		case timedOut:
			b.recordAttempt(ctx, sub, priority, attempt, duration, "timeout")
		case attempt > 1:
			b.recordAttempt(ctx, sub, priority, attempt, duration, "retry-failure")
		default:
			b.recordAttempt(ctx, sub, priority, attempt, duration, "failure")
		}

		logLevel := slog.LevelWarn
		if timedOut {
			logLevel = slog.LevelError
		}
		b.logger.Log(ctx, logLevel, "subscriber attempt failed",
			slog.String("subscriber", sub.Name()),
			slog.Int("attempt", attempt),
			slog.Bool("timeout", timedOut),
			slog.String("error", err.Error()))

		if !attemptsLeft {
			break
		}
		time.Sleep(policy.delayForAttempt(attempt))
	}

	if b.deadLetters != nil {
		b.deadLetters.RecordFailure(event.AggregateID, event, lastErr.Error())
	}
	if b.metrics != nil {
		b.metrics.RecordDeadLetter(ctx, sub.Name())
	}
	b.logger.ErrorContext(ctx, "subscriber exhausted retries, routed to dead-letter register",
		slog.String("subscriber", sub.Name()),
		slog.String("event_type", event.EventType))

	if lowPriority {
		return nil
	}
	return &HandlerError{
		SubscriberName: sub.Name(),
		Message:        lastErr.Error(),
		Critical:       false,
	}
}

// invokeOnce calls sub.Handle with a fresh per-attempt timeout. The
// call runs on its own goroutine and is raced against attemptCtx so a
// subscriber that ignores the context still yields control back to
// the retry loop at attemptTimeout; if Handle never returns, that
// goroutine is leaked rather than the caller blocking on it. A panic
// inside Handle is recovered and reported as an ordinary failure.
func (b *EventBus) invokeOnce(ctx context.Context, sub Subscriber, event eventsourcing.Event) (duration time.Duration, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	attemptCtx, span := observability.StartSpan(attemptCtx, b.tracer, "eventbus.deliver",
		observability.WithAttributes(append(
			observability.EventAttrs(event.EventType, ""),
			attribute.String("subscriber.name", sub.Name()),
			attribute.String("aggregate.id", event.AggregateID),
		)...))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("subscriber panicked: %v", r)
			}
		}()
		done <- sub.Handle(attemptCtx, event)
	}()

	select {
	case err = <-done:
		duration = time.Since(start)
		return duration, err
	case <-attemptCtx.Done():
		duration = time.Since(start)
		return duration, attemptCtx.Err()
	}
}

func isDeadlineExceeded(err error) bool {
	return err == context.DeadlineExceeded
}

func outcomeFor(err error) string {
	if err == nil {
		return "success"
	}
	if isDeadlineExceeded(err) {
		return "timeout"
	}
	return "failure"
}

func (b *EventBus) recordAttempt(ctx context.Context, sub Subscriber, priority Priority, attempt int, duration time.Duration, outcome string) {
	if b.metrics == nil {
		return
	}
	b.metrics.RecordSubscriberAttempt(ctx, sub.Name(), priority.String(), attempt, duration, outcome)
}

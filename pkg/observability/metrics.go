package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds every metric instrument this service emits.
type Metrics struct {
	// Command metrics
	CommandDuration metric.Float64Histogram
	CommandTotal    metric.Int64Counter
	CommandErrors   metric.Int64Counter

	// Event store metrics
	EventsAppended    metric.Int64Counter
	EventStoreLatency metric.Float64Histogram

	// Repository metrics
	RepositorySaves metric.Int64Counter
	RepositoryLoads metric.Int64Counter

	// Event bus metrics
	EventsPublished          metric.Int64Counter
	SubscriberDuration       metric.Float64Histogram
	SubscriberSuccesses      metric.Int64Counter
	SubscriberRetries        metric.Int64Counter
	SubscriberRetrySuccesses metric.Int64Counter
	SubscriberTimeouts       metric.Int64Counter
	SubscriberFailures       metric.Int64Counter
	SubscriberRetryFailures  metric.Int64Counter
	DeadLetterEvents         metric.Int64Counter

	// Projection metrics
	ProjectionLag    metric.Float64Gauge
	ProjectionErrors metric.Int64Counter
}

// NewMetrics creates every metric instrument.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.CommandDuration, err = meter.Float64Histogram(
		"usercqrs.command.duration",
		metric.WithDescription("Command execution duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating command.duration: %w", err)
	}

	if m.CommandTotal, err = meter.Int64Counter(
		"usercqrs.command.total",
		metric.WithDescription("Total commands executed"),
	); err != nil {
		return nil, fmt.Errorf("creating command.total: %w", err)
	}

	if m.CommandErrors, err = meter.Int64Counter(
		"usercqrs.command.errors",
		metric.WithDescription("Total command errors"),
	); err != nil {
		return nil, fmt.Errorf("creating command.errors: %w", err)
	}

	if m.EventsAppended, err = meter.Int64Counter(
		"usercqrs.events.appended",
		metric.WithDescription("Total events appended to the event store"),
	); err != nil {
		return nil, fmt.Errorf("creating events.appended: %w", err)
	}

	if m.EventStoreLatency, err = meter.Float64Histogram(
		"usercqrs.eventstore.latency",
		metric.WithDescription("Event store operation latency in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating eventstore.latency: %w", err)
	}

	if m.RepositorySaves, err = meter.Int64Counter(
		"usercqrs.repository.saves",
		metric.WithDescription("Total repository save operations"),
	); err != nil {
		return nil, fmt.Errorf("creating repository.saves: %w", err)
	}

	if m.RepositoryLoads, err = meter.Int64Counter(
		"usercqrs.repository.loads",
		metric.WithDescription("Total repository load operations"),
	); err != nil {
		return nil, fmt.Errorf("creating repository.loads: %w", err)
	}

	if m.EventsPublished, err = meter.Int64Counter(
		"usercqrs.eventbus.published",
		metric.WithDescription("Total events published to the event bus"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.published: %w", err)
	}

	if m.SubscriberDuration, err = meter.Float64Histogram(
		"usercqrs.eventbus.subscriber.duration",
		metric.WithDescription("Subscriber handling duration per delivery attempt, in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.subscriber.duration: %w", err)
	}

	if m.SubscriberSuccesses, err = meter.Int64Counter(
		"usercqrs.eventbus.subscriber.successes",
		metric.WithDescription("Total subscriber deliveries that succeeded on the first attempt"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.subscriber.successes: %w", err)
	}

	if m.SubscriberRetries, err = meter.Int64Counter(
		"usercqrs.eventbus.subscriber.retries",
		metric.WithDescription("Total subscriber delivery attempts that failed with retries remaining"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.subscriber.retries: %w", err)
	}

	if m.SubscriberRetrySuccesses, err = meter.Int64Counter(
		"usercqrs.eventbus.subscriber.retry_successes",
		metric.WithDescription("Total subscriber deliveries that succeeded after at least one retry"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.subscriber.retry_successes: %w", err)
	}

	if m.SubscriberTimeouts, err = meter.Int64Counter(
		"usercqrs.eventbus.subscriber.timeouts",
		metric.WithDescription("Total subscriber delivery attempts that timed out with no attempts remaining"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.subscriber.timeouts: %w", err)
	}

	if m.SubscriberFailures, err = meter.Int64Counter(
		"usercqrs.eventbus.subscriber.failures",
		metric.WithDescription("Total subscriber deliveries that failed outright, with no retries configured"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.subscriber.failures: %w", err)
	}

	if m.SubscriberRetryFailures, err = meter.Int64Counter(
		"usercqrs.eventbus.subscriber.retry_failures",
		metric.WithDescription("Total subscriber deliveries that exhausted every retry"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.subscriber.retry_failures: %w", err)
	}

	if m.DeadLetterEvents, err = meter.Int64Counter(
		"usercqrs.eventbus.dlq.events",
		metric.WithDescription("Total events routed to the dead-letter queue"),
	); err != nil {
		return nil, fmt.Errorf("creating eventbus.dlq.events: %w", err)
	}

	if m.ProjectionLag, err = meter.Float64Gauge(
		"usercqrs.projection.lag",
		metric.WithDescription("Projection lag in seconds behind the event stream"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating projection.lag: %w", err)
	}

	if m.ProjectionErrors, err = meter.Int64Counter(
		"usercqrs.projection.errors",
		metric.WithDescription("Projection processing errors"),
	); err != nil {
		return nil, fmt.Errorf("creating projection.errors: %w", err)
	}

	return m, nil
}

// RecordCommand records command execution metrics.
func (m *Metrics) RecordCommand(ctx context.Context, commandType string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("command_type", commandType)}

	m.CommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.CommandTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil {
		errAttrs := append(attrs, attribute.String("error_type", fmt.Sprintf("%T", err)))
		m.CommandErrors.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
}

// RecordEventStoreAppend records an event store append operation.
func (m *Metrics) RecordEventStoreAppend(ctx context.Context, duration time.Duration, eventCount int) {
	m.EventStoreLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("operation", "append")))
	m.EventsAppended.Add(ctx, int64(eventCount))
}

// RecordRepositoryOperation records a repository save or load.
func (m *Metrics) RecordRepositoryOperation(ctx context.Context, operation, aggregateType string) {
	attrs := []attribute.KeyValue{attribute.String("aggregate_type", aggregateType)}

	switch operation {
	case "save":
		m.RepositorySaves.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "load":
		m.RepositoryLoads.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordSubscriberAttempt records the outcome of a single delivery
// attempt to one subscriber, at the given priority. outcome is one of
// the six taxonomy values runWithRetry assigns: "success", "failure",
// "timeout", "retry", "retry-success", "retry-failure".
func (m *Metrics) RecordSubscriberAttempt(ctx context.Context, subscriberName, priority string, attempt int, duration time.Duration, outcome string) {
	attrs := []attribute.KeyValue{
		attribute.String("subscriber", subscriberName),
		attribute.String("priority", priority),
		attribute.Int("attempt", attempt),
	}

	m.SubscriberDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	switch outcome {
	case "success":
		m.SubscriberSuccesses.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "retry-success":
		m.SubscriberRetrySuccesses.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "timeout":
		m.SubscriberTimeouts.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "retry":
		m.SubscriberRetries.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "failure":
		m.SubscriberFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "retry-failure":
		m.SubscriberRetryFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordDeadLetter records an event being routed to the dead-letter queue.
func (m *Metrics) RecordDeadLetter(ctx context.Context, subscriberName string) {
	m.DeadLetterEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("subscriber", subscriberName)))
}

// RecordProjectionLag records how far behind a projection is.
func (m *Metrics) RecordProjectionLag(ctx context.Context, projectionName string, lagSeconds float64) {
	m.ProjectionLag.Record(ctx, lagSeconds, metric.WithAttributes(attribute.String("projection", projectionName)))
}

// RecordProjectionError records a projection processing error.
func (m *Metrics) RecordProjectionError(ctx context.Context, projectionName, errorType string) {
	m.ProjectionErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("projection", projectionName),
		attribute.String("error_type", errorType),
	))
}

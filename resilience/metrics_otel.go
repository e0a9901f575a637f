package resilience

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/itsneelabh/pizzeria/resilience"

// OTelMetricsCollector implements MetricsCollector with OpenTelemetry counters.
// It uses the global MeterProvider, so it is a no-op until one is installed.
type OTelMetricsCollector struct {
	successes    metric.Int64Counter
	failures     metric.Int64Counter
	rejections   metric.Int64Counter
	stateChanges metric.Int64Counter
}

// NewOTelMetricsCollector creates the instruments on the global meter provider
func NewOTelMetricsCollector() (*OTelMetricsCollector, error) {
	return NewOTelMetricsCollectorWithProvider(otel.GetMeterProvider())
}

// NewOTelMetricsCollectorWithProvider creates the instruments on provider
func NewOTelMetricsCollectorWithProvider(provider metric.MeterProvider) (*OTelMetricsCollector, error) {
	meter := provider.Meter(meterName)

	successes, err := meter.Int64Counter("circuit_breaker.success",
		metric.WithDescription("Calls that completed successfully"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("circuit_breaker.failure",
		metric.WithDescription("Calls that counted as failures"))
	if err != nil {
		return nil, err
	}
	rejections, err := meter.Int64Counter("circuit_breaker.rejected",
		metric.WithDescription("Calls rejected by an open circuit"))
	if err != nil {
		return nil, err
	}
	stateChanges, err := meter.Int64Counter("circuit_breaker.state_change",
		metric.WithDescription("Circuit state transitions"))
	if err != nil {
		return nil, err
	}

	return &OTelMetricsCollector{
		successes:    successes,
		failures:     failures,
		rejections:   rejections,
		stateChanges: stateChanges,
	}, nil
}

func (o *OTelMetricsCollector) RecordSuccess(name string) {
	o.successes.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("circuit_breaker", name)))
}

func (o *OTelMetricsCollector) RecordFailure(name string, errorType string) {
	o.failures.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("circuit_breaker", name),
			attribute.String("error_type", errorType),
		))
}

func (o *OTelMetricsCollector) RecordStateChange(name string, from, to string) {
	o.stateChanges.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("circuit_breaker", name),
			attribute.String("from_state", from),
			attribute.String("to_state", to),
		))
}

func (o *OTelMetricsCollector) RecordRejection(name string) {
	o.rejections.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("circuit_breaker", name)))
}

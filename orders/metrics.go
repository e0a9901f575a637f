package orders

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/itsneelabh/pizzeria/orders"

// Submission modes recorded on pizzeria.orders.submitted
const (
	ModeRemote = "remote"
	ModeDemo   = "demo"
)

type orderMetrics struct {
	submitted metric.Int64Counter
	failed    metric.Int64Counter
}

func newOrderMetrics(provider metric.MeterProvider) (*orderMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	submitted, err := meter.Int64Counter("pizzeria.orders.submitted",
		metric.WithDescription("Orders accepted, by submission mode"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("pizzeria.orders.failed",
		metric.WithDescription("Orders the remote service rejected"))
	if err != nil {
		return nil, err
	}
	return &orderMetrics{submitted: submitted, failed: failed}, nil
}

func (m *orderMetrics) recordSubmitted(ctx context.Context, mode string) {
	m.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

func (m *orderMetrics) recordFailed(ctx context.Context) {
	m.failed.Add(ctx, 1)
}

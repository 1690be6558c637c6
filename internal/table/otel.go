package table

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/pefman/warband-tracker/internal/table"

type metrics struct {
	processed metric.Int64Counter
	failed    metric.Int64Counter
	active    metric.Int64ObservableGauge
}

// newMetrics registers the table instruments on the global meter (no-op unless configured).
// tables is polled by the active gauge.
func newMetrics(tables func() int) (*metrics, error) {
	m := otel.Meter(instrumentationName)
	out := &metrics{}

	var err error
	out.processed, err = m.Int64Counter(
		"table.commands.processed",
		metric.WithDescription("Total table commands applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	out.failed, err = m.Int64Counter(
		"table.commands.failed",
		metric.WithDescription("Total table commands rejected"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	out.active, err = m.Int64ObservableGauge(
		"table.active",
		metric.WithDescription("Current number of open tables"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(out.active, int64(tables()))
			return nil
		},
		out.active,
	)
	if err != nil {
		return nil, fmt.Errorf("registering active callback: %w", err)
	}
	return out, nil
}

func (m *metrics) record(ctx context.Context, command string, err error) {
	attrs := metric.WithAttributes(attribute.String("command", command))
	if err != nil {
		m.failed.Add(ctx, 1, attrs)
		return
	}
	m.processed.Add(ctx, 1, attrs)
}

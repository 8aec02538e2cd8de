package websocket

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/thereayou/roomchat/internal/websocket"

type hubMetrics struct {
	connections metric.Int64UpDownCounter
	delivered   metric.Int64Counter
	dropped     metric.Int64Counter
}

// newHubMetrics берет meter из глобального провайдера; без провайдера инструменты no-op.
func newHubMetrics() *hubMetrics {
	meter := otel.Meter(meterName)
	fallback := noop.NewMeterProvider().Meter(meterName)

	connections, err := meter.Int64UpDownCounter("chat.connections.active",
		metric.WithDescription("Open websocket connections"))
	if err != nil {
		slog.Warn("metric init failed", "metric", "chat.connections.active", "error", err)
		connections, _ = fallback.Int64UpDownCounter("chat.connections.active")
	}

	delivered, err := meter.Int64Counter("chat.broadcast.delivered",
		metric.WithDescription("Frames queued to subscribed connections"))
	if err != nil {
		slog.Warn("metric init failed", "metric", "chat.broadcast.delivered", "error", err)
		delivered, _ = fallback.Int64Counter("chat.broadcast.delivered")
	}

	dropped, err := meter.Int64Counter("chat.broadcast.dropped",
		metric.WithDescription("Frames dropped because a connection send queue was full"))
	if err != nil {
		slog.Warn("metric init failed", "metric", "chat.broadcast.dropped", "error", err)
		dropped, _ = fallback.Int64Counter("chat.broadcast.dropped")
	}

	return &hubMetrics{connections: connections, delivered: delivered, dropped: dropped}
}

func (m *hubMetrics) connected(ctx context.Context)    { m.connections.Add(ctx, 1) }
func (m *hubMetrics) disconnected(ctx context.Context) { m.connections.Add(ctx, -1) }

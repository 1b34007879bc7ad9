package world

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wargame2d/engine/pkg/core"
)

const instrumentationName = "github.com/wargame2d/engine/internal/world"

type metrics struct {
	turns    metric.Int64Counter
	shots    metric.Int64Counter
	kills    metric.Int64Counter
	rejected metric.Int64Counter
	blocked  metric.Int64Counter
}

func newMetrics(m metric.Meter) (*metrics, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}

	var (
		out metrics
		err error
	)
	out.turns, err = m.Int64Counter(
		"wargame.turns.resolved",
		metric.WithDescription("Total turns resolved"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating turns counter: %w", err)
	}
	out.shots, err = m.Int64Counter(
		"wargame.shots.fired",
		metric.WithDescription("Total shots fired"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shots counter: %w", err)
	}
	out.kills, err = m.Int64Counter(
		"wargame.kills",
		metric.WithDescription("Total entities destroyed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kills counter: %w", err)
	}
	out.rejected, err = m.Int64Counter(
		"wargame.actions.rejected",
		metric.WithDescription("Submitted actions replaced by WAIT"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	out.blocked, err = m.Int64Counter(
		"wargame.moves.blocked",
		metric.WithDescription("Moves that could not be applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blocked counter: %w", err)
	}
	return &out, nil
}

func (m *metrics) record(res core.StepResult) {
	ctx := context.Background()
	m.turns.Add(ctx, 1)
	if len(res.Shots) > 0 {
		m.shots.Add(ctx, int64(len(res.Shots)))
	}
	if len(res.Killed) > 0 {
		m.kills.Add(ctx, int64(len(res.Killed)))
	}
	for _, r := range res.Rejections {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(r.Reason))))
	}
	for _, mv := range res.Moves {
		if mv.Blocked {
			m.blocked.Add(ctx, 1)
		}
	}
}

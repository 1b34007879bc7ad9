package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/wargame2d/engine/internal/agent"
	"github.com/wargame2d/engine/internal/scenario"
	"github.com/wargame2d/engine/internal/storage/memory"
	"github.com/wargame2d/engine/internal/world"
	"github.com/wargame2d/engine/pkg/core"
)

// scripted returns fixed choices, or an error when err is set.
type scripted struct {
	team    core.Team
	choices map[int]agent.Choice
	err     error
	calls   int
}

func (a *scripted) Name() string    { return "scripted" }
func (a *scripted) Team() core.Team { return a.team }

func (a *scripted) Decide(context.Context, agent.Observation) (map[int]agent.Choice, error) {
	a.calls++
	return a.choices, a.err
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(scenario.Default(), world.WithMeter(noop.NewMeterProvider().Meter("test")), world.WithLogger(quiet))
	require.NoError(t, err)
	return w
}

func newRunner(t *testing.T, w *world.World, blue, red agent.Agent, rec *memory.Backend) *Runner {
	t.Helper()
	deps := Dependencies{
		World:    w,
		Agents:   map[core.Team]agent.Agent{core.TeamBlue: blue, core.TeamRed: red},
		Logger:   quiet,
		Scenario: "default",
		Now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	if rec != nil {
		deps.Recorder = rec
	}
	r, err := New(deps)
	require.NoError(t, err)
	return r
}

func TestNew_Validation(t *testing.T) {
	w := newWorld(t)

	_, err := New(Dependencies{})
	assert.Error(t, err)

	_, err = New(Dependencies{World: w, Agents: map[core.Team]agent.Agent{
		core.TeamBlue: agent.NewIdle("blue", core.TeamBlue),
	}})
	assert.ErrorIs(t, err, ErrMissingAgent)

	_, err = New(Dependencies{World: w, Agents: map[core.Team]agent.Agent{
		core.TeamBlue: agent.NewIdle("blue", core.TeamBlue),
		core.TeamRed:  agent.NewIdle("also blue", core.TeamBlue),
	}})
	assert.Error(t, err)
}

func TestRun_IdleTeamsHitTurnLimit(t *testing.T) {
	rec := memory.New()
	w := newWorld(t)
	r := newRunner(t, w, agent.NewIdle("blue", core.TeamBlue), agent.NewIdle("red", core.TeamRed), rec)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50, sum.Turns)
	assert.True(t, sum.Outcome.Done)
	assert.True(t, sum.Outcome.Draw())
	assert.Equal(t, core.EndMaxTurns, sum.Outcome.Reason)
	assert.Equal(t, r.Episode().ID, sum.EpisodeID)

	turns, err := rec.Turns()
	require.NoError(t, err)
	assert.Len(t, turns, 50)

	out, ok := rec.Outcome()
	require.True(t, ok)
	assert.Equal(t, sum.Outcome, out)

	ep, ok := rec.Episode()
	require.True(t, ok)
	assert.Equal(t, "default", ep.Scenario)
	assert.Equal(t, uint64(42), ep.Seed)
}

func TestRun_SeededEpisodesRepeat(t *testing.T) {
	play := func() Summary {
		w := newWorld(t)
		r := newRunner(t, w, agent.NewRandom("blue", core.TeamBlue, 1), agent.NewRandom("red", core.TeamRed, 2), nil)
		sum, err := r.Run(context.Background())
		require.NoError(t, err)
		return sum
	}

	a, b := play(), play()
	assert.NotEqual(t, a.EpisodeID, b.EpisodeID)
	assert.Equal(t, a.Turns, b.Turns)
	assert.Equal(t, a.Outcome, b.Outcome)
	assert.Equal(t, a.Teams, b.Teams)
}

func TestRun_DoctrineFinishes(t *testing.T) {
	blue, err := agent.NewDoctrine("blue", core.TeamBlue, agent.DefaultDoctrine())
	require.NoError(t, err)
	rec := memory.New()
	w := newWorld(t)
	r := newRunner(t, w, blue, agent.NewRandom("red", core.TeamRed, 7), rec)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, w.Done())

	turns, err := rec.Turns()
	require.NoError(t, err)
	assert.Len(t, turns, sum.Turns)

	for _, st := range sum.Teams {
		assert.LessOrEqual(t, st.Hits, st.Shots)
		assert.LessOrEqual(t, st.Kills, st.Hits)
	}
}

func TestRun_CancelledBeforeFirstTurn(t *testing.T) {
	w := newWorld(t)
	blue := &scripted{team: core.TeamBlue}
	r := newRunner(t, w, blue, agent.NewIdle("red", core.TeamRed), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, w.Turn())
	assert.Zero(t, blue.calls)
}

func TestTurn_DriftedChoiceWaits(t *testing.T) {
	w := newWorld(t)
	before, ok := w.Entity(2)
	require.True(t, ok)

	legal, err := w.AllowedActions(2)
	require.NoError(t, err)
	require.Greater(t, len(legal), 1)

	blue := &scripted{team: core.TeamBlue, choices: map[int]agent.Choice{
		2: {Index: 1, Key: "stale"},
		9: {Index: 0}, // red AWACS, not ours
	}}
	r := newRunner(t, w, blue, agent.NewIdle("red", core.TeamRed), nil)

	res, err := r.Turn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Turn)
	assert.Empty(t, res.Rejections)

	after, ok := w.Entity(2)
	require.True(t, ok)
	assert.Equal(t, before.Position, after.Position)
	assert.Equal(t, 1, r.Summary().Teams[core.TeamBlue].Drifted)
}

func TestTurn_ValidChoiceApplies(t *testing.T) {
	w := newWorld(t)
	legal, err := w.AllowedActions(2)
	require.NoError(t, err)

	idx := -1
	for i, a := range legal {
		if a.Type == core.ActionMove {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0)

	blue := &scripted{team: core.TeamBlue, choices: map[int]agent.Choice{2: agent.ChoiceOf(legal, idx)}}
	r := newRunner(t, w, blue, agent.NewIdle("red", core.TeamRed), nil)

	res, err := r.Turn(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Moves, 1)
	assert.False(t, res.Moves[0].Blocked)
	assert.Equal(t, 1, res.MovedCount())
}

func TestTurn_FailingAgentTeamWaits(t *testing.T) {
	w := newWorld(t)
	blueBefore, ok := w.Entity(2)
	require.True(t, ok)

	legal, err := w.AllowedActions(9)
	require.NoError(t, err)
	idx := -1
	for i, a := range legal {
		if a.Type == core.ActionMove {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0)

	blue := &scripted{team: core.TeamBlue, err: errors.New("llm timeout")}
	red := &scripted{team: core.TeamRed, choices: map[int]agent.Choice{9: agent.ChoiceOf(legal, idx)}}
	r := newRunner(t, w, blue, red, nil)

	res, err := r.Turn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Turn)
	assert.Equal(t, 1, w.Turn())
	assert.Empty(t, res.Rejections)
	require.Len(t, res.Moves, 1)
	assert.Equal(t, 9, res.Moves[0].EntityID)

	blueAfter, ok := w.Entity(2)
	require.True(t, ok)
	assert.Equal(t, blueBefore.Position, blueAfter.Position)

	sum := r.Summary()
	assert.Equal(t, 1, sum.Teams[core.TeamBlue].Failed)
	assert.Zero(t, sum.Teams[core.TeamRed].Failed)
}

func TestRun_FailingAgentDoesNotAbortEpisode(t *testing.T) {
	w := newWorld(t)
	blue := &scripted{team: core.TeamBlue, err: errors.New("llm timeout")}
	r := newRunner(t, w, blue, agent.NewIdle("red", core.TeamRed), nil)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.Outcome.Done)
	assert.Equal(t, 50, sum.Turns)
	assert.Equal(t, 50, sum.Teams[core.TeamBlue].Failed)
}

func TestTurn_CancelledDuringDecideIsFatal(t *testing.T) {
	w := newWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newRunner(t, w, &scripted{team: core.TeamBlue, err: errors.New("aborted")}, agent.NewIdle("red", core.TeamRed), nil)

	_, err := r.Turn(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, w.Turn())
}

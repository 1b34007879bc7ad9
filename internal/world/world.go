// Package world owns the entities, grid, turn counter and random stream of
// an episode and is the only writer of that state. Step is atomic: it either
// commits a fully resolved turn or leaves everything as it was.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"go.opentelemetry.io/otel/metric"

	"github.com/wargame2d/engine/internal/combat"
	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/internal/grid"
	"github.com/wargame2d/engine/internal/legality"
	"github.com/wargame2d/engine/internal/visibility"
	"github.com/wargame2d/engine/pkg/core"
)

var (
	// ErrUnknownEntity is returned for ids that were never part of the world.
	ErrUnknownEntity = combat.ErrUnknownEntity
	// ErrEpisodeOver is returned by Step once an outcome has been declared.
	ErrEpisodeOver = errors.New("episode is finished")
	// ErrTeamEliminated is returned when a side has no units left but no outcome was declared.
	ErrTeamEliminated = errors.New("team has no living entities")
	// ErrInvalidScenario wraps every construction-time validation failure.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrInternalFault wraps an unexpected panic during resolution.
	ErrInternalFault = errors.New("internal fault during turn resolution")
)

// Option configures a World.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	meter    metric.Meter
	diagonal *bool
	seed     *uint64
}

// WithLogger sets the logger used for resolution and lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMeter overrides the OTel meter; the global provider is used otherwise.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithDiagonalMoves overrides the scenario's diagonal move flag.
func WithDiagonalMoves(enabled bool) Option {
	return func(o *options) { o.diagonal = &enabled }
}

// WithSeed overrides the scenario seed.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// World is the single source of truth of an episode.
type World struct {
	grid   grid.Grid
	cfg    core.ScenarioConfig
	legalO legality.Options

	units []entity.Entity // ascending id
	byID  map[int]entity.Entity
	turn  int

	pcg      *rand.PCG
	resolver *combat.Resolver

	outcome  core.Outcome
	progress progress
	history  []core.StepResult
	initial  []core.EntitySnapshot
	log      *slog.Logger
	metrics  *metrics
}

// New builds and validates a world from a scenario.
func New(sc core.Scenario, opts ...Option) (*World, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	cfg := sc.Config
	if o.diagonal != nil {
		cfg.DiagonalMoves = *o.diagonal
	}
	if o.seed != nil {
		cfg.Seed = *o.seed
	}

	g, err := grid.New(cfg.GridWidth, cfg.GridHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	units, err := buildUnits(sc.Entities, g)
	if err != nil {
		return nil, err
	}

	m, err := newMetrics(o.meter)
	if err != nil {
		return nil, err
	}

	pcg := rand.NewPCG(cfg.Seed, cfg.Seed)
	w := &World{
		grid:     g,
		cfg:      cfg,
		legalO:   legality.Options{Diagonal: cfg.DiagonalMoves},
		units:    units,
		pcg:      pcg,
		resolver: combat.NewResolver(rand.New(pcg), o.logger),
		log:      o.logger,
		metrics:  m,
	}
	w.byID = index(w.units)
	w.initial = w.Entities()

	w.log.Info("world created",
		"scenario", sc.Name,
		"grid", fmt.Sprintf("%dx%d", g.Width(), g.Height()),
		"entities", len(units),
		"seed", cfg.Seed,
	)
	return w, nil
}

func buildUnits(specs []core.EntitySpec, g grid.Grid) ([]entity.Entity, error) {
	units := make([]entity.Entity, 0, len(specs))
	seen := make(map[int]bool, len(specs))
	cells := make(map[core.Position]int, len(specs))
	awacs := make(map[core.Team]int)
	living := make(map[core.Team]int)

	for _, spec := range specs {
		if seen[spec.ID] {
			return nil, fmt.Errorf("%w: duplicate entity id %d", ErrInvalidScenario, spec.ID)
		}
		seen[spec.ID] = true

		e, err := entity.FromSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
		}
		if !g.InBounds(e.Pos()) {
			return nil, fmt.Errorf("%w: entity %d at %s is outside the %dx%d grid",
				ErrInvalidScenario, e.ID(), e.Pos(), g.Width(), g.Height())
		}
		if e.Alive() {
			if other, taken := cells[e.Pos()]; taken {
				return nil, fmt.Errorf("%w: entities %d and %d share cell %s", ErrInvalidScenario, other, e.ID(), e.Pos())
			}
			cells[e.Pos()] = e.ID()
			living[e.Team()]++
			if e.Kind() == core.KindAWACS {
				awacs[e.Team()]++
			}
		}
		units = append(units, e)
	}

	for _, team := range core.Teams {
		if living[team] == 0 {
			return nil, fmt.Errorf("%w: team %s has no living entities", ErrInvalidScenario, team)
		}
		if awacs[team] == 0 {
			return nil, fmt.Errorf("%w: team %s has no living AWACS", ErrInvalidScenario, team)
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].ID() < units[j].ID() })
	return units, nil
}

func index(units []entity.Entity) map[int]entity.Entity {
	byID := make(map[int]entity.Entity, len(units))
	for _, u := range units {
		byID[u.ID()] = u
	}
	return byID
}

// Turn is the number of resolved turns.
func (w *World) Turn() int { return w.turn }

func (w *World) Grid() grid.Grid { return w.grid }

func (w *World) Config() core.ScenarioConfig { return w.cfg }

// Outcome is the episode status after the last resolved turn.
func (w *World) Outcome() core.Outcome { return w.outcome }

// Done reports whether the episode has finished.
func (w *World) Done() bool { return w.outcome.Done }

// Entity returns a snapshot of the entity, dead or alive.
func (w *World) Entity(id int) (core.EntitySnapshot, bool) {
	e, ok := w.byID[id]
	if !ok {
		return core.EntitySnapshot{}, false
	}
	return e.Snapshot(), true
}

// Entities returns snapshots of every entity in id order.
func (w *World) Entities() []core.EntitySnapshot {
	out := make([]core.EntitySnapshot, 0, len(w.units))
	for _, u := range w.units {
		out = append(out, u.Snapshot())
	}
	return out
}

// TeamEntities returns snapshots of the team's entities in id order.
func (w *World) TeamEntities(team core.Team, aliveOnly bool) []core.EntitySnapshot {
	var out []core.EntitySnapshot
	for _, u := range w.units {
		if u.Team() != team || (aliveOnly && !u.Alive()) {
			continue
		}
		out = append(out, u.Snapshot())
	}
	return out
}

// InitialEntities returns the snapshots taken at construction.
func (w *World) InitialEntities() []core.EntitySnapshot {
	return append([]core.EntitySnapshot(nil), w.initial...)
}

// TeamView derives the team's current visibility.
func (w *World) TeamView(team core.Team) core.TeamView {
	return visibility.Build(team, w.turn, w.units)
}

// AllowedActions returns the ordered legal-action list of one entity.
func (w *World) AllowedActions(id int) ([]core.Action, error) {
	e, ok := w.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	return legality.Allowed(e, w.grid, w.TeamView(e.Team()), w.legalO), nil
}

// LegalActions returns the legal-action lists of all living entities of team.
func (w *World) LegalActions(team core.Team) map[int][]core.Action {
	view := w.TeamView(team)
	out := make(map[int][]core.Action)
	for _, u := range w.units {
		if u.Team() == team && u.Alive() {
			out[u.ID()] = legality.Allowed(u, w.grid, view, w.legalO)
		}
	}
	return out
}

// ResolveAction maps an index into id's legal-action list back to an
// action. key, when not empty, must equal the action's content key.
func (w *World) ResolveAction(id, index int, key string) (core.Action, error) {
	actions, err := w.AllowedActions(id)
	if err != nil {
		return core.Wait(), err
	}
	return legality.Resolve(actions, index, key)
}

// History returns copies of every resolved turn result.
func (w *World) History() []core.StepResult {
	out := make([]core.StepResult, 0, len(w.history))
	for _, r := range w.history {
		out = append(out, r.Clone())
	}
	return out
}

// Frame returns the between-turn picture for UIs and replays.
func (w *World) Frame() core.Frame {
	views := make([]core.TeamView, 0, len(core.Teams))
	for _, team := range core.Teams {
		views = append(views, w.TeamView(team))
	}
	return core.Frame{
		Turn:       w.turn,
		GridWidth:  w.grid.Width(),
		GridHeight: w.grid.Height(),
		Entities:   w.Entities(),
		Views:      views,
		Outcome:    w.outcome,
	}
}

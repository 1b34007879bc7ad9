// Package runner plays an episode headless: it asks each team's agent for
// choices, resolves them against the world and records every turn.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wargame2d/engine/internal/agent"
	"github.com/wargame2d/engine/internal/storage"
	"github.com/wargame2d/engine/internal/world"
	"github.com/wargame2d/engine/pkg/core"
)

// ErrMissingAgent is returned when a team has no agent.
var ErrMissingAgent = errors.New("no agent for team")

// Dependencies holds everything a runner needs
type Dependencies struct {
	World    *world.World
	Agents   map[core.Team]agent.Agent
	Recorder storage.Backend // optional
	Logger   *slog.Logger
	Scenario string
	Now      func() time.Time
}

// TeamStats are per-team totals over an episode.
type TeamStats struct {
	Shots    int `json:"shots"`
	Hits     int `json:"hits"`
	Kills    int `json:"kills"`
	Losses   int `json:"losses"`
	Rejected int `json:"rejected"`
	Drifted  int `json:"drifted"`
	Failed   int `json:"failed"`
}

// Summary describes a finished or interrupted episode.
type Summary struct {
	EpisodeID uuid.UUID                `json:"episodeId"`
	Turns     int                      `json:"turns"`
	Outcome   core.Outcome             `json:"outcome"`
	Teams     map[core.Team]*TeamStats `json:"teams"`
}

// Runner drives one episode
type Runner struct {
	deps    Dependencies
	log     *slog.Logger
	teamOf  map[int]core.Team
	episode core.Episode
	started bool
	ended   bool
	summary Summary
}

// New validates deps and prepares a runner.
func New(deps Dependencies) (*Runner, error) {
	if deps.World == nil {
		return nil, errors.New("runner: world is required")
	}
	for _, team := range core.Teams {
		a, ok := deps.Agents[team]
		if !ok || a == nil {
			return nil, fmt.Errorf("%w %s", ErrMissingAgent, team)
		}
		if a.Team() != team {
			return nil, fmt.Errorf("agent %q plays %s, registered for %s", a.Name(), a.Team(), team)
		}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	teamOf := make(map[int]core.Team)
	for _, e := range deps.World.InitialEntities() {
		teamOf[e.ID] = e.Team
	}
	stats := make(map[core.Team]*TeamStats, len(core.Teams))
	for _, team := range core.Teams {
		stats[team] = &TeamStats{}
	}

	return &Runner{
		deps:    deps,
		log:     log.With("component", "runner"),
		teamOf:  teamOf,
		summary: Summary{Teams: stats},
	}, nil
}

// Episode returns the episode header. It is set once the first turn starts.
func (r *Runner) Episode() core.Episode { return r.episode }

// Summary returns a copy of the totals so far.
func (r *Runner) Summary() Summary {
	s := r.summary
	s.Teams = make(map[core.Team]*TeamStats, len(r.summary.Teams))
	for team, st := range r.summary.Teams {
		c := *st
		s.Teams[team] = &c
	}
	return s
}

// Run plays turns until the episode ends or ctx is cancelled. Cancellation
// is only observed between turns.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if err := r.start(); err != nil {
		return r.Summary(), err
	}
	for !r.deps.World.Done() {
		if err := ctx.Err(); err != nil {
			r.log.Warn("episode interrupted", "turn", r.deps.World.Turn(), "error", err)
			return r.Summary(), err
		}
		if _, err := r.Turn(ctx); err != nil {
			return r.Summary(), err
		}
	}
	if err := r.finish(); err != nil {
		return r.Summary(), err
	}
	return r.Summary(), nil
}

func (r *Runner) start() error {
	if r.started {
		return nil
	}
	w := r.deps.World
	r.episode = core.NewEpisode(r.deps.Scenario, w.Config().Seed, w.Frame(), r.deps.Now())
	r.summary.EpisodeID = r.episode.ID
	r.summary.Turns = w.Turn()
	r.started = true

	r.log.Info("episode started",
		"episode", r.episode.ID,
		"scenario", r.deps.Scenario,
		"seed", r.episode.Seed,
		"blue", r.deps.Agents[core.TeamBlue].Name(),
		"red", r.deps.Agents[core.TeamRed].Name())

	if r.deps.Recorder != nil {
		if err := r.deps.Recorder.StartEpisode(r.episode); err != nil {
			return fmt.Errorf("recording episode start: %w", err)
		}
	}
	return nil
}

func (r *Runner) finish() error {
	if r.ended {
		return nil
	}
	r.ended = true
	out := r.deps.World.Outcome()
	r.summary.Outcome = out
	r.log.Info("episode finished",
		"episode", r.episode.ID,
		"turns", r.summary.Turns,
		"winner", out.Winner.String(),
		"reason", string(out.Reason))

	if r.deps.Recorder != nil {
		if err := r.deps.Recorder.EndEpisode(out); err != nil {
			return fmt.Errorf("recording episode end: %w", err)
		}
	}
	return nil
}

// Turn collects every team's choices and resolves one turn.
func (r *Runner) Turn(ctx context.Context) (core.StepResult, error) {
	if err := r.start(); err != nil {
		return core.StepResult{}, err
	}
	w := r.deps.World

	actions := make(map[int]core.Action)
	for _, team := range core.Teams {
		if err := r.collect(ctx, team, actions); err != nil {
			return core.StepResult{}, err
		}
	}

	res, err := w.Step(actions)
	if err != nil {
		return core.StepResult{}, fmt.Errorf("turn %d: %w", w.Turn()+1, err)
	}
	r.tally(res)

	r.log.Debug("turn resolved",
		"turn", res.Turn,
		"shots", len(res.Shots),
		"killed", res.Killed,
		"moved", res.MovedCount(),
		"rejected", len(res.Rejections))

	if r.deps.Recorder != nil {
		if err := r.deps.Recorder.RecordTurn(res, w.Entities()); err != nil {
			return res, fmt.Errorf("recording turn %d: %w", res.Turn, err)
		}
	}
	if w.Done() {
		if err := r.finish(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// collect asks team's agent for choices and maps them onto actions. A
// choice that no longer resolves becomes WAIT, and so does every unit of a
// team whose agent fails. Only a cancelled ctx is returned.
func (r *Runner) collect(ctx context.Context, team core.Team, actions map[int]core.Action) error {
	w := r.deps.World
	a := r.deps.Agents[team]
	obs := agent.Observation{
		Turn:  w.Turn() + 1,
		View:  w.TeamView(team),
		Units: w.TeamEntities(team, true),
		Legal: w.LegalActions(team),
	}

	choices, err := a.Decide(ctx, obs)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("agent %q: %w", a.Name(), ctxErr)
		}
		// the whole team waits this turn
		r.summary.Teams[team].Failed++
		r.log.Warn("agent failed to decide, team waits",
			"agent", a.Name(), "team", team.String(), "turn", obs.Turn, "error", err)
		return nil
	}

	ids := make([]int, 0, len(choices))
	for id := range choices {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		c := choices[id]
		if _, ok := obs.Legal[id]; !ok {
			r.log.Warn("choice for unit outside team ignored", "agent", a.Name(), "entity", id)
			continue
		}
		act, err := w.ResolveAction(id, c.Index, c.Key)
		if err != nil {
			r.summary.Teams[team].Drifted++
			r.log.Warn("choice did not resolve, waiting instead",
				"agent", a.Name(), "entity", id, "index", c.Index, "error", err)
			act = core.Wait()
		}
		actions[id] = act
	}
	return nil
}

func (r *Runner) tally(res core.StepResult) {
	r.summary.Turns = res.Turn
	r.summary.Outcome = res.Outcome
	for _, s := range res.Shots {
		st, ok := r.summary.Teams[r.teamOf[s.AttackerID]]
		if !ok {
			continue
		}
		st.Shots++
		if s.Hit {
			st.Hits++
		}
		if s.TargetKilled {
			st.Kills++
		}
	}
	for _, id := range res.Killed {
		if st, ok := r.summary.Teams[r.teamOf[id]]; ok {
			st.Losses++
		}
	}
	for _, rej := range res.Rejections {
		if st, ok := r.summary.Teams[r.teamOf[rej.EntityID]]; ok {
			st.Rejected++
		}
	}
}

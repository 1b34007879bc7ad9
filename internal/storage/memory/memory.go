// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/wargame2d/engine/internal/storage/replay"
	"github.com/wargame2d/engine/pkg/core"
)

// ErrNoEpisode is returned when recording before StartEpisode.
var ErrNoEpisode = errors.New("no episode started")

// TurnRecord groups a turn result with the entity states after it
type TurnRecord struct {
	Result core.StepResult
	After  []core.EntitySnapshot
}

// Backend keeps the turn history of the current episode in memory
type Backend struct {
	episode *core.Episode
	turns   []TurnRecord
	outcome core.Outcome
	ended   bool

	mu sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartEpisode begins recording a new episode
func (b *Backend) StartEpisode(ep core.Episode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.episode = &ep
	b.turns = nil
	b.outcome = core.Outcome{}
	b.ended = false
	return nil
}

// EndEpisode stores the final outcome
func (b *Backend) EndEpisode(outcome core.Outcome) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.episode == nil {
		return ErrNoEpisode
	}
	b.outcome = outcome
	b.ended = true
	return nil
}

// RecordTurn appends a resolved turn
func (b *Backend) RecordTurn(res core.StepResult, after []core.EntitySnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.episode == nil {
		return ErrNoEpisode
	}
	b.turns = append(b.turns, TurnRecord{
		Result: res.Clone(),
		After:  slices.Clone(after),
	})
	return nil
}

// Turns returns copies of the recorded results
func (b *Backend) Turns() ([]core.StepResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.StepResult, 0, len(b.turns))
	for _, t := range b.turns {
		out = append(out, t.Result.Clone())
	}
	return out, nil
}

// Episode returns the current episode, if any
func (b *Backend) Episode() (core.Episode, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.episode == nil {
		return core.Episode{}, false
	}
	return *b.episode, true
}

// Outcome returns the stored outcome and whether EndEpisode was called
func (b *Backend) Outcome() (core.Outcome, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.outcome, b.ended
}

// WriteReplay renders the recorded episode
func (b *Backend) WriteReplay(w io.Writer, compress bool) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.episode == nil {
		return ErrNoEpisode
	}

	data := replay.Data{
		Episode: *b.episode,
		Turns:   make([]core.StepResult, 0, len(b.turns)),
		States:  make([][]core.EntitySnapshot, 0, len(b.turns)),
		Outcome: b.outcome,
	}
	for _, t := range b.turns {
		data.Turns = append(data.Turns, t.Result)
		data.States = append(data.States, t.After)
	}

	r, err := replay.Build(data)
	if err != nil {
		return err
	}
	return replay.Write(w, r, compress)
}

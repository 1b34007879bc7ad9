// Package sqlitestorage records episodes into a private in-memory SQLite
// database, which makes the history queryable with SQL while it lives.
// Nothing is written to disk; the database is dropped on Close.
package sqlitestorage

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/wargame2d/engine/internal/database"
	"github.com/wargame2d/engine/internal/storage/replay"
	"github.com/wargame2d/engine/pkg/core"
)

// ErrNoEpisode is returned when recording before StartEpisode.
var ErrNoEpisode = errors.New("no episode started")

// Backend is the SQLite-backed recorder.
type Backend struct {
	db        *database.Manager
	log       zerolog.Logger
	episodeID string

	mu sync.Mutex
}

// New creates a backend; Init opens the database.
func New(log zerolog.Logger) *Backend {
	return &Backend{
		db:  database.NewManager(log),
		log: log,
	}
}

// Init opens and migrates the in-memory database.
func (b *Backend) Init() error {
	if err := b.db.Connect(); err != nil {
		return err
	}
	return b.db.Setup(Models...)
}

// Close drops the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// StartEpisode inserts the episode header. Rows of earlier episodes stay
// in the database until Close.
func (b *Backend) StartEpisode(ep core.Episode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row := EpisodeRow{
		ID:         ep.ID.String(),
		Scenario:   ep.Scenario,
		Seed:       ep.Seed,
		GridWidth:  ep.GridWidth,
		GridHeight: ep.GridHeight,
		StartedAt:  ep.StartedAt,
	}
	row.Initial = datatypes.NewJSONType(ep.Initial)
	if err := b.db.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}
	b.episodeID = row.ID
	b.log.Debug().Str("episode", row.ID).Str("scenario", ep.Scenario).Msg("Episode started")
	return nil
}

// EndEpisode stores the outcome on the episode header.
func (b *Backend) EndEpisode(outcome core.Outcome) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.episodeID == "" {
		return ErrNoEpisode
	}
	err := b.db.DB.Model(&EpisodeRow{}).Where("id = ?", b.episodeID).Updates(map[string]any{
		"done":   outcome.Done,
		"winner": outcome.Winner.String(),
		"reason": string(outcome.Reason),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update episode: %w", err)
	}
	return nil
}

// RecordTurn inserts the turn and the entity states after it in one transaction.
func (b *Backend) RecordTurn(res core.StepResult, after []core.EntitySnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.episodeID == "" {
		return ErrNoEpisode
	}

	tx := b.db.DB.Begin()
	turn := turnRow(b.episodeID, res)
	if err := tx.Create(&turn).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert turn %d: %w", res.Turn, err)
	}
	if states := stateRows(b.episodeID, res.Turn, after); len(states) > 0 {
		if err := tx.Create(&states).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert states of turn %d: %w", res.Turn, err)
		}
	}
	return tx.Commit().Error
}

// Turns reads the current episode's turns back in order.
func (b *Backend) Turns() ([]core.StepResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.turns()
}

func (b *Backend) turns() ([]core.StepResult, error) {
	if b.episodeID == "" {
		return nil, ErrNoEpisode
	}
	var rows []TurnRow
	if err := b.db.DB.Where("episode_id = ?", b.episodeID).Order("turn").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	out := make([]core.StepResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.result())
	}
	return out, nil
}

// Losses returns how many entities of team were dead after the last recorded turn.
func (b *Backend) Losses(team core.Team) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.episodeID == "" {
		return 0, ErrNoEpisode
	}
	var last struct{ Turn *int }
	err := b.db.DB.Model(&EntityStateRow{}).Select("MAX(turn) AS turn").
		Where("episode_id = ?", b.episodeID).Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query last turn: %w", err)
	}
	if last.Turn == nil {
		return 0, nil
	}

	var n int64
	err = b.db.DB.Model(&EntityStateRow{}).
		Where("episode_id = ? AND turn = ? AND team = ? AND alive = ?", b.episodeID, *last.Turn, team.String(), false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count losses: %w", err)
	}
	return n, nil
}

// track returns the cells an entity occupied after each recorded turn.
func (b *Backend) track(entityID int) ([]core.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.episodeID == "" {
		return nil, ErrNoEpisode
	}
	var rows []EntityStateRow
	err := b.db.DB.Select("x", "y").
		Where("episode_id = ? AND entity_id = ?", b.episodeID, entityID).
		Order("turn").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query track: %w", err)
	}
	out := make([]core.Position, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Pos(r.X, r.Y))
	}
	return out, nil
}

// WriteReplay rebuilds the replay document from the stored rows.
func (b *Backend) WriteReplay(w io.Writer, compress bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.episodeID == "" {
		return ErrNoEpisode
	}

	var ep EpisodeRow
	if err := b.db.DB.First(&ep, "id = ?", b.episodeID).Error; err != nil {
		return fmt.Errorf("failed to load episode: %w", err)
	}
	turns, err := b.turns()
	if err != nil {
		return err
	}

	var states []EntityStateRow
	err = b.db.DB.Where("episode_id = ?", b.episodeID).Order("turn").Order("entity_id").Find(&states).Error
	if err != nil {
		return fmt.Errorf("failed to query states: %w", err)
	}
	frames := make([][]core.EntitySnapshot, len(turns))
	for _, s := range states {
		if i := s.Turn - 1; i >= 0 && i < len(frames) {
			frames[i] = append(frames[i], s.Snapshot.Data())
		}
	}

	episode, err := ep.episode()
	if err != nil {
		return err
	}
	r, err := replay.Build(replay.Data{
		Episode: episode,
		Turns:   turns,
		States:  frames,
		Outcome: ep.outcome(),
	})
	if err != nil {
		return err
	}
	return replay.Write(w, r, compress)
}

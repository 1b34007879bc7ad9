package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wargame2d/engine/internal/config"
	"github.com/wargame2d/engine/internal/runner"
	"github.com/wargame2d/engine/internal/storage/memory"
	sqlitestorage "github.com/wargame2d/engine/internal/storage/sqlite"
	"github.com/wargame2d/engine/pkg/core"
)

func TestLoadScenario_Overrides(t *testing.T) {
	fs, opts, err := parseFlags([]string{"--seed", "9", "--blue", "wait", "--red", "doctrine"})
	require.NoError(t, err)

	sc, err := loadScenario(opts, fs)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), sc.Config.Seed)

	for _, a := range sc.Agents {
		switch a.Team {
		case core.TeamBlue:
			assert.Equal(t, "wait", a.Type)
		case core.TeamRed:
			assert.Equal(t, "doctrine", a.Type)
		}
	}
}

func TestLoadScenario_KeepsSeedWhenFlagUnset(t *testing.T) {
	fs, opts, err := parseFlags(nil)
	require.NoError(t, err)

	sc, err := loadScenario(opts, fs)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), sc.Config.Seed)
}

func TestOverrideAgent_AddsMissingTeam(t *testing.T) {
	sc := core.Scenario{Config: core.ScenarioConfig{Seed: 3}}
	overrideAgent(&sc, core.TeamRed, "random")
	require.Len(t, sc.Agents, 1)
	assert.Equal(t, core.TeamRed, sc.Agents[0].Team)
	assert.Equal(t, "random", sc.Agents[0].Type)
}

func TestReplayPath(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-0000-4000-8000-000000000001")
	sum := runner.Summary{EpisodeID: id}

	assert.Equal(t, "out.json", replayPath("out.json", config.MemoryConfig{ReplayDir: "x"}, "s", sum))
	assert.Empty(t, replayPath("", config.MemoryConfig{}, "s", sum))
	assert.Equal(t,
		filepath.Join("replays", "default_"+id.String()+".json.gz"),
		replayPath("", config.MemoryConfig{ReplayDir: "replays", CompressOutput: true}, "default", sum))
}

func TestWriteReplay(t *testing.T) {
	rec := memory.New()
	require.NoError(t, rec.StartEpisode(core.Episode{ID: uuid.New(), Scenario: "t", GridWidth: 2, GridHeight: 2}))
	require.NoError(t, rec.EndEpisode(core.Outcome{Done: true}))

	path := filepath.Join(t.TempDir(), "nested", "replay.json")
	require.NoError(t, writeReplay(rec, path, false))
	assert.FileExists(t, path)
}

type lossTable map[core.Team]int64

func (l lossTable) Losses(team core.Team) (int64, error) { return l[team], nil }

func TestCheckLosses(t *testing.T) {
	sum := runner.Summary{Teams: map[core.Team]*runner.TeamStats{
		core.TeamBlue: {Losses: 1},
		core.TeamRed:  {Losses: 3},
	}}

	assert.NoError(t, checkLosses(lossTable{core.TeamBlue: 1, core.TeamRed: 3}, sum))

	err := checkLosses(lossTable{core.TeamBlue: 1, core.TeamRed: 2}, sum)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RED")
}

func TestCheckLosses_SqliteBackend(t *testing.T) {
	b := sqlitestorage.New(zerolog.Nop())
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.StartEpisode(core.Episode{ID: uuid.New(), Scenario: "t", GridWidth: 4, GridHeight: 4}))
	require.NoError(t, b.RecordTurn(core.StepResult{Turn: 1, Killed: []int{2}}, []core.EntitySnapshot{
		{ID: 1, Team: core.TeamBlue, Kind: core.KindAircraft, Position: core.Pos(0, 0), Alive: true},
		{ID: 2, Team: core.TeamRed, Kind: core.KindDecoy, Position: core.Pos(3, 3), Alive: false},
	}))

	sum := runner.Summary{Teams: map[core.Team]*runner.TeamStats{
		core.TeamBlue: {},
		core.TeamRed:  {Losses: 1},
	}}
	assert.NoError(t, checkLosses(b, sum))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	err := printSummary(&buf, runner.Summary{
		Turns: 3,
		Teams: map[core.Team]*runner.TeamStats{core.TeamBlue: {Shots: 2}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"BLUE"`)
	assert.Contains(t, buf.String(), `"turns": 3`)
}

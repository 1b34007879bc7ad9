// Package replay turns a recorded episode into the replay document consumed
// by viewers and analysis scripts.
package replay

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/wargame2d/engine/pkg/core"
)

// Data is everything a backend holds about one episode. States[i] is the
// entity list after turn i+1.
type Data struct {
	Episode core.Episode
	Turns   []core.StepResult
	States  [][]core.EntitySnapshot
	Outcome core.Outcome
}

// Build assembles the replay document.
func Build(d Data) (Replay, error) {
	if len(d.States) != len(d.Turns) {
		return Replay{}, fmt.Errorf("replay: %d turns but %d state frames", len(d.Turns), len(d.States))
	}

	byID := make(map[int]*Entity, len(d.Episode.Initial))
	for _, s := range d.Episode.Initial {
		e := &Entity{
			ID:        s.ID,
			Name:      s.Name,
			Team:      s.Team,
			Kind:      s.Kind,
			Positions: [][2]int{{s.Position.X, s.Position.Y}},
		}
		if !s.Alive {
			e.DestroyedAt = -1
		}
		byID[s.ID] = e
	}

	for i, frame := range d.States {
		turn := i + 1
		for _, s := range frame {
			e, ok := byID[s.ID]
			if !ok || e.DestroyedAt != 0 {
				continue
			}
			e.Positions = append(e.Positions, [2]int{s.Position.X, s.Position.Y})
			if !s.Alive {
				e.DestroyedAt = turn
			}
		}
		for _, shot := range d.Turns[i].Shots {
			if e, ok := byID[shot.AttackerID]; ok {
				e.ShotsFired++
				if shot.TargetKilled {
					e.Kills++
				}
			}
		}
	}

	entities := make([]Entity, 0, len(byID))
	for _, e := range byID {
		if e.DestroyedAt < 0 {
			e.DestroyedAt = 0
		}
		wkt, length, err := track(e.Positions)
		if err != nil {
			return Replay{}, fmt.Errorf("replay: track of entity %d: %w", e.ID, err)
		}
		e.Track, e.PathLength = wkt, length
		entities = append(entities, *e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })

	turns := make([]core.StepResult, 0, len(d.Turns))
	for _, t := range d.Turns {
		turns = append(turns, t.Clone())
	}

	return Replay{
		Version:    Version,
		EpisodeID:  d.Episode.ID.String(),
		Scenario:   d.Episode.Scenario,
		Seed:       d.Episode.Seed,
		GridWidth:  d.Episode.GridWidth,
		GridHeight: d.Episode.GridHeight,
		StartedAt:  d.Episode.StartedAt,
		TurnCount:  len(d.Turns),
		Outcome:    d.Outcome,
		Entities:   entities,
		Turns:      turns,
	}, nil
}

// track renders the distinct consecutive cells of a path as WKT and
// returns its euclidean length in cells.
func track(positions [][2]int) (string, float64, error) {
	coords := make([]float64, 0, len(positions)*2)
	var last [2]int
	for i, p := range positions {
		if i > 0 && p == last {
			continue
		}
		coords = append(coords, float64(p[0]), float64(p[1]))
		last = p
	}

	switch len(coords) {
	case 0:
		return "", 0, nil
	case 2:
		pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: coords[0], Y: coords[1]}, Type: geom.DimXY})
		if err != nil {
			return "", 0, fmt.Errorf("failed to build point: %w", err)
		}
		return pt.AsText(), 0, nil
	}

	seq := geom.NewSequence(coords, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build line string: %w", err)
	}
	return ls.AsText(), ls.Length(), nil
}

// Write encodes r as JSON, gzip-compressed when compress is set.
func Write(w io.Writer, r Replay, compress bool) error {
	if !compress {
		return encode(w, r)
	}

	gz := gzip.NewWriter(w)
	if err := encode(gz, r); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}

func encode(w io.Writer, r Replay) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	return nil
}

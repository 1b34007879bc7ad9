// Package scenario loads scenario files and provides the built-in default.
// A scenario is consumed once, when the world is built.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/wargame2d/engine/internal/world"
	"github.com/wargame2d/engine/pkg/core"
)

// ErrInvalidScenario is shared with the world so callers match one sentinel.
var ErrInvalidScenario = world.ErrInvalidScenario

// Load reads a JSON or YAML scenario file, picking the format from the extension.
func Load(path string) (core.Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return core.Scenario{}, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	sc, err := decode(v)
	if err != nil {
		return core.Scenario{}, fmt.Errorf("decoding scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Read decodes a scenario from r. format is "json" or "yaml".
func Read(r io.Reader, format string) (core.Scenario, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return core.Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := decode(v)
	if err != nil {
		return core.Scenario{}, fmt.Errorf("decoding scenario: %w", err)
	}
	return sc, nil
}

func decode(v *viper.Viper) (core.Scenario, error) {
	var sc core.Scenario
	err := v.Unmarshal(&sc, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	return sc, err
}

// Validate checks the agent list and that the scenario builds a world.
func Validate(sc core.Scenario) error {
	seen := make(map[core.Team]bool)
	for _, a := range sc.Agents {
		if a.Team != core.TeamBlue && a.Team != core.TeamRed {
			return fmt.Errorf("%w: agent %q has no team", ErrInvalidScenario, a.Name)
		}
		if seen[a.Team] {
			return fmt.Errorf("%w: team %s has more than one agent", ErrInvalidScenario, a.Team)
		}
		seen[a.Team] = true
	}
	_, err := world.New(sc)
	if err != nil && !errors.Is(err, ErrInvalidScenario) {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return err
}

// Agent returns the agent spec for team, if the scenario names one.
func Agent(sc core.Scenario, team core.Team) (core.AgentSpec, bool) {
	for _, a := range sc.Agents {
		if a.Team == team {
			return a, true
		}
	}
	return core.AgentSpec{}, false
}

// pkg/core/types.go
package core

import (
	"fmt"
	"strings"
)

// Team is one of the two sides of an episode.
type Team uint8

const (
	TeamNone Team = iota
	TeamBlue
	TeamRed
)

// Teams lists the playable sides in resolution order.
var Teams = []Team{TeamBlue, TeamRed}

func (t Team) String() string {
	switch t {
	case TeamBlue:
		return "BLUE"
	case TeamRed:
		return "RED"
	default:
		return "NONE"
	}
}

// Enemy returns the opposing side.
func (t Team) Enemy() Team {
	switch t {
	case TeamBlue:
		return TeamRed
	case TeamRed:
		return TeamBlue
	default:
		return TeamNone
	}
}

// ParseTeam converts "BLUE"/"RED" (any case) into a Team.
func ParseTeam(s string) (Team, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BLUE":
		return TeamBlue, nil
	case "RED":
		return TeamRed, nil
	case "", "NONE":
		return TeamNone, nil
	}
	return TeamNone, fmt.Errorf("unknown team %q", s)
}

func (t Team) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Team) UnmarshalText(b []byte) error {
	v, err := ParseTeam(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Kind is the unit type of an entity.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAWACS
	KindAircraft
	KindSAM
	KindDecoy
)

func (k Kind) String() string {
	switch k {
	case KindAWACS:
		return "AWACS"
	case KindAircraft:
		return "AIRCRAFT"
	case KindSAM:
		return "SAM"
	case KindDecoy:
		return "DECOY"
	default:
		return "UNKNOWN"
	}
}

// IsHighValue reports whether the kind is prioritised for targeting (AWACS or SAM).
func (k Kind) IsHighValue() bool {
	return k == KindAWACS || k == KindSAM
}

// ParseKind accepts both the scenario "kind" ("aircraft") and "type" ("Aircraft") spellings.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AWACS":
		return KindAWACS, nil
	case "AIRCRAFT", "FIGHTER":
		return KindAircraft, nil
	case "SAM":
		return KindSAM, nil
	case "DECOY":
		return KindDecoy, nil
	}
	return KindUnknown, fmt.Errorf("unknown entity kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Position is an integer grid cell.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pos is shorthand for Position{X: x, Y: y}.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// Add returns p shifted by the direction's delta.
func (p Position) Add(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is a single-cell move. UP increases y.
type Direction uint8

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
	DirUpLeft
	DirUpRight
	DirDownLeft
	DirDownRight
)

// CardinalDirections is the fixed order used for legal MOVE actions.
var CardinalDirections = []Direction{DirUp, DirDown, DirLeft, DirRight}

// DiagonalDirections follow the cardinal ones when diagonal moves are enabled.
var DiagonalDirections = []Direction{DirUpLeft, DirUpRight, DirDownLeft, DirDownRight}

var directionDeltas = map[Direction][2]int{
	DirUp:        {0, 1},
	DirDown:      {0, -1},
	DirLeft:      {-1, 0},
	DirRight:     {1, 0},
	DirUpLeft:    {-1, 1},
	DirUpRight:   {1, 1},
	DirDownLeft:  {-1, -1},
	DirDownRight: {1, -1},
}

var directionNames = map[Direction]string{
	DirUp:        "UP",
	DirDown:      "DOWN",
	DirLeft:      "LEFT",
	DirRight:     "RIGHT",
	DirUpLeft:    "UP_LEFT",
	DirUpRight:   "UP_RIGHT",
	DirDownLeft:  "DOWN_LEFT",
	DirDownRight: "DOWN_RIGHT",
}

// Delta returns the (dx, dy) step of the direction.
func (d Direction) Delta() (int, int) {
	v := directionDeltas[d]
	return v[0], v[1]
}

func (d Direction) String() string {
	if n, ok := directionNames[d]; ok {
		return n
	}
	return "NONE"
}

// ParseDirection converts a direction name (any case) into a Direction.
func ParseDirection(s string) (Direction, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for d, n := range directionNames {
		if n == up {
			return d, nil
		}
	}
	if up == "" || up == "NONE" {
		return DirNone, nil
	}
	return DirNone, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

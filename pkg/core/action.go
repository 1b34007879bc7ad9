// pkg/core/action.go
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionType tags the Action variant.
type ActionType uint8

const (
	ActionWait ActionType = iota
	ActionMove
	ActionShoot
	ActionToggle
)

func (t ActionType) String() string {
	switch t {
	case ActionWait:
		return "WAIT"
	case ActionMove:
		return "MOVE"
	case ActionShoot:
		return "SHOOT"
	case ActionToggle:
		return "TOGGLE"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is one of the four action variants.
func (t ActionType) Valid() bool { return t <= ActionToggle }

// ParseActionType converts an action name (any case) into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WAIT", "":
		return ActionWait, nil
	case "MOVE":
		return ActionMove, nil
	case "SHOOT":
		return ActionShoot, nil
	case "TOGGLE":
		return ActionToggle, nil
	}
	return ActionWait, fmt.Errorf("unknown action type %q", s)
}

func (t ActionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ActionType) UnmarshalText(b []byte) error {
	v, err := ParseActionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Action is a tagged value. Only the field matching Type is meaningful:
// Direction for MOVE, TargetID for SHOOT. The acting entity is never part
// of the action; it is the key it is submitted under.
type Action struct {
	Type      ActionType `json:"type"`
	Direction Direction  `json:"dir,omitempty"`
	TargetID  int        `json:"targetId,omitempty"`
}

// Wait returns the no-op action.
func Wait() Action { return Action{Type: ActionWait} }

// Move returns a single-cell move in direction d.
func Move(d Direction) Action { return Action{Type: ActionMove, Direction: d} }

// Shoot returns a missile launch at the entity with the given id.
func Shoot(targetID int) Action { return Action{Type: ActionShoot, TargetID: targetID} }

// Toggle returns the SAM radar on/off switch.
func Toggle() Action { return Action{Type: ActionToggle} }

// Normalized drops parameters that do not belong to the action's variant.
func (a Action) Normalized() Action {
	switch a.Type {
	case ActionMove:
		return Move(a.Direction)
	case ActionShoot:
		return Shoot(a.TargetID)
	case ActionToggle:
		return Toggle()
	default:
		return Wait()
	}
}

// Equal compares type and the parameters relevant to the type.
func (a Action) Equal(o Action) bool {
	return a.Normalized() == o.Normalized()
}

// Key is a stable content identity ("MOVE:UP", "SHOOT:12") used to detect
// drift between a legal-action list and an index chosen from it.
func (a Action) Key() string {
	switch a.Type {
	case ActionMove:
		return "MOVE:" + a.Direction.String()
	case ActionShoot:
		return "SHOOT:" + strconv.Itoa(a.TargetID)
	default:
		return a.Type.String()
	}
}

func (a Action) String() string {
	return a.Key()
}

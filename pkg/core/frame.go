// pkg/core/frame.go
package core

// Frame is the read-only picture of a world between turns, as handed to
// UIs and replay consumers.
type Frame struct {
	Turn       int              `json:"turn"`
	GridWidth  int              `json:"gridWidth"`
	GridHeight int              `json:"gridHeight"`
	Entities   []EntitySnapshot `json:"entities"`
	Views      []TeamView       `json:"views"`
	Outcome    Outcome          `json:"outcome"`
}

// Entity looks up a snapshot by id.
func (f Frame) Entity(id int) (EntitySnapshot, bool) {
	for _, e := range f.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return EntitySnapshot{}, false
}

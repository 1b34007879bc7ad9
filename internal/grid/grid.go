// Package grid holds the board geometry: bounds and distance metrics.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/wargame2d/engine/pkg/core"
)

// ErrInvalidSize is returned when a grid would have no cells.
var ErrInvalidSize = errors.New("grid dimensions must be positive")

// Grid is an immutable width x height board. Cells are [0,width) x [0,height).
type Grid struct {
	width  int
	height int
}

// New validates and returns a grid.
func New(width, height int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return Grid{width: width, height: height}, nil
}

func (g Grid) Width() int  { return g.width }
func (g Grid) Height() int { return g.height }

// InBounds reports whether p lies on the board.
func (g Grid) InBounds(p core.Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// ManhattanDistance is the integer metric used for movement reasoning.
func ManhattanDistance(a, b core.Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Distance is the Euclidean metric used for radar, range and hit probability.
func Distance(a, b core.Position) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

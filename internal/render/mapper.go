package render

import (
	"fmt"
	"math"

	"github.com/park285/Cheese-Checkers-bot/internal/checkers"
)

// Vec3 is a world-space position.
type Vec3 struct {
	X, Y, Z float64
}

// CellMapper converts between board cells and world coordinates of a board
// lying in the XZ plane.
type CellMapper struct {
	Origin   Vec3
	CellSize float64
	Height   float64
}

// CellPosition is origin + (col*cellSize, height, row*cellSize).
func (m CellMapper) CellPosition(row, col int) Vec3 {
	return Vec3{
		X: m.Origin.X + float64(col)*m.CellSize,
		Y: m.Origin.Y + m.Height,
		Z: m.Origin.Z + float64(row)*m.CellSize,
	}
}

// Pick returns the cell whose centre is nearest to p. Points off the board
// report checkers.ErrOutOfBounds.
func (m CellMapper) Pick(p Vec3) (checkers.Square, error) {
	if m.CellSize <= 0 {
		return checkers.Square{}, fmt.Errorf("cell size must be positive, got %v", m.CellSize)
	}
	col := int(math.Round((p.X - m.Origin.X) / m.CellSize))
	row := int(math.Round((p.Z - m.Origin.Z) / m.CellSize))
	sq := checkers.Sq(row, col)
	if !sq.Valid() {
		return checkers.Square{}, fmt.Errorf("%w: pick (%.2f, %.2f)", checkers.ErrOutOfBounds, p.X, p.Z)
	}
	return sq, nil
}

package tile

import "fmt"

// Rotation is a clockwise quarter-turn angle in degrees.
type Rotation int

const (
	R0   Rotation = 0
	R90  Rotation = 90
	R180 Rotation = 180
	R270 Rotation = 270
)

// Rotations lists every legal rotation in ascending order.
var Rotations = [4]Rotation{R0, R90, R180, R270}

// ParseRotation validates a rotation received from the server.
func ParseRotation(deg int) (Rotation, error) {
	switch deg {
	case 0, 90, 180, 270:
		return Rotation(deg), nil
	}
	return R0, fmt.Errorf("invalid rotation %d", deg)
}

// Steps returns the number of quarter turns, 0..3.
func (r Rotation) Steps() int {
	s := (int(r) / 90) % 4
	if s < 0 {
		s += 4
	}
	return s
}

// Next returns the rotation one quarter turn further clockwise.
func (r Rotation) Next() Rotation {
	return Rotation(((r.Steps() + 1) % 4) * 90)
}

// Inverse returns the rotation that undoes r.
func (r Rotation) Inverse() Rotation {
	return Rotation(((4 - r.Steps()) % 4) * 90)
}

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}

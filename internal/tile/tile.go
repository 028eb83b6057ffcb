package tile

import "fmt"

// Feature is the terrain carried by one edge of a tile.
type Feature uint8

const (
	Field        Feature = iota // open ground, drawn as background
	Road                        // road strip
	City                        // walled city wedge
	featureCount                // sentinel
)

// FeatureName returns a short display name for a feature.
func FeatureName(f Feature) string {
	switch f {
	case Field:
		return "Field"
	case Road:
		return "Road"
	case City:
		return "City"
	default:
		return "Unknown"
	}
}

// Center is the feature drawn in the middle of a tile.
// Values match the server's wire codes.
type Center uint8

const (
	CenterNone      Center = iota // nothing in the middle
	CenterRoad                    // road passes through; renders like CenterNone
	CenterMonastery               // monastery icon
	CenterCityHub                 // city disc joining city edges
	CenterCrossroad               // junction dot; roads end here
	centerCount                   // sentinel
)

// CenterName returns a short display name for a center feature.
func CenterName(c Center) string {
	switch c {
	case CenterNone:
		return "None"
	case CenterRoad:
		return "Road"
	case CenterMonastery:
		return "Monastery"
	case CenterCityHub:
		return "CityHub"
	case CenterCrossroad:
		return "Crossroad"
	default:
		return "Unknown"
	}
}

// Side is one of the four cardinal edges of a cell.
type Side uint8

const (
	North Side = iota
	East
	South
	West
	sideCount // sentinel
)

// Sides lists the cardinal sides in encoding order.
var Sides = [sideCount]Side{North, East, South, West}

// String returns the single-letter side code used on the wire.
func (s Side) String() string {
	switch s {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return "?"
	}
}

// Opposite returns the side facing s.
func (s Side) Opposite() Side {
	return (s + 2) % sideCount
}

// Adjacent reports whether a and b share a corner.
func (s Side) Adjacent(o Side) bool {
	return s != o && s.Opposite() != o
}

// Edges holds the features of a tile's four sides ordered N, E, S, W.
type Edges [sideCount]Feature

// Rotate returns the edge sequence as seen after turning the tile by r.
// A 90° turn is clockwise: the feature that was on North ends up on East.
func (e Edges) Rotate(r Rotation) Edges {
	steps := r.Steps()
	var out Edges
	for i := range e {
		out[(i+steps)%len(e)] = e[i]
	}
	return out
}

// Unrotate is the inverse of Rotate.
func (e Edges) Unrotate(r Rotation) Edges {
	return e.Rotate(r.Inverse())
}

// Count returns how many sides carry f.
func (e Edges) Count(f Feature) int {
	n := 0
	for _, x := range e {
		if x == f {
			n++
		}
	}
	return n
}

// SidesWith returns the sides carrying f in N, E, S, W order.
func (e Edges) SidesWith(f Feature) []Side {
	var out []Side
	for _, s := range Sides {
		if e[s] == f {
			out = append(out, s)
		}
	}
	return out
}

// String renders the edges as a compact code, e.g. "CRFR".
func (e Edges) String() string {
	b := make([]byte, len(e))
	for i, f := range e {
		switch f {
		case Road:
			b[i] = 'R'
		case City:
			b[i] = 'C'
		default:
			b[i] = 'F'
		}
	}
	return string(b)
}

// Tile is an immutable description of a tile's features. Its identity is the
// feature encoding, independent of any rotation it is placed with.
type Tile struct {
	Type   string // server-side tile type name, informational
	Edges  Edges
	Center Center
	Shield bool
}

// EdgeAt returns the feature on side s after turning the tile by r.
func (t Tile) EdgeAt(s Side, r Rotation) Feature {
	return t.Edges.Rotate(r)[s]
}

// Key returns the rotation-independent identity of the tile.
func (t Tile) Key() string {
	shield := ""
	if t.Shield {
		shield = "+s"
	}
	return fmt.Sprintf("%s/%d%s", t.Edges, t.Center, shield)
}

// ParseFeature validates a wire feature code.
func ParseFeature(code int) (Feature, error) {
	if code < 0 || code >= int(featureCount) {
		return Field, fmt.Errorf("unknown edge feature %d", code)
	}
	return Feature(code), nil
}

// ParseCenter validates a wire center code.
func ParseCenter(code int) (Center, error) {
	if code < 0 || code >= int(centerCount) {
		return CenterNone, fmt.Errorf("unknown center feature %d", code)
	}
	return Center(code), nil
}

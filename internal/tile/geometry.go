package tile

import "image/color"

// Point is a position in unit-cell coordinates: (0,0) is the top-left corner
// of the cell and (1,1) the bottom-right.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Scale returns p scaled by k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// ShapeKind selects how a Shape's geometry is interpreted.
type ShapeKind uint8

const (
	ShapePolygon ShapeKind = iota // closed polygon through Points
	ShapeCircle                   // disc at Center with Radius
)

// Role tags what part of the tile a shape depicts.
type Role uint8

const (
	RoleBackground Role = iota
	RoleEdge            // per-side road strip or city wedge
	RoleCorridor        // road joining exactly two road edges
	RoleStub            // independent road end into the center
	RoleCityJoin        // enlarged disc joining city edges around a hub
	RoleCenter          // center glyph
	RoleSpecial         // shield marker
)

// Shape is one drawable primitive of a rendered tile.
type Shape struct {
	Kind        ShapeKind
	Role        Role
	Side        Side // meaningful for RoleEdge and RoleStub
	Feature     Feature
	Points      []Point
	Center      Point
	Radius      float64
	Fill        color.RGBA
	Stroke      color.RGBA // zero alpha: no outline
	StrokeWidth float64
}

// Palette colours, matching the server's web client so boards look the same
// in both front ends.
var (
	ColorField     = color.RGBA{R: 0x4a, G: 0x7c, B: 0x3f, A: 0xff}
	ColorRoad      = color.RGBA{R: 0xc4, G: 0xa3, B: 0x5a, A: 0xff}
	ColorCity      = color.RGBA{R: 0x8b, G: 0x45, B: 0x13, A: 0xff}
	ColorCityEdge  = color.RGBA{R: 0x6b, G: 0x34, B: 0x10, A: 0xff}
	ColorMonastery = color.RGBA{R: 0x8b, G: 0x00, B: 0x00, A: 0xff}
	ColorCrossroad = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	ColorJunction  = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	ColorShield    = color.RGBA{R: 0x1a, G: 0x52, B: 0x76, A: 0xff}
	ColorTileEdge  = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	colorWhite     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Geometry constants, as fractions of the cell side.
const (
	edgeInset      = 0.25  // depth of edge regions from the border
	roadHalfWidth  = 0.15  // half width of road strips and corridors
	stubHalfWidth  = 0.08  // half width of crossroad stubs
	hubRadius      = 0.30  // city hub disc
	cityJoinRadius = 0.35  // enlarged disc joining city edges
	crossroadDot   = 0.075 // crossroad junction dot
	lineWidth      = 0.0125
)

var cellCenter = Point{0.5, 0.5}

// outward returns the unit vector from the cell center towards side s.
func outward(s Side) Point {
	switch s {
	case North:
		return Point{0, -1}
	case East:
		return Point{1, 0}
	case South:
		return Point{0, 1}
	default:
		return Point{-1, 0}
	}
}

// across returns a unit vector perpendicular to outward(s).
func across(s Side) Point {
	d := outward(s)
	return Point{-d.Y, d.X}
}

// innerPoint is where an edge region meets the tile interior on side s.
func innerPoint(s Side) Point {
	return cellCenter.Add(outward(s).Scale(0.5 - edgeInset))
}

// edgeMidpoint is the middle of the border on side s.
func edgeMidpoint(s Side) Point {
	return cellCenter.Add(outward(s).Scale(0.5))
}

// Render maps a tile and rotation to an ordered list of shapes anchored to the
// unit cell. Drawing the shapes in order produces the tile image.
//
// Per-side regions are emitted first, then cross-edge connectors, then the
// center glyph and the special marker. Connectivity cannot be read off a single
// edge, so connectors are derived from the whole rotated edge set.
func Render(t Tile, r Rotation) []Shape {
	edges := t.Edges.Rotate(r)
	shapes := make([]Shape, 0, 12)
	shapes = append(shapes, background())
	for _, s := range Sides {
		if sh, ok := edgeShape(s, edges[s]); ok {
			shapes = append(shapes, sh)
		}
	}
	shapes = append(shapes, roadConnectors(edges, t.Center)...)
	if sh, ok := cityJoin(edges, t.Center); ok {
		shapes = append(shapes, sh)
	}
	shapes = append(shapes, centerGlyph(t.Center)...)
	if t.Shield {
		shapes = append(shapes, shield())
	}
	return shapes
}

func background() Shape {
	return Shape{
		Kind:        ShapePolygon,
		Role:        RoleBackground,
		Feature:     Field,
		Points:      []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Fill:        ColorField,
		Stroke:      ColorTileEdge,
		StrokeWidth: lineWidth,
	}
}

// edgeShape dispatches on the effective feature of one side. Field sides are
// left to the background.
func edgeShape(s Side, f Feature) (Shape, bool) {
	switch f {
	case Road:
		return Shape{
			Kind:    ShapePolygon,
			Role:    RoleEdge,
			Side:    s,
			Feature: Road,
			Points:  strip(edgeMidpoint(s), innerPoint(s), across(s), roadHalfWidth),
			Fill:    ColorRoad,
		}, true
	case City:
		return Shape{
			Kind:        ShapePolygon,
			Role:        RoleEdge,
			Side:        s,
			Feature:     City,
			Points:      cityWedge(s),
			Fill:        ColorCity,
			Stroke:      ColorCityEdge,
			StrokeWidth: lineWidth,
		}, true
	default:
		return Shape{}, false
	}
}

// strip is the rectangle of half width hw around the segment a-b, where n is
// perpendicular to the segment.
func strip(a, b, n Point, hw float64) []Point {
	return []Point{
		a.Add(n.Scale(hw)),
		a.Add(n.Scale(-hw)),
		b.Add(n.Scale(-hw)),
		b.Add(n.Scale(hw)),
	}
}

// cityWedge is the trapezoid spanning the full border of side s and narrowing
// to the inset line.
func cityWedge(s Side) []Point {
	mid := edgeMidpoint(s)
	in := innerPoint(s)
	n := across(s)
	return []Point{
		mid.Add(n.Scale(0.5)),
		mid.Add(n.Scale(-0.5)),
		in.Add(n.Scale(-(0.5 - edgeInset))),
		in.Add(n.Scale(0.5 - edgeInset)),
	}
}

// roadConnectors joins road edges through the tile interior. A crossroad
// center always gets one stub per road edge and never a corridor.
func roadConnectors(edges Edges, c Center) []Shape {
	roads := edges.SidesWith(Road)
	if c == CenterCrossroad || len(roads) > 2 {
		out := make([]Shape, 0, len(roads))
		for _, s := range roads {
			out = append(out, Shape{
				Kind:    ShapePolygon,
				Role:    RoleStub,
				Side:    s,
				Feature: Road,
				Points:  strip(innerPoint(s), cellCenter, across(s), stubHalfWidth),
				Fill:    ColorRoad,
			})
		}
		return out
	}
	if len(roads) != 2 {
		return nil
	}
	a, b := roads[0], roads[1]
	var pts []Point
	if a.Opposite() == b {
		pts = strip(innerPoint(a), innerPoint(b), across(a), roadHalfWidth)
	} else {
		pts = bend(a, b, roadHalfWidth)
	}
	return []Shape{{
		Kind:    ShapePolygon,
		Role:    RoleCorridor,
		Side:    a,
		Feature: Road,
		Points:  pts,
		Fill:    ColorRoad,
	}}
}

// bend returns the L-shaped outline of a corridor running from side a into
// the center and out to the adjacent side b.
func bend(a, b Side, hw float64) []Point {
	da, db := outward(a), outward(b)
	pa, pb := innerPoint(a), innerPoint(b)
	c := cellCenter
	return []Point{
		pa.Add(db.Scale(hw)),
		pa.Add(db.Scale(-hw)),
		c.Add(db.Scale(-hw)).Add(da.Scale(-hw)),
		pb.Add(da.Scale(-hw)),
		pb.Add(da.Scale(hw)),
		c.Add(da.Scale(hw)).Add(db.Scale(hw)),
	}
}

// cityJoin merges two or more city edges around a hub into one region.
func cityJoin(edges Edges, c Center) (Shape, bool) {
	if c != CenterCityHub || edges.Count(City) < 2 {
		return Shape{}, false
	}
	return Shape{
		Kind:        ShapeCircle,
		Role:        RoleCityJoin,
		Feature:     City,
		Center:      cellCenter,
		Radius:      cityJoinRadius,
		Fill:        ColorCity,
		Stroke:      ColorCityEdge,
		StrokeWidth: lineWidth,
	}, true
}

// centerGlyph dispatches on the center feature.
func centerGlyph(c Center) []Shape {
	switch c {
	case CenterMonastery:
		return []Shape{
			{
				Kind:        ShapePolygon,
				Role:        RoleCenter,
				Points:      []Point{{0.35, 0.35}, {0.65, 0.35}, {0.65, 0.65}, {0.35, 0.65}},
				Fill:        ColorMonastery,
				Stroke:      colorWhite,
				StrokeWidth: lineWidth,
			},
			{
				Kind:   ShapePolygon,
				Role:   RoleCenter,
				Points: []Point{{0.5, 0.275}, {0.675, 0.425}, {0.325, 0.425}},
				Fill:   ColorMonastery,
			},
		}
	case CenterCityHub:
		return []Shape{{
			Kind:        ShapeCircle,
			Role:        RoleCenter,
			Feature:     City,
			Center:      cellCenter,
			Radius:      hubRadius,
			Fill:        ColorCity,
			Stroke:      ColorCityEdge,
			StrokeWidth: lineWidth,
		}}
	case CenterCrossroad:
		return []Shape{{
			Kind:        ShapeCircle,
			Role:        RoleCenter,
			Feature:     Road,
			Center:      cellCenter,
			Radius:      crossroadDot,
			Fill:        ColorCrossroad,
			Stroke:      ColorJunction,
			StrokeWidth: lineWidth,
		}}
	default:
		return nil
	}
}

func shield() Shape {
	return Shape{
		Kind: ShapePolygon,
		Role: RoleSpecial,
		Points: []Point{
			{0.425, 0.425}, {0.575, 0.425}, {0.575, 0.525}, {0.5, 0.6}, {0.425, 0.525},
		},
		Fill:        ColorShield,
		Stroke:      colorWhite,
		StrokeWidth: lineWidth,
	}
}

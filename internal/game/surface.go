package game

import (
	"image/color"
	"math"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

// Vec is a 2-D point. World coordinates are board pixels at zoom 1: cell
// (x, y) spans [x*TileSize, (x+1)*TileSize).
type Vec struct {
	X, Y float64
}

func (v Vec) add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// PrimKind selects how a Prim is drawn.
type PrimKind uint8

const (
	PrimPolygon PrimKind = iota
	PrimCircle
	PrimText
)

// Prim is one drawing primitive in world coordinates.
type Prim struct {
	Kind        PrimKind
	Points      []Vec // polygon outline
	Center      Vec   // circle center, or text origin (top-left)
	Radius      float64
	Fill        color.Color // nil: no fill
	Stroke      color.Color // nil: no outline
	StrokeWidth float64
	Text        string
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r Rect) corners() []Vec {
	return []Vec{{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X + r.W, r.Y + r.H}, {r.X, r.Y + r.H}}
}

// HitKind says what a click on a group means.
type HitKind uint8

const (
	HitNone HitKind = iota
	HitSlot
	HitToken
	HitSpecial
)

// Hit is the interactive part of a group: a region and what it stands for.
type Hit struct {
	Kind     HitKind
	Region   Rect    // used when Radius is 0
	Center   Vec     // circular region
	Radius   float64 // >0 selects the circular region
	At       api.Coord
	Position api.Position
}

func (h *Hit) contains(p Vec) bool {
	if h.Radius > 0 {
		return math.Hypot(p.X-h.Center.X, p.Y-h.Center.Y) <= h.Radius
	}
	return h.Region.Contains(p)
}

// Group is a set of primitives composed and hit-tested together.
type Group struct {
	ID      string
	Opacity float64 // 0 means fully opaque
	Prims   []Prim
	Hit     *Hit // nil: not interactive
}

// Layer is an ordered list of groups with its own opacity and visibility.
// Layers are rebuilt from scratch, never patched.
type Layer struct {
	Name    string
	Opacity float64
	Hidden  bool
	Groups  []Group
}

// NewLayer returns an empty, visible, opaque layer.
func NewLayer(name string) *Layer {
	return &Layer{Name: name, Opacity: 1}
}

// Reset drops every group.
func (l *Layer) Reset() { l.Groups = l.Groups[:0] }

// Add appends a group.
func (l *Layer) Add(g Group) { l.Groups = append(l.Groups, g) }

// Find returns the group with the given id.
func (l *Layer) Find(id string) (*Group, bool) {
	for i := range l.Groups {
		if l.Groups[i].ID == id {
			return &l.Groups[i], true
		}
	}
	return nil, false
}

// Surface is a 2-D drawing target in screen pixels.
type Surface interface {
	Size() (w, h int)
	FillPolygon(pts []Vec, c color.Color)
	StrokePolygon(pts []Vec, width float64, c color.Color)
	FillCircle(center Vec, r float64, c color.Color)
	StrokeCircle(center Vec, r, width float64, c color.Color)
	Text(s string, at Vec, c color.Color)
}

// fade scales c's alpha by k.
func fade(c color.Color, k float64) color.Color {
	if c == nil {
		return nil
	}
	if k >= 1 {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(math.Round(float64(n.A) * clamp01(k)))
	return n
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func opacity(o float64) float64 {
	if o <= 0 {
		return 1
	}
	return o
}

// Paint draws layers bottom to top onto s through cam.
func Paint(s Surface, cam *Camera, layers ...*Layer) {
	for _, l := range layers {
		if l == nil || l.Hidden {
			continue
		}
		lo := opacity(l.Opacity)
		for gi := range l.Groups {
			g := &l.Groups[gi]
			k := lo * opacity(g.Opacity)
			for pi := range g.Prims {
				paintPrim(s, cam, &g.Prims[pi], k)
			}
		}
	}
}

func paintPrim(s Surface, cam *Camera, p *Prim, k float64) {
	z := cam.Zoom
	switch p.Kind {
	case PrimPolygon:
		pts := make([]Vec, len(p.Points))
		for i, q := range p.Points {
			pts[i] = cam.WorldToScreen(q)
		}
		if p.Fill != nil {
			s.FillPolygon(pts, fade(p.Fill, k))
		}
		if p.Stroke != nil && p.StrokeWidth > 0 {
			s.StrokePolygon(pts, p.StrokeWidth*z, fade(p.Stroke, k))
		}
	case PrimCircle:
		c := cam.WorldToScreen(p.Center)
		if p.Fill != nil {
			s.FillCircle(c, p.Radius*z, fade(p.Fill, k))
		}
		if p.Stroke != nil && p.StrokeWidth > 0 {
			s.StrokeCircle(c, p.Radius*z, p.StrokeWidth*z, fade(p.Stroke, k))
		}
	case PrimText:
		s.Text(p.Text, cam.WorldToScreen(p.Center), fade(p.Fill, k))
	}
}

// HitTest returns the topmost interactive group under the world point p.
// Later layers and later groups win.
func HitTest(p Vec, layers ...*Layer) (*Group, bool) {
	for li := len(layers) - 1; li >= 0; li-- {
		l := layers[li]
		if l == nil || l.Hidden {
			continue
		}
		for gi := len(l.Groups) - 1; gi >= 0; gi-- {
			g := &l.Groups[gi]
			if g.Hit != nil && g.Hit.Kind != HitNone && g.Hit.contains(p) {
				return g, true
			}
		}
	}
	return nil, false
}

// cellRect is the world rectangle covered by cell c.
func cellRect(c api.Coord, size float64) Rect {
	return Rect{X: float64(c.X) * size, Y: float64(c.Y) * size, W: size, H: size}
}

// CellAt returns the board cell containing world point p.
func CellAt(p Vec, size float64) api.Coord {
	return api.Coord{X: int(math.Floor(p.X / size)), Y: int(math.Floor(p.Y / size))}
}

// tilePrims maps the unit-cell shapes of a rendered tile into the world cell
// with top-left origin and side length size.
func tilePrims(t tile.Tile, r tile.Rotation, origin Vec, size float64) []Prim {
	shapes := tile.Render(t, r)
	out := make([]Prim, 0, len(shapes))
	toWorld := func(p tile.Point) Vec {
		return Vec{origin.X + p.X*size, origin.Y + p.Y*size}
	}
	for _, sh := range shapes {
		p := Prim{Fill: sh.Fill, StrokeWidth: sh.StrokeWidth * size}
		if sh.Stroke.A > 0 {
			p.Stroke = sh.Stroke
		}
		switch sh.Kind {
		case tile.ShapeCircle:
			p.Kind = PrimCircle
			p.Center = toWorld(sh.Center)
			p.Radius = sh.Radius * size
		default:
			p.Kind = PrimPolygon
			p.Points = make([]Vec, len(sh.Points))
			for i, q := range sh.Points {
				p.Points[i] = toWorld(q)
			}
		}
		out = append(out, p)
	}
	return out
}

// rectPrim is a filled and outlined rectangle.
func rectPrim(r Rect, fill, stroke color.Color, width float64) Prim {
	return Prim{Kind: PrimPolygon, Points: r.corners(), Fill: fill, Stroke: stroke, StrokeWidth: width}
}

// textPrim places s with its top-left corner at at.
func textPrim(s string, at Vec, c color.Color) Prim {
	return Prim{Kind: PrimText, Text: s, Center: at, Fill: c}
}

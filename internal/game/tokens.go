package game

import (
	"image/color"
	"strconv"

	"github.com/Garsondee/Tile-Board/internal/api"
)

// sideOffsets anchors token markers within a cell, as fractions of its side.
var sideOffsets = map[api.Position]Vec{
	api.PosNorth:  {0.5, 0.15},
	api.PosEast:   {0.85, 0.5},
	api.PosSouth:  {0.5, 0.85},
	api.PosWest:   {0.15, 0.5},
	api.PosCenter: {0.5, 0.5},
}

// tokenAnchor returns the world position of a token at pos on cell at.
func tokenAnchor(at api.Coord, pos api.Position, size float64) Vec {
	off, ok := sideOffsets[pos]
	if !ok {
		off = sideOffsets[api.PosCenter]
	}
	return Vec{(float64(at.X) + off.X) * size, (float64(at.Y) + off.Y) * size}
}

// playerColors are assigned by seat order.
var playerColors = []color.RGBA{
	{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff},
	{R: 0x34, G: 0x98, B: 0xdb, A: 0xff},
	{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff},
	{R: 0xf3, G: 0x9c, B: 0x12, A: 0xff},
}

// PlayerColor returns the colour of the player in seat i.
func PlayerColor(i int) color.RGBA {
	if i < 0 || i >= len(playerColors) {
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	return playerColors[i]
}

var (
	colorMarkerFill   = color.NRGBA{R: 233, G: 69, B: 96, A: 128}
	colorMarkerHover  = color.NRGBA{R: 233, G: 69, B: 96, A: 217}
	colorMarkerStroke = color.NRGBA{R: 0xe9, G: 0x45, B: 0x60, A: 255}
	colorMarkerTile   = color.NRGBA{R: 233, G: 69, B: 96, A: 20}
	colorOutline      = color.NRGBA{A: 255}
)

const markerRadius = 11

// TokenIntent is the player's answer to the token sub-phase.
type TokenIntent struct {
	Position api.Position
	Skip     bool
}

// TokenOverlay offers the token positions on the tile just placed.
type TokenOverlay struct {
	active  bool
	at      api.Coord
	options []api.TokenOption
	hover   api.Position
}

// Activate shows options anchored at the last placed tile. A nil anchor
// leaves the overlay inactive.
func (o *TokenOverlay) Activate(at *api.Coord, options []api.TokenOption) {
	if at == nil {
		o.Clear()
		return
	}
	o.active = true
	o.at = *at
	o.options = options
	o.hover = ""
}

// Clear hides the overlay.
func (o *TokenOverlay) Clear() {
	*o = TokenOverlay{}
}

// Active reports whether the overlay is shown.
func (o *TokenOverlay) Active() bool { return o.active }

// Options returns the offered options.
func (o *TokenOverlay) Options() []api.TokenOption { return o.options }

// HoverPosition highlights the marker at pos; "" clears.
func (o *TokenOverlay) HoverPosition(pos api.Position) { o.hover = pos }

// Choose picks the marker at pos. The overlay clears.
func (o *TokenOverlay) Choose(pos api.Position) (TokenIntent, bool) {
	if !o.active {
		return TokenIntent{}, false
	}
	for _, opt := range o.options {
		if opt.Position == pos {
			o.Clear()
			return TokenIntent{Position: pos}, true
		}
	}
	return TokenIntent{}, false
}

// Skip declines to place a token. The overlay clears.
func (o *TokenOverlay) Skip() (TokenIntent, bool) {
	if !o.active {
		return TokenIntent{}, false
	}
	o.Clear()
	return TokenIntent{Skip: true}, true
}

// BuildLayer adds the overlay markers to l. It does not reset l, so the
// markers can share the overlay layer with other interactions.
func (o *TokenOverlay) BuildLayer(l *Layer, size float64) {
	if !o.active {
		return
	}
	r := cellRect(o.at, size)
	l.Add(Group{ID: "token-tile", Prims: []Prim{rectPrim(r, colorMarkerTile, colorMarkerStroke, 2)}})
	for _, opt := range o.options {
		c := tokenAnchor(o.at, opt.Position, size)
		fill := color.Color(colorMarkerFill)
		if o.hover == opt.Position {
			fill = colorMarkerHover
		}
		l.Add(Group{
			ID: "token:" + string(opt.Position),
			Prims: []Prim{
				{Kind: PrimCircle, Center: c, Radius: markerRadius, Fill: fill, Stroke: colorMarkerStroke, StrokeWidth: 2},
				textPrim(opt.Label(), Vec{c.X - 3, c.Y - 7}, color.White),
			},
			Hit: &Hit{Kind: HitToken, Center: c, Radius: markerRadius, At: o.at, Position: opt.Position},
		})
	}
}

// BuildTokenLayer rebuilds l with every placed token, coloured by seat.
func BuildTokenLayer(l *Layer, st *api.GameState, size float64) {
	l.Reset()
	if st == nil {
		return
	}
	for i, t := range st.Tokens.Placed {
		seat := st.Players.Index(t.PlayerID)
		col := PlayerColor(seat)
		p := tokenAnchor(t.At(), t.Position, size)
		l.Add(Group{
			ID: "placed:" + t.At().String() + ":" + string(t.Position) + ":" + strconv.Itoa(i),
			Prims: []Prim{
				{Kind: PrimCircle, Center: Vec{p.X, p.Y - 2}, Radius: 6, Fill: col, Stroke: colorOutline, StrokeWidth: 1.5},
				{Kind: PrimCircle, Center: Vec{p.X, p.Y - 10}, Radius: 3.5, Fill: col, Stroke: colorOutline, StrokeWidth: 1},
			},
		})
	}
}

package game

import (
	"image/color"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

// PlacementState is the phase of the tile placement interaction.
type PlacementState uint8

const (
	PlacementIdle PlacementState = iota
	PlacementTileSelected
	PlacementCommitting
)

// PlacementStateName returns a display name.
func PlacementStateName(s PlacementState) string {
	switch s {
	case PlacementIdle:
		return "idle"
	case PlacementTileSelected:
		return "tile-selected"
	case PlacementCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// SlotKind classifies a board cell for the selected hand tile.
type SlotKind uint8

const (
	SlotConfirmable    SlotKind = iota // a legal move matches the selected rotation
	SlotRotationNeeded                 // legal, but only at other rotations
	SlotPlaceholder                    // open slot, not legal for this tile
)

// MoveGroup is the legal moves sharing one coordinate, in server order.
type MoveGroup struct {
	At    api.Coord
	Moves []api.LegalMove
}

// GroupMoves groups moves by coordinate. Groups appear in order of first
// appearance and every move lands in exactly one group.
func GroupMoves(moves []api.LegalMove) []MoveGroup {
	var groups []MoveGroup
	index := map[api.Coord]int{}
	for _, m := range moves {
		at := m.At()
		i, ok := index[at]
		if !ok {
			i = len(groups)
			index[at] = i
			groups = append(groups, MoveGroup{At: at})
		}
		groups[i].Moves = append(groups[i].Moves, m)
	}
	return groups
}

// Slot is one cell of the placement overlay.
type Slot struct {
	At        api.Coord
	Kind      SlotKind
	Rotations []tile.Rotation // legal rotations, server order
}

// CommitIntent asks the server to place a hand tile.
type CommitIntent struct {
	HandIndex int
	X, Y      int
	Rotation  tile.Rotation
}

// Placement is the select/rotate/commit state machine. It owns the legal
// move set; rendering and hit testing only read from it.
type Placement struct {
	state    PlacementState
	hand     int
	rotation tile.Rotation
	moves    []api.LegalMove
	hover    api.Coord
	hovering bool
	reason   string
}

// NewPlacement returns an idle placement with no moves.
func NewPlacement() *Placement {
	return &Placement{hand: -1}
}

func (p *Placement) State() PlacementState   { return p.state }
func (p *Placement) Rotation() tile.Rotation { return p.rotation }

// Selected returns the selected hand index.
func (p *Placement) Selected() (int, bool) {
	return p.hand, p.hand >= 0
}

// Reason returns the last rejection reason.
func (p *Placement) Reason() string { return p.reason }

// SetMoves replaces the legal move set.
func (p *Placement) SetMoves(moves []api.LegalMove) {
	p.moves = moves
}

// ClearMoves drops the legal move set.
func (p *Placement) ClearMoves() { p.moves = nil }

// Moves returns the current legal move set.
func (p *Placement) Moves() []api.LegalMove { return p.moves }

// SelectTile selects a hand tile and resets the rotation.
func (p *Placement) SelectTile(idx int) {
	if p.state == PlacementCommitting || idx < 0 {
		return
	}
	p.hand = idx
	p.rotation = tile.R0
	p.reason = ""
	p.state = PlacementTileSelected
}

// Deselect returns to idle without committing.
func (p *Placement) Deselect() {
	if p.state == PlacementCommitting {
		return
	}
	p.hand = -1
	p.rotation = tile.R0
	p.state = PlacementIdle
}

// Rotate turns the selection a quarter turn clockwise.
func (p *Placement) Rotate() { p.rotation = p.rotation.Next() }

// SetRotation sets the selected rotation.
func (p *Placement) SetRotation(r tile.Rotation) { p.rotation = r }

// Hover records the cell under the pointer; nil clears it.
func (p *Placement) Hover(c *api.Coord) {
	if c == nil {
		p.hovering = false
		return
	}
	p.hover, p.hovering = *c, true
}

// Hovered reports the hovered cell.
func (p *Placement) Hovered() (api.Coord, bool) { return p.hover, p.hovering }

func (p *Placement) selectedMoves() []api.LegalMove {
	var out []api.LegalMove
	for _, m := range p.moves {
		if m.HandIndex == p.hand {
			out = append(out, m)
		}
	}
	return out
}

// Slots derives the overlay for the current selection. Open slots without a
// legal move for the selected tile become placeholders. Nothing is derived
// unless a tile is selected.
func (p *Placement) Slots(open []api.Coord) []Slot {
	if p.state != PlacementTileSelected {
		return nil
	}
	groups := GroupMoves(p.selectedMoves())
	slots := make([]Slot, 0, len(groups)+len(open))
	seen := make(map[api.Coord]bool, len(groups))
	for _, g := range groups {
		s := Slot{At: g.At, Kind: SlotRotationNeeded}
		for _, m := range g.Moves {
			s.Rotations = append(s.Rotations, m.Rotation)
			if m.Rotation == p.rotation {
				s.Kind = SlotConfirmable
			}
		}
		seen[g.At] = true
		slots = append(slots, s)
	}
	for _, c := range open {
		if !seen[c] {
			seen[c] = true
			slots = append(slots, Slot{At: c, Kind: SlotPlaceholder})
		}
	}
	return slots
}

// Click handles a click on cell c. A confirmable cell commits: the state
// becomes committing, the legal move set is invalidated and the intent is
// returned. A rotation-needed cell adopts the first legal rotation there in
// server order and does not commit.
func (p *Placement) Click(c api.Coord) (CommitIntent, bool) {
	if p.state != PlacementTileSelected {
		return CommitIntent{}, false
	}
	for _, g := range GroupMoves(p.selectedMoves()) {
		if g.At != c {
			continue
		}
		for _, m := range g.Moves {
			if m.Rotation == p.rotation {
				p.state = PlacementCommitting
				p.moves = nil
				return CommitIntent{HandIndex: p.hand, X: c.X, Y: c.Y, Rotation: p.rotation}, true
			}
		}
		p.rotation = g.Moves[0].Rotation
		return CommitIntent{}, false
	}
	return CommitIntent{}, false
}

// Accepted clears the selection after the server accepted a commit.
func (p *Placement) Accepted() {
	p.hand = -1
	p.rotation = tile.R0
	p.reason = ""
	p.moves = nil
	p.state = PlacementIdle
}

// Rejected returns to tile-selected with the selection untouched.
func (p *Placement) Rejected(reason string) {
	p.reason = reason
	p.moves = nil
	if p.hand >= 0 {
		p.state = PlacementTileSelected
	} else {
		p.state = PlacementIdle
	}
}

// Reset forgets everything; used when the game snapshot changes hands.
func (p *Placement) Reset() {
	*p = Placement{hand: -1}
}

// Overlay colours.
var (
	colorConfirmFill     = color.NRGBA{R: 46, G: 204, B: 113, A: 51}
	colorConfirmHover    = color.NRGBA{R: 46, G: 204, B: 113, A: 102}
	colorConfirmStroke   = color.NRGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 255}
	colorRotateFill      = color.NRGBA{R: 241, G: 196, B: 15, A: 26}
	colorRotateHover     = color.NRGBA{R: 241, G: 196, B: 15, A: 64}
	colorRotateStroke    = color.NRGBA{R: 0xf1, G: 0xc4, B: 0x0f, A: 255}
	colorPlaceholderFill = color.NRGBA{R: 255, G: 255, B: 255, A: 5}
	colorPlaceholderEdge = color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 255}
)

const previewOpacity = 0.45

// BuildLayer rebuilds the placement overlay. hand supplies the tile drawn as
// the preview on confirmable cells.
func (p *Placement) BuildLayer(l *Layer, open []api.Coord, hand []tile.Tile, size float64) {
	l.Reset()
	hov, hovering := p.Hovered()
	var preview *tile.Tile
	if p.hand >= 0 && p.hand < len(hand) {
		preview = &hand[p.hand]
	}
	for _, s := range p.Slots(open) {
		r := cellRect(s.At, size)
		hovered := hovering && hov == s.At
		switch s.Kind {
		case SlotConfirmable:
			fill := color.Color(colorConfirmFill)
			if hovered {
				fill = colorConfirmHover
			}
			l.Add(Group{
				ID:    "slot:" + s.At.String(),
				Prims: []Prim{rectPrim(r, fill, colorConfirmStroke, 2)},
				Hit:   &Hit{Kind: HitSlot, Region: r, At: s.At},
			})
			if preview != nil {
				l.Add(Group{
					ID:      "preview:" + s.At.String(),
					Opacity: previewOpacity,
					Prims:   tilePrims(*preview, p.rotation, Vec{r.X, r.Y}, size),
				})
			}
		case SlotRotationNeeded:
			fill := color.Color(colorRotateFill)
			if hovered {
				fill = colorRotateHover
			}
			l.Add(Group{
				ID:    "slot:" + s.At.String(),
				Prims: []Prim{rectPrim(r, fill, colorRotateStroke, 2)},
				Hit:   &Hit{Kind: HitSlot, Region: r, At: s.At},
			})
		case SlotPlaceholder:
			l.Add(Group{
				ID:    "open:" + s.At.String(),
				Prims: []Prim{rectPrim(r, colorPlaceholderFill, colorPlaceholderEdge, 1)},
			})
		}
	}
}

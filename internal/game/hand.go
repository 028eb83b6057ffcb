package game

import (
	"image/color"
	"strconv"

	"github.com/Garsondee/Tile-Board/internal/tile"
)

const (
	handTileSize = 64
	handGap      = 10
	handPanelH   = handTileSize + 34
)

var (
	colorHandPanel    = color.NRGBA{R: 14, G: 16, B: 24, A: 230}
	colorHandSlot     = color.NRGBA{R: 60, G: 60, B: 90, A: 255}
	colorHandSelected = color.NRGBA{R: 0xe9, G: 0x45, B: 0x60, A: 255}
	colorHandLabel    = color.NRGBA{R: 200, G: 200, B: 210, A: 255}
)

// HandLayout positions the hand tiles along the bottom of the screen.
type HandLayout struct {
	ScreenW, ScreenH int
}

// Panel returns the screen rectangle of the hand panel.
func (h HandLayout) Panel() Rect {
	return Rect{X: 0, Y: float64(h.ScreenH - handPanelH), W: float64(h.ScreenW - logPanelWidth), H: handPanelH}
}

// SlotRect returns the screen rectangle of hand tile i.
func (h HandLayout) SlotRect(i int) Rect {
	p := h.Panel()
	return Rect{
		X: p.X + handGap + float64(i)*(handTileSize+handGap),
		Y: p.Y + 20,
		W: handTileSize,
		H: handTileSize,
	}
}

// IndexAt returns the hand index under screen point p.
func (h HandLayout) IndexAt(p Vec, n int) (int, bool) {
	for i := 0; i < n; i++ {
		if h.SlotRect(i).Contains(p) {
			return i, true
		}
	}
	return 0, false
}

// BuildHandLayer fills l, in screen space, with the hand tiles. The selected
// tile is drawn at the current placement rotation.
func (h HandLayout) BuildHandLayer(l *Layer, hand []tile.Tile, p *Placement) {
	l.Reset()
	panel := h.Panel()
	l.Add(Group{ID: "hand-panel", Prims: []Prim{
		rectPrim(panel, colorHandPanel, nil, 0),
		textPrim("HAND (1-9 select, R rotate)", Vec{panel.X + 8, panel.Y + 3}, colorHandLabel),
	}})
	sel, selected := p.Selected()
	for i, t := range hand {
		r := h.SlotRect(i)
		rot := tile.R0
		stroke, width := color.Color(colorHandSlot), 1.0
		if selected && sel == i {
			rot = p.Rotation()
			stroke, width = colorHandSelected, 3
		}
		prims := tilePrims(t, rot, Vec{r.X, r.Y}, r.W)
		prims = append(prims,
			rectPrim(r, nil, stroke, width),
			textPrim(strconv.Itoa(i+1), Vec{r.X + 3, r.Y + 2}, color.White),
		)
		l.Add(Group{ID: "hand:" + strconv.Itoa(i), Prims: prims})
	}
}

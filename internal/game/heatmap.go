package game

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/Garsondee/Tile-Board/internal/api"
)

// heatLabelThreshold is the normalized intensity above which a cell shows
// its probability.
const heatLabelThreshold = 0.1

// heatLayerOpacity is applied to the whole heat layer.
const heatLayerOpacity = 0.5

// HeatCell is one cell of the completion-probability overlay.
type HeatCell struct {
	At          api.Coord
	Probability float64
	Intensity   float64 // probability / max, clamped to [0, 1]
	Color       color.NRGBA
	Label       string // empty when the cell is too faint to label
}

// heatColor interpolates from cool green-blue to hot red.
func heatColor(i float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(255 * i)),
		G: uint8(math.Round(100 * (1 - i))),
		B: 50,
		A: uint8(math.Round(255 * (0.15 + 0.4*i))),
	}
}

// HeatCells derives the overlay cells from an analytics snapshot. A missing
// heatmap, or a malformed cell key, yields no cell rather than an error.
// Cells are sorted by row then column.
func HeatCells(a *api.Analytics) []HeatCell {
	if a == nil || a.Heatmap == nil || len(a.Heatmap.Cells) == 0 {
		return nil
	}
	top := a.Heatmap.MaxProb
	if top <= 0 {
		top = 1
	}
	cells := make([]HeatCell, 0, len(a.Heatmap.Cells))
	for key, p := range a.Heatmap.Cells {
		at, err := api.ParseCoordKey(key)
		if err != nil {
			continue
		}
		i := clamp01(p / top)
		c := HeatCell{At: at, Probability: p, Intensity: i, Color: heatColor(i)}
		if i > heatLabelThreshold {
			c.Label = fmt.Sprintf("%d%%", int(math.Round(p*100)))
		}
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		ci, cj := cells[i].At, cells[j].At
		if ci.Y != cj.Y {
			return ci.Y < cj.Y
		}
		return ci.X < cj.X
	})
	return cells
}

// BuildHeatLayer rebuilds l from cells.
func BuildHeatLayer(l *Layer, cells []HeatCell, size float64) {
	l.Reset()
	l.Opacity = heatLayerOpacity
	for _, c := range cells {
		r := cellRect(c.At, size)
		prims := []Prim{rectPrim(r, c.Color, nil, 0)}
		if c.Label != "" {
			prims = append(prims, textPrim(c.Label, Vec{r.X + 2, r.Y + size - 14}, color.White))
		}
		l.Add(Group{ID: "heat:" + c.At.String(), Prims: prims})
	}
}

package game

import (
	"image/color"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

var (
	colorTileBorder  = color.NRGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 255}
	colorLastPlaced  = color.NRGBA{R: 0xf1, G: 0xc4, B: 0x0f, A: 255}
	colorBoardBG     = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 255}
	lastPlacedStroke = 3.0
)

// BuildBoardLayer rebuilds l with every placed tile, in the board's row
// order, followed by the highlight of the last placed tile.
func BuildBoardLayer(l *Layer, st *api.GameState, size float64) {
	l.Reset()
	if st == nil {
		return
	}
	for _, pt := range st.Board.Tiles {
		r := cellRect(pt.At, size)
		prims := tilePrims(pt.Tile, pt.Rotation, Vec{r.X, r.Y}, size)
		prims = append(prims, rectPrim(r, nil, colorTileBorder, 1))
		l.Add(Group{ID: "tile:" + pt.At.String(), Prims: prims})
	}
	if st.LastPlaced != nil {
		if _, ok := st.Board.TileAt(*st.LastPlaced); ok {
			r := cellRect(*st.LastPlaced, size)
			l.Add(Group{ID: "last-placed", Prims: []Prim{rectPrim(r, nil, colorLastPlaced, lastPlacedStroke)}})
		}
	}
}

// BoardBounds returns the world rectangle covering the placed tiles and the
// open slots, grown by one cell on every side.
func BoardBounds(st *api.GameState, size float64) Rect {
	if st == nil {
		return Rect{X: -size, Y: -size, W: 3 * size, H: 3 * size}
	}
	minX, minY, maxX, maxY := 0, 0, 0, 0
	first := true
	grow := func(c api.Coord) {
		if first {
			minX, minY, maxX, maxY = c.X, c.Y, c.X, c.Y
			first = false
			return
		}
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}
	for _, pt := range st.Board.Tiles {
		grow(pt.At)
	}
	for _, c := range st.Board.OpenSlots {
		grow(c)
	}
	return Rect{
		X: float64(minX-1) * size,
		Y: float64(minY-1) * size,
		W: float64(maxX-minX+3) * size,
		H: float64(maxY-minY+3) * size,
	}
}

// BuildCatalogLayer lays tiles out as a sheet: one row per tile, one column
// per rotation.
func BuildCatalogLayer(l *Layer, tiles []tile.Tile, size float64) {
	l.Reset()
	for row, t := range tiles {
		for _, r := range tile.Rotations {
			at := api.Coord{X: r.Steps(), Y: row}
			c := cellRect(at, size)
			prims := tilePrims(t, r, Vec{c.X, c.Y}, size)
			prims = append(prims, rectPrim(c, nil, colorTileBorder, 1))
			l.Add(Group{ID: "sheet:" + t.Type + ":" + r.String(), Prims: prims})
		}
	}
}

// RenderBoard paints the board, heat and token layers of a snapshot onto a
// raster surface sized to BoardBounds.
func RenderBoard(st *api.GameState, a *api.Analytics, size float64) *RasterSurface {
	b := BoardBounds(st, size)
	s := NewRasterSurface(int(b.W), int(b.H), colorBoardBG)
	board, heat, tokens := NewLayer("board"), NewLayer("heat"), NewLayer("tokens")
	BuildBoardLayer(board, st, size)
	BuildHeatLayer(heat, HeatCells(a), size)
	BuildTokenLayer(tokens, st, size)
	Paint(s, &Camera{X: -b.X, Y: -b.Y, Zoom: 1}, board, heat, tokens)
	return s
}

// RenderCatalog paints a sheet of tiles at every rotation.
func RenderCatalog(tiles []tile.Tile, size float64) *RasterSurface {
	s := NewRasterSurface(int(4*size), int(float64(len(tiles))*size), colorBoardBG)
	l := NewLayer("sheet")
	BuildCatalogLayer(l, tiles, size)
	Paint(s, &Camera{Zoom: 1}, l)
	return s
}

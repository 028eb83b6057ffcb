package game

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// uiFace is the monospace face used for labels on every surface.
var uiFace = text.NewGoXFace(basicfont.Face7x13)

// EbitenSurface draws onto an ebiten image with anti-aliased vector paths.
type EbitenSurface struct {
	dst *ebiten.Image
}

// NewEbitenSurface wraps dst.
func NewEbitenSurface(dst *ebiten.Image) *EbitenSurface {
	return &EbitenSurface{dst: dst}
}

func (s *EbitenSurface) Size() (int, int) {
	b := s.dst.Bounds()
	return b.Dx(), b.Dy()
}

func polygonPath(pts []Vec) *vector.Path {
	var path vector.Path
	for i, p := range pts {
		if i == 0 {
			path.MoveTo(float32(p.X), float32(p.Y))
			continue
		}
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()
	return &path
}

func pathOptions(c color.Color) *vector.DrawPathOptions {
	op := &vector.DrawPathOptions{AntiAlias: true}
	op.ColorScale.ScaleWithColor(c)
	return op
}

func (s *EbitenSurface) FillPolygon(pts []Vec, c color.Color) {
	if len(pts) < 3 {
		return
	}
	vector.FillPath(s.dst, polygonPath(pts), &vector.FillOptions{}, pathOptions(c))
}

func (s *EbitenSurface) StrokePolygon(pts []Vec, width float64, c color.Color) {
	if len(pts) < 2 {
		return
	}
	vector.StrokePath(s.dst, polygonPath(pts), &vector.StrokeOptions{Width: float32(width)}, pathOptions(c))
}

func (s *EbitenSurface) FillCircle(center Vec, r float64, c color.Color) {
	vector.FillCircle(s.dst, float32(center.X), float32(center.Y), float32(r), c, true)
}

func (s *EbitenSurface) StrokeCircle(center Vec, r, width float64, c color.Color) {
	vector.StrokeCircle(s.dst, float32(center.X), float32(center.Y), float32(r), float32(width), c, true)
}

func (s *EbitenSurface) Text(str string, at Vec, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(at.X, at.Y)
	if c != nil {
		op.ColorScale.ScaleWithColor(c)
	}
	text.Draw(s.dst, str, uiFace, op)
}

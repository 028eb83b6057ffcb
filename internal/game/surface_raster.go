package game

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const circleSegments = 48

// RasterSurface draws into an in-memory RGBA image without a GPU. It backs
// the headless report and rendering tests.
type RasterSurface struct {
	img  *image.RGBA
	rast *vector.Rasterizer // reused by every fill
}

// NewRasterSurface returns a w×h surface filled with bg.
func NewRasterSurface(w, h int, bg color.Color) *RasterSurface {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &RasterSurface{img: img, rast: vector.NewRasterizer(w, h)}
}

// Image returns the backing image.
func (s *RasterSurface) Image() *image.RGBA { return s.img }

// WritePNG encodes the surface as PNG.
func (s *RasterSurface) WritePNG(w io.Writer) error {
	if err := png.Encode(w, s.img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (s *RasterSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *RasterSurface) fill(c color.Color, contours ...[]Vec) {
	w, h := s.Size()
	r := s.rast
	r.Reset(w, h)
	r.DrawOp = draw.Over
	for _, pts := range contours {
		if len(pts) < 3 {
			continue
		}
		r.MoveTo(float32(pts[0].X), float32(pts[0].Y))
		for _, p := range pts[1:] {
			r.LineTo(float32(p.X), float32(p.Y))
		}
		r.ClosePath()
	}
	r.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{})
}

func (s *RasterSurface) FillPolygon(pts []Vec, c color.Color) {
	s.fill(c, pts)
}

// StrokePolygon draws each closed edge as a quad of the given width.
func (s *RasterSurface) StrokePolygon(pts []Vec, width float64, c color.Color) {
	if len(pts) < 2 || width <= 0 {
		return
	}
	hw := width / 2
	quads := make([][]Vec, 0, len(pts))
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		quads = append(quads, []Vec{
			{a.X + nx, a.Y + ny}, {b.X + nx, b.Y + ny},
			{b.X - nx, b.Y - ny}, {a.X - nx, a.Y - ny},
		})
	}
	for _, q := range quads {
		s.fill(c, q)
	}
}

func circlePoints(center Vec, r float64, reverse bool) []Vec {
	pts := make([]Vec, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		if reverse {
			a = -a
		}
		pts[i] = Vec{center.X + r*math.Cos(a), center.Y + r*math.Sin(a)}
	}
	return pts
}

func (s *RasterSurface) FillCircle(center Vec, r float64, c color.Color) {
	if r <= 0 {
		return
	}
	s.fill(c, circlePoints(center, r, false))
}

// StrokeCircle fills the ring between r-width/2 and r+width/2; the inner
// contour winds the other way so it cancels out.
func (s *RasterSurface) StrokeCircle(center Vec, r, width float64, c color.Color) {
	if r <= 0 || width <= 0 {
		return
	}
	inner := math.Max(r-width/2, 0)
	s.fill(c, circlePoints(center, r+width/2, false), circlePoints(center, inner, true))
}

func (s *RasterSurface) Text(str string, at Vec, c color.Color) {
	if c == nil {
		c = color.White
	}
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(at.X), int(at.Y)+basicfont.Face7x13.Ascent),
	}
	d.DrawString(str)
}

package game

import "github.com/hajimehoshi/ebiten/v2"

// Zoom bounds and step per wheel notch.
const (
	zoomMin  = 0.3
	zoomMax  = 3.0
	zoomStep = 0.1
)

// Camera maps world coordinates to the screen: screen = world*Zoom + (X, Y).
type Camera struct {
	X, Y float64 // screen position of the world origin
	Zoom float64

	MinZoom, MaxZoom float64 // zero means the package defaults
}

// NewCamera centers the world origin in a viewport of the given size.
func NewCamera(viewW, viewH int) *Camera {
	return &Camera{X: float64(viewW) / 2, Y: float64(viewH) / 2, Zoom: 1}
}

// WorldToScreen transforms a world point.
func (c *Camera) WorldToScreen(p Vec) Vec {
	return Vec{p.X*c.Zoom + c.X, p.Y*c.Zoom + c.Y}
}

// ScreenToWorld is the inverse of WorldToScreen.
func (c *Camera) ScreenToWorld(p Vec) Vec {
	return Vec{(p.X - c.X) / c.Zoom, (p.Y - c.Y) / c.Zoom}
}

// Pan moves the view by a screen-space delta.
func (c *Camera) Pan(dx, dy float64) {
	c.X += dx
	c.Y += dy
}

// ZoomAt changes the zoom by notches wheel steps (positive zooms in) while
// keeping the world point under the screen position anchor fixed.
func (c *Camera) ZoomAt(anchor Vec, notches float64) {
	if notches == 0 {
		return
	}
	dir := 1.0
	if notches < 0 {
		dir = -1
	}
	world := c.ScreenToWorld(anchor)
	lo, hi := c.MinZoom, c.MaxZoom
	if lo <= 0 {
		lo = zoomMin
	}
	if hi <= 0 {
		hi = zoomMax
	}
	z := c.Zoom + dir*zoomStep
	if z < lo {
		z = lo
	}
	if z > hi {
		z = hi
	}
	c.Zoom = z
	c.X = anchor.X - world.X*z
	c.Y = anchor.Y - world.Y*z
}

// GeoM returns the camera transform for drawing images.
func (c *Camera) GeoM() ebiten.GeoM {
	var m ebiten.GeoM
	m.Scale(c.Zoom, c.Zoom)
	m.Translate(c.X, c.Y)
	return m
}

// Package geometry holds the pure math used by the canvas: coordinate
// transforms, edge curves, arrowheads and hit testing.
package geometry

import (
	"fmt"
	"math"
	"strconv"
)

// Point is a 2D coordinate. Whether it is in screen or canvas space depends on the caller.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Distance returns the euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// RightCenter is where outgoing edges leave a node box.
func (r Rect) RightCenter() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height/2}
}

// LeftCenter is where incoming edges enter a node box.
func (r Rect) LeftCenter() Point {
	return Point{X: r.X, Y: r.Y + r.Height/2}
}

// Transform maps canvas space to screen space: screen = origin + canvas*scale + offset.
// Origin is the top-left of the canvas element on screen.
type Transform struct {
	Scale  float64
	Offset Point
	Origin Point
}

func (t Transform) ScreenToCanvas(p Point) Point {
	return Point{
		X: (p.X - t.Origin.X - t.Offset.X) / t.Scale,
		Y: (p.Y - t.Origin.Y - t.Offset.Y) / t.Scale,
	}
}

func (t Transform) CanvasToScreen(p Point) Point {
	return Point{
		X: t.Origin.X + p.X*t.Scale + t.Offset.X,
		Y: t.Origin.Y + p.Y*t.Scale + t.Offset.Y,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fmtPoint(p Point) string {
	return fmt.Sprintf("%s %s", formatFloat(p.X), formatFloat(p.Y))
}

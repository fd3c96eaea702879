// Package canvas turns pointer, wheel and keyboard input into viewport
// changes and graph store mutations.
package canvas

import (
	"fmt"
	"math"

	"github.com/dukex/flowcanvas/pkg/geometry"
)

const (
	MinScale        = 0.5
	MaxScale        = 2.0
	ZoomSensitivity = 0.001
)

// Viewport is the pan and zoom applied to the whole canvas. Origin is the
// canvas element's top-left corner on screen.
type Viewport struct {
	Scale     float64        `json:"scale"`
	Offset    geometry.Point `json:"offset"`
	Origin    geometry.Point `json:"origin"`
	IsPanning bool           `json:"isPanning"`
}

func NewViewport() *Viewport {
	return &Viewport{Scale: 1}
}

func clampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}

// Zoom scales by 1 - deltaY*ZoomSensitivity, keeping the canvas point under
// cursor (screen space) fixed. It reports whether the scale changed.
func (v *Viewport) Zoom(deltaY float64, cursor geometry.Point) bool {
	oldScale := v.Scale
	newScale := clampScale(oldScale * (1 - deltaY*ZoomSensitivity))

	if newScale == oldScale {
		return false
	}

	local := cursor.Sub(v.Origin)
	ratio := (newScale - oldScale) / oldScale

	v.Offset = v.Offset.Sub(local.Sub(v.Offset).Scale(ratio))
	v.Scale = newScale

	return true
}

// Pan moves the canvas by a raw screen delta.
func (v *Viewport) Pan(delta geometry.Point) {
	v.Offset = v.Offset.Add(delta)
}

func (v *Viewport) Reset() {
	v.Scale = 1
	v.Offset = geometry.Point{}
	v.IsPanning = false
}

func (v *Viewport) Transform() geometry.Transform {
	return geometry.Transform{Scale: v.Scale, Offset: v.Offset, Origin: v.Origin}
}

func (v *Viewport) ScreenToCanvas(p geometry.Point) geometry.Point {
	return v.Transform().ScreenToCanvas(p)
}

func (v *Viewport) CanvasToScreen(p geometry.Point) geometry.Point {
	return v.Transform().CanvasToScreen(p)
}

// CSSTransform is the transform applied once to the node and edge container.
func (v *Viewport) CSSTransform() string {
	return fmt.Sprintf("translate(%gpx, %gpx) scale(%g)", v.Offset.X, v.Offset.Y, v.Scale)
}

// SVGTransform is CSSTransform in SVG attribute syntax.
func (v *Viewport) SVGTransform() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", v.Offset.X, v.Offset.Y, v.Scale)
}

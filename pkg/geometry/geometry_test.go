package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransform_RoundTrip(t *testing.T) {
	t.Parallel()

	transform := Transform{Scale: 1.5, Offset: Point{X: 40, Y: -20}, Origin: Point{X: 10, Y: 60}}

	screen := Point{X: 250, Y: 300}
	canvas := transform.ScreenToCanvas(screen)

	assert.InDelta(t, (250.0-10-40)/1.5, canvas.X, 1e-9)
	assert.InDelta(t, (300.0-60+20)/1.5, canvas.Y, 1e-9)

	back := transform.CanvasToScreen(canvas)
	assert.InDelta(t, screen.X, back.X, 1e-9)
	assert.InDelta(t, screen.Y, back.Y, 1e-9)
}

func TestEdgeCurve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		source   Point
		target   Point
		expected string
	}{
		{
			name:     "wide gap caps control offset",
			source:   Point{X: 300, Y: 140},
			target:   Point{X: 500, Y: 140},
			expected: "M 300 140 C 380 140, 420 140, 500 140",
		},
		{
			name:     "narrow gap uses half distance",
			source:   Point{X: 300, Y: 140},
			target:   Point{X: 360, Y: 200},
			expected: "M 300 140 C 330 140, 330 200, 360 200",
		},
		{
			name:     "target behind source",
			source:   Point{X: 300, Y: 100},
			target:   Point{X: 100, Y: 300},
			expected: "M 300 100 C 380 100, 20 300, 100 300",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, EdgeCurve(tc.source, tc.target).Path())
		})
	}
}

func TestCurve_ArrowheadAndLabel(t *testing.T) {
	t.Parallel()

	curve := EdgeCurve(Point{X: 0, Y: 0}, Point{X: 100, Y: 0})

	assert.InDelta(t, 0, curve.Angle(), 1e-9)

	arrow := curve.Arrowhead()
	assert.Equal(t, Point{X: 100, Y: 0}, arrow[0])
	assert.InDelta(t, 100-10*math.Cos(math.Pi/6), arrow[1].X, 1e-9)
	assert.InDelta(t, -arrow[1].Y, arrow[2].Y, 1e-9)

	assert.Equal(t, Point{X: 50, Y: -10}, curve.LabelPosition())
	assert.Contains(t, curve.ArrowPath(), "M 100 0 L ")
}

func TestCurve_At(t *testing.T) {
	t.Parallel()

	curve := EdgeCurve(Point{X: 0, Y: 0}, Point{X: 200, Y: 100})

	assert.Equal(t, curve.Start, curve.At(0))
	assert.Equal(t, curve.End, curve.At(1))
	assert.InDelta(t, 100, curve.At(0.5).X, 1e-9)
	assert.InDelta(t, 50, curve.At(0.5).Y, 1e-9)
}

func TestHitTesting(t *testing.T) {
	t.Parallel()

	a := Point{X: 0, Y: 0}
	b := Point{X: 10, Y: 0}

	assert.True(t, IsPointNearLine(Point{X: 5, Y: 3}, a, b, 3))
	assert.False(t, IsPointNearLine(Point{X: 5, Y: 4}, a, b, 3))
	assert.False(t, IsPointNearLine(Point{X: 15, Y: 0}, a, b, 3))
	assert.True(t, IsPointNearLine(Point{X: 1, Y: 1}, a, a, 2))

	curve := EdgeCurve(Point{X: 0, Y: 0}, Point{X: 200, Y: 100})
	assert.True(t, curve.IsPointNearCurve(curve.At(0.3), 1))
	assert.False(t, curve.IsPointNearCurve(Point{X: 0, Y: 100}, 5))

	rect := Rect{X: 10, Y: 10, Width: 200, Height: 80}
	assert.True(t, rect.Contains(Point{X: 10, Y: 90}))
	assert.False(t, rect.Contains(Point{X: 211, Y: 50}))
	assert.Equal(t, Point{X: 210, Y: 50}, rect.RightCenter())
	assert.Equal(t, Point{X: 10, Y: 50}, rect.LeftCenter())
}

func TestDistance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 5, Distance(Point{}, Point{X: 3, Y: 4}), 1e-9)
}

func TestWouldCreateCycle(t *testing.T) {
	t.Parallel()

	graph := Adjacency{
		"a": {"b"},
		"b": {"c"},
		"c": {},
		"d": {"a"},
	}

	assert.True(t, WouldCreateCycle(graph, "c", "a"))
	assert.True(t, WouldCreateCycle(graph, "b", "d"))
	assert.True(t, WouldCreateCycle(graph, "a", "a"))
	assert.False(t, WouldCreateCycle(graph, "a", "c"))
	assert.True(t, WouldCreateCycle(graph, "c", "d"))
	assert.False(t, WouldCreateCycle(graph, "d", "c"))
	assert.False(t, WouldCreateCycle(graph, "x", "y"))
}

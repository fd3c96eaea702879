package geometry

import "math"

const (
	// MaxControlOffset caps the horizontal pull of an edge's control points.
	MaxControlOffset = 80.0
	// ArrowSize is the length of the arrowhead sides.
	ArrowSize = 10.0
	// LabelLift raises branch labels above the curve midpoint.
	LabelLift = 10.0
)

// Curve is the cubic bezier drawn between two node anchors.
type Curve struct {
	Start, Control1, Control2, End Point
}

// EdgeCurve builds the S-curve from a source anchor to a target anchor.
// Control points are pulled horizontally by min(80, |dx|/2) at each end's y.
func EdgeCurve(source, target Point) Curve {
	offset := math.Min(MaxControlOffset, math.Abs(target.X-source.X)/2)

	return Curve{
		Start:    source,
		Control1: Point{X: source.X + offset, Y: source.Y},
		Control2: Point{X: target.X - offset, Y: target.Y},
		End:      target,
	}
}

// Path returns the SVG path data of the curve.
func (c Curve) Path() string {
	return "M " + fmtPoint(c.Start) +
		" C " + fmtPoint(c.Control1) +
		", " + fmtPoint(c.Control2) +
		", " + fmtPoint(c.End)
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t

	return Point{
		X: a*c.Start.X + b*c.Control1.X + d*c.Control2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.Control1.Y + d*c.Control2.Y + e*c.End.Y,
	}
}

// Midpoint is the point between both anchors.
func (c Curve) Midpoint() Point {
	return Point{X: (c.Start.X + c.End.X) / 2, Y: (c.Start.Y + c.End.Y) / 2}
}

// LabelPosition is where a branch label is drawn.
func (c Curve) LabelPosition() Point {
	mid := c.Midpoint()

	return Point{X: mid.X, Y: mid.Y - LabelLift}
}

// Angle is the direction used to orient the arrowhead.
func (c Curve) Angle() float64 {
	return math.Atan2(c.End.Y-c.Start.Y, c.End.X-c.Start.X)
}

// Arrowhead returns the triangle tip, left and right corners at the end of the curve.
func (c Curve) Arrowhead() [3]Point {
	angle := c.Angle()
	tip := c.End

	return [3]Point{
		tip,
		{X: tip.X - ArrowSize*math.Cos(angle-math.Pi/6), Y: tip.Y - ArrowSize*math.Sin(angle-math.Pi/6)},
		{X: tip.X - ArrowSize*math.Cos(angle+math.Pi/6), Y: tip.Y - ArrowSize*math.Sin(angle+math.Pi/6)},
	}
}

// ArrowPath returns the SVG path data of the arrowhead triangle.
func (c Curve) ArrowPath() string {
	a := c.Arrowhead()

	return "M " + fmtPoint(a[0]) + " L " + fmtPoint(a[1]) + " L " + fmtPoint(a[2]) + " Z"
}

// DistanceToSegment returns the distance from p to the segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)

	lengthSq := ab.X*ab.X + ab.Y*ab.Y
	if lengthSq == 0 {
		return Distance(p, a)
	}

	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / lengthSq
	t = math.Max(0, math.Min(1, t))

	return Distance(p, a.Add(ab.Scale(t)))
}

// IsPointNearLine reports whether p lies within tolerance of segment ab.
func IsPointNearLine(p, a, b Point, tolerance float64) bool {
	return DistanceToSegment(p, a, b) <= tolerance
}

const curveSegments = 24

// IsPointNearCurve approximates the curve with line segments and tests each.
func (c Curve) IsPointNearCurve(p Point, tolerance float64) bool {
	prev := c.Start

	for i := 1; i <= curveSegments; i++ {
		next := c.At(float64(i) / curveSegments)
		if IsPointNearLine(p, prev, next, tolerance) {
			return true
		}

		prev = next
	}

	return false
}

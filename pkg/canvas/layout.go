package canvas

import (
	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/models"
)

const (
	NodeWidth            = 200.0
	NodeBaseHeight       = 80.0
	ConditionPortSpacing = 24.0
	ConditionFirstPortY  = 70.0
	StandardPortY        = 40.0
)

// NodeRect is the box a node occupies in canvas space.
func NodeRect(n *models.Node) geometry.Rect {
	height := NodeBaseHeight
	if n.Type == models.NodeTypeCondition {
		height += ConditionPortSpacing * float64(len(n.Branches())-1)
	}

	return geometry.Rect{X: n.Position.X, Y: n.Position.Y, Width: NodeWidth, Height: height}
}

// PortPosition is where the output port for branch sits on the node's right edge.
func PortPosition(n *models.Node, branch models.Branch) geometry.Point {
	rect := NodeRect(n)

	if n.Type != models.NodeTypeCondition {
		return geometry.Point{X: rect.X + rect.Width, Y: rect.Y + StandardPortY}
	}

	for i, b := range n.Branches() {
		if b == branch {
			return geometry.Point{
				X: rect.X + rect.Width,
				Y: rect.Y + ConditionFirstPortY + ConditionPortSpacing*float64(i),
			}
		}
	}

	return rect.RightCenter()
}

// NodeAt returns the topmost node containing the canvas point, or nil.
func NodeAt(w *models.Workflow, p geometry.Point) *models.Node {
	for i := len(w.Nodes) - 1; i >= 0; i-- {
		if NodeRect(w.Nodes[i]).Contains(p) {
			return w.Nodes[i]
		}
	}

	return nil
}

// EdgeCurve is the curve drawn for an edge, or false if an endpoint is missing.
func EdgeCurve(w *models.Workflow, e models.Edge) (geometry.Curve, bool) {
	source := w.Node(e.Source)
	target := w.Node(e.Target)

	if source == nil || target == nil {
		return geometry.Curve{}, false
	}

	return geometry.EdgeCurve(NodeRect(source).RightCenter(), NodeRect(target).LeftCenter()), true
}

// EdgeAt returns the first edge whose curve passes within tolerance of p.
func EdgeAt(w *models.Workflow, p geometry.Point, tolerance float64) (models.Edge, bool) {
	for _, e := range w.Edges() {
		curve, ok := EdgeCurve(w, e)
		if ok && curve.IsPointNearCurve(p, tolerance) {
			return e, true
		}
	}

	return models.Edge{}, false
}

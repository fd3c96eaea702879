// Package render projects the graph and viewport into a drawable scene and SVG.
package render

import (
	"github.com/dukex/flowcanvas/pkg/canvas"
	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

const (
	ColorStart     = "#28a745"
	ColorCondition = "#ffc107"
	ColorFunction  = "#17a2b8"
	ColorEnd       = "#dc3545"
	ColorDefault   = "#6c757d"
	ColorSelected  = "#007bff"
	ColorRunning   = "#fd7e14"
)

// NodeColor is the accent colour of a node type; edges take their source's colour.
func NodeColor(t models.NodeType) string {
	switch t {
	case models.NodeTypeStart:
		return ColorStart
	case models.NodeTypeCondition:
		return ColorCondition
	case models.NodeTypeFunction:
		return ColorFunction
	case models.NodeTypeEnd:
		return ColorEnd
	default:
		return ColorDefault
	}
}

type Port struct {
	Branch models.Branch  `json:"branch"`
	Point  geometry.Point `json:"point"`
}

// NodeBox is a node in untransformed canvas coordinates.
type NodeBox struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     models.NodeType `json:"type"`
	Rect     geometry.Rect   `json:"rect"`
	Color    string          `json:"color"`
	Ports    []Port          `json:"ports"`
	Selected bool            `json:"selected"`
	Running  bool            `json:"running"`
}

// EdgePath is one labelled edge drawn as a cubic bezier with an arrowhead.
type EdgePath struct {
	Edge     models.Edge       `json:"edge"`
	Curve    geometry.Curve    `json:"-"`
	D        string            `json:"d"`
	Arrow    [3]geometry.Point `json:"arrow"`
	Label    string            `json:"label,omitempty"`
	LabelAt  geometry.Point    `json:"labelAt"`
	Color    string            `json:"color"`
	Selected bool              `json:"selected"`
}

// Scene is everything needed to draw one frame. Transform is applied once to
// the container holding Nodes and Edges.
type Scene struct {
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Transform    string     `json:"transform"`
	CSSTransform string     `json:"cssTransform"`
	Nodes        []NodeBox  `json:"nodes"`
	Edges        []EdgePath `json:"edges"`
}

type Options struct {
	Width         int
	Height        int
	Selection     graph.Selection
	RunningNodeID string
}

const (
	defaultWidth  = 1200
	defaultHeight = 800
)

// Build rebuilds the whole scene from w and vp. It has no memory of earlier frames.
func Build(w *models.Workflow, vp *canvas.Viewport, opts Options) *Scene {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}

	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}

	scene := &Scene{
		Width:        opts.Width,
		Height:       opts.Height,
		Transform:    vp.SVGTransform(),
		CSSTransform: vp.CSSTransform(),
		Nodes:        make([]NodeBox, 0, len(w.Nodes)),
		Edges:        make([]EdgePath, 0),
	}

	for _, node := range w.Nodes {
		box := NodeBox{
			ID:       node.ID,
			Name:     node.Name,
			Type:     node.Type,
			Rect:     canvas.NodeRect(node),
			Color:    NodeColor(node.Type),
			Selected: opts.Selection.IsNode(node.ID),
			Running:  opts.RunningNodeID != "" && opts.RunningNodeID == node.ID,
		}

		for _, branch := range node.Branches() {
			box.Ports = append(box.Ports, Port{Branch: branch, Point: canvas.PortPosition(node, branch)})
		}

		scene.Nodes = append(scene.Nodes, box)
	}

	for _, edge := range w.Edges() {
		curve, ok := canvas.EdgeCurve(w, edge)
		if !ok {
			continue
		}

		path := EdgePath{
			Edge:     edge,
			Curve:    curve,
			D:        curve.Path(),
			Arrow:    curve.Arrowhead(),
			LabelAt:  curve.LabelPosition(),
			Color:    NodeColor(w.Node(edge.Source).Type),
			Selected: opts.Selection.IsConnection(edge.Source, edge.Branch),
		}

		if !edge.Branch.IsDefault() {
			path.Label = edge.Branch.String()
		}

		scene.Edges = append(scene.Edges, path)
	}

	return scene
}

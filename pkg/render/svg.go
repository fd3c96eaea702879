package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/dukex/flowcanvas/pkg/geometry"
)

const (
	cornerRadius = 8
	portRadius   = 5
)

func px(f float64) int {
	return int(math.Round(f))
}

// Render writes the scene as a standalone SVG document.
func Render(w io.Writer, scene *Scene) error {
	ew := &errWriter{w: w}
	doc := svg.New(ew)

	doc.Start(scene.Width, scene.Height)
	doc.Rect(0, 0, scene.Width, scene.Height, `class="background"`, "fill:#f8f9fa")
	doc.Group(`id="viewport"`, fmt.Sprintf(`transform="%s"`, scene.Transform))

	doc.Gid("edges")

	for _, e := range scene.Edges {
		renderEdge(doc, e)
	}

	doc.Gend()

	doc.Gid("nodes")

	for _, n := range scene.Nodes {
		renderNode(doc, n)
	}

	doc.Gend()
	doc.Gend()
	doc.End()

	return ew.err
}

func renderEdge(doc *svg.SVG, e EdgePath) {
	stroke := e.Color
	width := 2

	if e.Selected {
		stroke = ColorSelected
		width = 3
	}

	id := fmt.Sprintf(`data-edge="%s:%s"`, e.Edge.Source, e.Edge.Branch)

	doc.Path(e.D, `class="edge"`, id, fmt.Sprintf("fill:none;stroke:%s;stroke-width:%d", stroke, width))
	doc.Polygon(
		[]int{px(e.Arrow[0].X), px(e.Arrow[1].X), px(e.Arrow[2].X)},
		[]int{px(e.Arrow[0].Y), px(e.Arrow[1].Y), px(e.Arrow[2].Y)},
		`class="arrow"`, "fill:"+stroke,
	)

	if e.Label != "" {
		doc.Text(px(e.LabelAt.X), px(e.LabelAt.Y), e.Label,
			`class="edge-label"`, "font-size:12px;text-anchor:middle;fill:"+stroke)
	}
}

func renderNode(doc *svg.SVG, n NodeBox) {
	stroke := n.Color
	width := 2

	switch {
	case n.Running:
		stroke = ColorRunning
		width = 4
	case n.Selected:
		stroke = ColorSelected
		width = 3
	}

	doc.Group(`class="node"`, fmt.Sprintf(`data-node-id="%s"`, n.ID))
	doc.Roundrect(px(n.Rect.X), px(n.Rect.Y), px(n.Rect.Width), px(n.Rect.Height), cornerRadius, cornerRadius,
		fmt.Sprintf("fill:#ffffff;stroke:%s;stroke-width:%d", stroke, width))
	doc.Rect(px(n.Rect.X), px(n.Rect.Y), px(n.Rect.Width), 6, "fill:"+n.Color)
	doc.Text(px(n.Rect.X)+12, px(n.Rect.Y)+30, n.Name, "font-size:14px;font-weight:bold;fill:#212529")
	doc.Text(px(n.Rect.X)+12, px(n.Rect.Y)+50, string(n.Type), "font-size:11px;fill:#6c757d")

	for _, port := range n.Ports {
		renderPort(doc, port)
	}

	doc.Gend()
}

func renderPort(doc *svg.SVG, p Port) {
	doc.Circle(px(p.Point.X), px(p.Point.Y), portRadius,
		fmt.Sprintf(`data-branch="%s"`, p.Branch), "fill:#ffffff;stroke:#495057")

	if !p.Branch.IsDefault() {
		doc.Text(px(p.Point.X)-10, px(p.Point.Y)+4, p.Branch.String(), "font-size:10px;text-anchor:end;fill:#495057")
	}
}

// errWriter keeps the first write error so the svgo calls can stay unchecked.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}

	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}

	return n, err
}

// CanvasBounds returns the box enclosing every node, useful for fitting a view.
func CanvasBounds(scene *Scene) geometry.Rect {
	if len(scene.Nodes) == 0 {
		return geometry.Rect{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, n := range scene.Nodes {
		minX = math.Min(minX, n.Rect.X)
		minY = math.Min(minY, n.Rect.Y)
		maxX = math.Max(maxX, n.Rect.X+n.Rect.Width)
		maxY = math.Max(maxY, n.Rect.Y+n.Rect.Height)
	}

	return geometry.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dukex/flowcanvas/pkg/canvas"
	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStore(t *testing.T) (*graph.Store, *models.Node, *models.Node) {
	t.Helper()

	s := graph.New(graph.Options{Logger: log.Discard()})
	s.Create("render", "")

	start, err := s.AddNode(models.NodeTypeStart, models.Position{X: 100, Y: 100}, "")
	require.NoError(t, err)

	fn, err := s.AddNode(models.NodeTypeFunction, models.Position{X: 300, Y: 100}, "")
	require.NoError(t, err)

	require.NoError(t, s.AddConnection(start.ID, fn.ID, models.Default))

	return s, start, fn
}

func TestRender_SingleEdgeScenario(t *testing.T) {
	t.Parallel()

	s, start, fn := buildStore(t)

	scene := Build(s.Workflow(), canvas.NewViewport(), Options{})

	require.Len(t, scene.Nodes, 2)
	require.Len(t, scene.Edges, 1)
	assert.Equal(t, start.ID, scene.Edges[0].Edge.Source)
	assert.Equal(t, fn.ID, scene.Edges[0].Edge.Target)
	assert.Empty(t, scene.Edges[0].Label)
	assert.Equal(t, ColorStart, scene.Edges[0].Color)

	var buf bytes.Buffer

	require.NoError(t, Render(&buf, scene))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "<path"))
	assert.Equal(t, 2, strings.Count(out, `class="node"`))
	assert.NotContains(t, out, `class="edge-label"`)
	assert.Contains(t, out, `transform="translate(0,0) scale(1)"`)
}

func TestBuild_UsesUntransformedCoordinates(t *testing.T) {
	t.Parallel()

	s, start, _ := buildStore(t)

	vp := canvas.NewViewport()
	vp.Scale = 1.5
	vp.Offset = geometry.Point{X: 30, Y: 40}

	scene := Build(s.Workflow(), vp, Options{Selection: s.Selection(), RunningNodeID: start.ID})

	assert.Equal(t, geometry.Rect{X: 100, Y: 100, Width: 200, Height: 80}, scene.Nodes[0].Rect)
	assert.Equal(t, "translate(30,40) scale(1.5)", scene.Transform)
	assert.Equal(t, "translate(30px, 40px) scale(1.5)", scene.CSSTransform)
	assert.True(t, scene.Nodes[0].Running)
	assert.False(t, scene.Nodes[1].Running)
	assert.True(t, scene.Edges[0].Selected)
}

func TestBuild_ConditionLabels(t *testing.T) {
	t.Parallel()

	s := graph.New(graph.Options{Logger: log.Discard()})

	cond, err := s.AddNode(models.NodeTypeCondition, models.Position{X: 0, Y: 0}, "")
	require.NoError(t, err)

	yes, err := s.AddNode(models.NodeTypeEnd, models.Position{X: 400, Y: 0}, "")
	require.NoError(t, err)

	no, err := s.AddNode(models.NodeTypeEnd, models.Position{X: 400, Y: 200}, "")
	require.NoError(t, err)

	require.NoError(t, s.AddConnection(cond.ID, yes.ID, models.True))
	require.NoError(t, s.AddConnection(cond.ID, no.ID, models.False))

	scene := Build(s.Workflow(), canvas.NewViewport(), Options{})
	require.Len(t, scene.Edges, 2)
	assert.Equal(t, "true", scene.Edges[0].Label)
	assert.Equal(t, "false", scene.Edges[1].Label)
	assert.Equal(t, ColorCondition, scene.Edges[0].Color)
	assert.Equal(t, scene.Edges[0].Curve.LabelPosition(), scene.Edges[0].LabelAt)
	assert.Len(t, scene.Nodes[0].Ports, 2)

	var buf bytes.Buffer

	require.NoError(t, Render(&buf, scene))
	assert.Equal(t, 2, strings.Count(buf.String(), `class="edge-label"`))
	assert.Equal(t, 2, strings.Count(buf.String(), "<path"))
}

func TestRender_IsIdempotent(t *testing.T) {
	t.Parallel()

	s, _, _ := buildStore(t)

	var first, second bytes.Buffer

	require.NoError(t, Render(&first, Build(s.Workflow(), canvas.NewViewport(), Options{})))
	require.NoError(t, Render(&second, Build(s.Workflow(), canvas.NewViewport(), Options{})))
	assert.Equal(t, first.String(), second.String())
}

func TestRender_EscapesNames(t *testing.T) {
	t.Parallel()

	s := graph.New(graph.Options{Logger: log.Discard()})

	_, err := s.AddNode(models.NodeTypeFunction, models.Position{}, "a < b & c")
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, Render(&buf, Build(s.Workflow(), canvas.NewViewport(), Options{})))
	assert.Contains(t, buf.String(), "a &lt; b &amp; c")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRender_WriteError(t *testing.T) {
	t.Parallel()

	s, _, _ := buildStore(t)

	err := Render(failingWriter{}, Build(s.Workflow(), canvas.NewViewport(), Options{}))
	assert.EqualError(t, err, "disk full")
}

func TestCanvasBounds(t *testing.T) {
	t.Parallel()

	s := graph.New(graph.Options{Logger: log.Discard()})

	a, err := s.AddNode(models.NodeTypeFunction, models.Position{X: 0, Y: 0}, "")
	require.NoError(t, err)

	b, err := s.AddNode(models.NodeTypeEnd, models.Position{X: 400, Y: 0}, "")
	require.NoError(t, err)

	require.NoError(t, s.AddConnection(a.ID, b.ID, models.Default))

	scene := Build(s.Workflow(), canvas.NewViewport(), Options{})

	assert.Equal(t, geometry.Rect{X: 0, Y: 0, Width: 600, Height: 80}, CanvasBounds(scene))
}

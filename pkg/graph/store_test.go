package graph

import (
	"math/rand"
	"testing"

	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts Options) *Store {
	t.Helper()

	opts.Logger = log.Discard()

	return New(opts)
}

func addNode(t *testing.T, s *Store, nodeType models.NodeType, x, y float64) *models.Node {
	t.Helper()

	node, err := s.AddNode(nodeType, models.Position{X: x, Y: y}, "")
	require.NoError(t, err)

	return node
}

func TestStore_AddNode(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	start := addNode(t, s, models.NodeTypeStart, -10, 50)

	assert.Equal(t, "node_1", start.ID)
	assert.Equal(t, "START Node", start.Name)
	assert.Equal(t, models.Position{X: 0, Y: 50}, start.Position)
	assert.Equal(t, start.ID, s.Workflow().StartNodeID)
	assert.True(t, s.Selection().IsNode(start.ID))

	named, err := s.AddNode(models.NodeTypeEnd, models.Position{}, "Done")
	require.NoError(t, err)
	assert.Equal(t, "node_2", named.ID)
	assert.Equal(t, "Done", named.Name)
	assert.Equal(t, start.ID, s.Workflow().StartNodeID)
}

func TestStore_StartNodeSurvivesWireConversion(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	addNode(t, s, models.NodeTypeStart, 0, 0)
	second := addNode(t, s, models.NodeTypeStart, 200, 0)

	assert.Equal(t, second.ID, s.Workflow().StartNodeID)
	assert.Equal(t, second.ID, models.ToWire(s.Workflow()).StartNodeID)

	require.NoError(t, s.DeleteNode(second.ID))

	assert.Empty(t, s.Workflow().StartNodeID)
	assert.Empty(t, models.ToWire(s.Workflow()).StartNodeID)
}

func TestStore_ConnectStartToFunction(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})
	s.Create("scenario", "")

	start := addNode(t, s, models.NodeTypeStart, 100, 100)
	fn := addNode(t, s, models.NodeTypeFunction, 300, 100)

	require.NoError(t, s.AddConnection(start.ID, fn.ID, models.Default))

	nodes := s.Workflow().Nodes
	assert.Equal(t, map[models.Branch]string{models.Default: nodes[1].ID}, nodes[0].NextNodes)
	assert.Len(t, s.Edges(), 1)
	assert.True(t, s.Selection().IsConnection(start.ID, models.Default))
}

func TestStore_AddConnection_Rejections(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	start := addNode(t, s, models.NodeTypeStart, 0, 0)
	fn := addNode(t, s, models.NodeTypeFunction, 0, 0)
	cond := addNode(t, s, models.NodeTypeCondition, 0, 0)
	end := addNode(t, s, models.NodeTypeEnd, 0, 0)

	require.NoError(t, s.AddConnection(start.ID, fn.ID, models.Default))
	require.NoError(t, s.AddConnection(fn.ID, cond.ID, models.Default))

	testCases := []struct {
		name     string
		source   string
		target   string
		branch   models.Branch
		expected error
	}{
		{"self loop", fn.ID, fn.ID, models.Default, ErrSelfLoop},
		{"branch taken", start.ID, end.ID, models.Default, ErrBranchTaken},
		{"condition rejects default", cond.ID, end.ID, models.Default, ErrInvalidBranch},
		{"condition rejects case without cases", cond.ID, end.ID, models.Case(1), ErrInvalidBranch},
		{"end has no branches", end.ID, fn.ID, models.Default, ErrInvalidBranch},
		{"unknown source", "node_99", end.ID, models.Default, ErrNodeNotFound},
		{"unknown target", fn.ID, "node_99", models.Default, ErrNodeNotFound},
		{"cycle", cond.ID, start.ID, models.True, ErrCycle},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := s.Snapshot()
			canUndo := len(s.past)

			err := s.AddConnection(tc.source, tc.target, tc.branch)
			require.ErrorIs(t, err, tc.expected)
			assert.True(t, IsRejectedConnection(err) || IsNotFound(err))
			assert.Equal(t, before, s.Workflow())
			assert.Len(t, s.past, canUndo)
		})
	}
}

func TestStore_AllowCycles(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{AllowCycles: true})

	a := addNode(t, s, models.NodeTypeFunction, 0, 0)
	b := addNode(t, s, models.NodeTypeFunction, 0, 0)

	require.NoError(t, s.AddConnection(a.ID, b.ID, models.Default))
	require.NoError(t, s.AddConnection(b.ID, a.ID, models.Default))
	require.ErrorIs(t, s.AddConnection(a.ID, a.ID, models.Default), ErrSelfLoop)
}

func TestStore_DeleteNode(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	start := addNode(t, s, models.NodeTypeStart, 0, 0)
	other := addNode(t, s, models.NodeTypeFunction, 0, 0)
	cond := addNode(t, s, models.NodeTypeCondition, 0, 0)
	end := addNode(t, s, models.NodeTypeEnd, 0, 0)

	require.NoError(t, s.AddConnection(start.ID, cond.ID, models.Default))
	require.NoError(t, s.AddConnection(other.ID, cond.ID, models.Default))
	require.NoError(t, s.AddConnection(cond.ID, end.ID, models.True))
	require.NoError(t, s.SelectNode(cond.ID))

	require.NoError(t, s.DeleteNode(cond.ID))

	assert.Nil(t, s.Node(cond.ID))
	assert.Empty(t, s.Node(start.ID).NextNodes)
	assert.Empty(t, s.Node(other.ID).NextNodes)
	assert.Equal(t, Selection{}, s.Selection())

	require.NoError(t, s.DeleteNode(start.ID))
	assert.Empty(t, s.Workflow().StartNodeID)

	require.ErrorIs(t, s.DeleteNode(start.ID), ErrNodeNotFound)
}

func TestStore_DeleteConnection(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	a := addNode(t, s, models.NodeTypeStart, 0, 0)
	b := addNode(t, s, models.NodeTypeEnd, 0, 0)

	require.NoError(t, s.AddConnection(a.ID, b.ID, models.Default))
	require.True(t, s.Selection().IsConnection(a.ID, models.Default))

	require.NoError(t, s.DeleteConnection(a.ID, models.Default))
	assert.Empty(t, s.Node(a.ID).NextNodes)
	assert.Equal(t, SelectionNone, s.Selection().Kind)

	require.ErrorIs(t, s.DeleteConnection(a.ID, models.Default), ErrConnectionNotFound)
	require.ErrorIs(t, s.DeleteConnection("node_42", models.Default), ErrNodeNotFound)
}

func TestStore_UpdateNode(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	cond := addNode(t, s, models.NodeTypeCondition, 0, 0)
	a := addNode(t, s, models.NodeTypeEnd, 0, 0)
	b := addNode(t, s, models.NodeTypeEnd, 0, 0)

	require.NoError(t, s.AddConnection(cond.ID, a.ID, models.True))

	name := "Route"
	require.NoError(t, s.UpdateNode(cond.ID, NodeUpdate{
		Name:       &name,
		Conditions: []models.ConditionCase{{Type: "and"}},
	}))

	node := s.Node(cond.ID)
	assert.Equal(t, "Route", node.Name)
	assert.Empty(t, node.NextNodes, "true is no longer declared")

	require.NoError(t, s.AddConnection(cond.ID, a.ID, models.Case(1)))
	require.NoError(t, s.AddConnection(cond.ID, b.ID, models.Else))

	require.ErrorIs(t, s.UpdateNode("node_404", NodeUpdate{Name: &name}), ErrNodeNotFound)
}

func TestStore_ReplaceConnection(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	a := addNode(t, s, models.NodeTypeFunction, 0, 0)
	b := addNode(t, s, models.NodeTypeFunction, 300, 0)
	c := addNode(t, s, models.NodeTypeEnd, 600, 0)
	d := addNode(t, s, models.NodeTypeEnd, 600, 200)

	require.NoError(t, s.AddConnection(a.ID, b.ID, models.Default))
	require.NoError(t, s.AddConnection(b.ID, c.ID, models.Default))

	err := s.ReplaceConnection(b.ID, a.ID, models.Default)
	require.ErrorIs(t, err, ErrCycle)
	assert.Equal(t, c.ID, s.Node(b.ID).NextNodes[models.Default])

	require.ErrorIs(t, s.ReplaceConnection(b.ID, c.ID, models.True), ErrInvalidBranch)
	require.ErrorIs(t, s.ReplaceConnection(b.ID, b.ID, models.Default), ErrSelfLoop)

	require.NoError(t, s.ReplaceConnection(b.ID, d.ID, models.Default))
	assert.Equal(t, d.ID, s.Node(b.ID).NextNodes[models.Default])

	require.NoError(t, s.ReplaceConnection(b.ID, "", models.Default))
	assert.Empty(t, s.Node(b.ID).NextNodes)
	require.NoError(t, s.ReplaceConnection(b.ID, "", models.Default))
}

func TestStore_EditNodeIsAllOrNothing(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	a := addNode(t, s, models.NodeTypeFunction, 0, 0)
	b := addNode(t, s, models.NodeTypeFunction, 300, 0)
	c := addNode(t, s, models.NodeTypeEnd, 600, 0)

	require.NoError(t, s.AddConnection(a.ID, b.ID, models.Default))
	require.NoError(t, s.AddConnection(b.ID, c.ID, models.Default))

	var changes []Change
	s.Subscribe(func(change Change) { changes = append(changes, change) })

	name := "Renamed"
	err := s.EditNode(b.ID, NodeUpdate{Name: &name}, map[models.Branch]string{models.Default: a.ID})
	require.ErrorIs(t, err, ErrCycle)
	assert.True(t, IsRejectedConnection(err))

	assert.Equal(t, "FUNCTION Node", s.Node(b.ID).Name)
	assert.Equal(t, c.ID, s.Node(b.ID).NextNodes[models.Default])
	assert.Empty(t, changes)

	require.NoError(t, s.EditNode(b.ID, NodeUpdate{Name: &name}, map[models.Branch]string{models.Default: ""}))
	assert.Equal(t, "Renamed", s.Node(b.ID).Name)
	assert.Empty(t, s.Node(b.ID).NextNodes)
	assert.NotEmpty(t, changes)

	require.ErrorIs(t, s.EditNode("node_404", NodeUpdate{Name: &name}, nil), ErrNodeNotFound)
}

func TestStore_GenerateNodeIDAfterLoad(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	w := models.NewWorkflow("loaded", "")
	w.Nodes = []*models.Node{
		{ID: "node_3", Type: models.NodeTypeStart},
		{ID: "node_17", Type: models.NodeTypeEnd},
		{ID: "custom", Type: models.NodeTypeEnd},
	}

	s.Load(w)

	assert.Equal(t, "node_18", s.GenerateNodeID())
	assert.Equal(t, "node_19", s.GenerateNodeID())
	assert.Equal(t, "node_3", s.Workflow().StartNodeID)
}

func TestStore_UndoRedo(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	require.ErrorIs(t, s.Undo(), ErrNothingToUndo)

	a := addNode(t, s, models.NodeTypeStart, 0, 0)
	b := addNode(t, s, models.NodeTypeEnd, 0, 0)
	require.NoError(t, s.AddConnection(a.ID, b.ID, models.Default))

	require.NoError(t, s.Undo())
	assert.Empty(t, s.Node(a.ID).NextNodes)

	require.NoError(t, s.Undo())
	assert.Nil(t, s.Node(b.ID))
	assert.True(t, s.CanRedo())

	require.NoError(t, s.Redo())
	require.NoError(t, s.Redo())
	assert.Equal(t, b.ID, s.Node(a.ID).NextNodes[models.Default])
	require.ErrorIs(t, s.Redo(), ErrNothingToRedo)

	require.NoError(t, s.Undo())
	addNode(t, s, models.NodeTypeEnd, 0, 0)
	assert.False(t, s.CanRedo(), "a new edit clears redo")

	assert.NotEqual(t, b.ID, s.Workflow().Nodes[len(s.Workflow().Nodes)-1].ID)
}

func TestStore_UndoDepth(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	for range 30 {
		addNode(t, s, models.NodeTypeFunction, 0, 0)
	}

	undone := 0
	for s.Undo() == nil {
		undone++
	}

	assert.Equal(t, DefaultUndoDepth, undone)
	assert.Len(t, s.Workflow().Nodes, 10)
}

func TestStore_MoveAndRecordMove(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	n := addNode(t, s, models.NodeTypeFunction, 10, 10)
	depth := len(s.past)

	require.NoError(t, s.MoveNode(n.ID, models.Position{X: 40, Y: -5}))
	require.NoError(t, s.MoveNode(n.ID, models.Position{X: 80, Y: 20}))
	assert.Len(t, s.past, depth)
	assert.Equal(t, models.Position{X: 80, Y: 20}, s.Node(n.ID).Position)

	require.NoError(t, s.RecordMove(n.ID, models.Position{X: 10, Y: 10}))
	require.NoError(t, s.Undo())
	assert.Equal(t, models.Position{X: 10, Y: 10}, s.Node(n.ID).Position)

	require.NoError(t, s.Redo())
	assert.Equal(t, models.Position{X: 80, Y: 20}, s.Node(n.ID).Position)

	require.ErrorIs(t, s.MoveNode("node_0", models.Position{}), ErrNodeNotFound)
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	var changes []Change

	unsubscribe := s.Subscribe(func(c Change) { changes = append(changes, c) })

	n := addNode(t, s, models.NodeTypeStart, 0, 0)
	require.NoError(t, s.DeleteNode(n.ID))

	unsubscribe()
	addNode(t, s, models.NodeTypeEnd, 0, 0)

	require.Len(t, changes, 2)
	assert.Equal(t, Change{Kind: ChangeNodeAdded, NodeID: n.ID}, changes[0])
	assert.Equal(t, ChangeNodeDeleted, changes[1].Kind)
}

func TestStore_Dispose(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})
	s.Dispose()

	_, err := s.AddNode(models.NodeTypeStart, models.Position{}, "")
	require.ErrorIs(t, err, ErrDisposed)
	assert.True(t, s.Disposed())

	s.Create("again", "")
	_, err = s.AddNode(models.NodeTypeStart, models.Position{}, "")
	require.NoError(t, err)
}

func TestStore_ReferentialIntegrity(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	types := []models.NodeType{models.NodeTypeStart, models.NodeTypeFunction, models.NodeTypeCondition, models.NodeTypeEnd}

	for _, allowCycles := range []bool{false, true} {
		s := newStore(t, Options{AllowCycles: allowCycles})

		for range 500 {
			nodes := s.Workflow().Nodes

			switch op := rng.Intn(10); {
			case op < 3 || len(nodes) < 2:
				_, err := s.AddNode(types[rng.Intn(len(types))], models.Position{X: rng.Float64() * 500}, "")
				require.NoError(t, err)
			case op < 4:
				_ = s.DeleteNode(nodes[rng.Intn(len(nodes))].ID)
			case op < 8:
				source := nodes[rng.Intn(len(nodes))]
				target := nodes[rng.Intn(len(nodes))]
				branches := source.Branches()

				if len(branches) > 0 {
					_ = s.AddConnection(source.ID, target.ID, branches[rng.Intn(len(branches))])
				}
			case op < 9:
				source := nodes[rng.Intn(len(nodes))]
				for branch := range source.NextNodes {
					_ = s.DeleteConnection(source.ID, branch)

					break
				}
			default:
				_ = s.Undo()
			}

			assertIntegrity(t, s)
		}
	}
}

func assertIntegrity(t *testing.T, s *Store) {
	t.Helper()

	w := s.Workflow()

	for _, node := range w.Nodes {
		for branch, target := range node.NextNodes {
			require.NotNil(t, w.Node(target), "%s.%s points at missing %s", node.ID, branch, target)
			require.NotEqual(t, node.ID, target)
		}
	}

	if w.StartNodeID != "" {
		require.NotNil(t, w.Node(w.StartNodeID))
	}
}

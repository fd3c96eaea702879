package graph

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextNames(vars []models.VariableDef) []string {
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		names = append(names, v.Parent+"."+v.Name)
	}

	return names
}

func toolStore(t *testing.T, opts Options) *Store {
	t.Helper()

	s := newStore(t, opts)
	require.NoError(t, s.UpdateWorkflow(WorkflowUpdate{
		Inputs: map[string]models.FieldDef{"orderId": {Type: models.VariableTypeString}},
		Tools: map[string]models.ToolDefinition{
			"lookup": {Name: "lookup", Outputs: map[string]models.FieldDef{"order": {Type: models.VariableTypeObject}}},
			"price":  {Name: "price", Outputs: map[string]models.FieldDef{"total": {Type: models.VariableTypeNumber}}},
		},
	}))

	return s
}

func functionNode(t *testing.T, s *Store, tool string) *models.Node {
	t.Helper()

	node := addNode(t, s, models.NodeTypeFunction, 0, 0)
	require.NoError(t, s.UpdateNode(node.ID, NodeUpdate{ToolName: &tool}))

	return node
}

func TestContext_PropagatesDownstream(t *testing.T) {
	t.Parallel()

	s := toolStore(t, Options{})

	start := addNode(t, s, models.NodeTypeStart, 0, 0)
	lookup := functionNode(t, s, "lookup")
	price := functionNode(t, s, "price")
	end := addNode(t, s, models.NodeTypeEnd, 0, 0)

	require.NoError(t, s.AddConnection(start.ID, lookup.ID, models.Default))
	require.NoError(t, s.AddConnection(price.ID, end.ID, models.Default))
	assert.Equal(t, []string{price.ID + ".total"}, contextNames(s.Node(end.ID).Context))

	require.NoError(t, s.AddConnection(lookup.ID, price.ID, models.Default))

	assert.Empty(t, s.Node(lookup.ID).Context)
	assert.Equal(t, []string{lookup.ID + ".order"}, contextNames(s.Node(price.ID).Context))
	assert.Equal(t, []string{lookup.ID + ".order", price.ID + ".total"}, contextNames(s.Node(end.ID).Context))

	available := s.AvailableContext(end.ID)
	assert.Equal(t, []string{"global.orderId", lookup.ID + ".order", price.ID + ".total"}, contextNames(available))
}

func TestContext_ClearedOnDisconnect(t *testing.T) {
	t.Parallel()

	s := toolStore(t, Options{})

	lookup := functionNode(t, s, "lookup")
	price := functionNode(t, s, "price")
	end := addNode(t, s, models.NodeTypeEnd, 0, 0)

	require.NoError(t, s.AddConnection(lookup.ID, price.ID, models.Default))
	require.NoError(t, s.AddConnection(price.ID, end.ID, models.Default))
	require.Len(t, s.Node(end.ID).Context, 2)

	require.NoError(t, s.DeleteConnection(lookup.ID, models.Default))

	assert.Empty(t, s.Node(price.ID).Context)
	assert.Equal(t, []string{price.ID + ".total"}, contextNames(s.Node(end.ID).Context))

	require.NoError(t, s.DeleteNode(price.ID))
	assert.Empty(t, s.Node(end.ID).Context)
}

func TestContext_MergesBranchesWithoutDuplicates(t *testing.T) {
	t.Parallel()

	s := toolStore(t, Options{})

	lookup := functionNode(t, s, "lookup")
	cond := addNode(t, s, models.NodeTypeCondition, 0, 0)
	end := addNode(t, s, models.NodeTypeEnd, 0, 0)

	require.NoError(t, s.AddConnection(lookup.ID, cond.ID, models.Default))
	require.NoError(t, s.AddConnection(cond.ID, end.ID, models.True))

	other := functionNode(t, s, "price")
	require.NoError(t, s.AddConnection(other.ID, end.ID, models.Default))
	require.NoError(t, s.UpdateNode(cond.ID, NodeUpdate{}))

	assert.ElementsMatch(t,
		[]string{lookup.ID + ".order", other.ID + ".total"},
		contextNames(s.Node(end.ID).Context))
}

func TestContext_CycleNeverFeedsOwnOutputsBack(t *testing.T) {
	t.Parallel()

	s := toolStore(t, Options{AllowCycles: true})

	lookup := functionNode(t, s, "lookup")
	price := functionNode(t, s, "price")

	require.NoError(t, s.AddConnection(lookup.ID, price.ID, models.Default))
	require.NoError(t, s.AddConnection(price.ID, lookup.ID, models.Default))

	assert.Equal(t, []string{price.ID + ".total"}, contextNames(s.Node(lookup.ID).Context))
	assert.Equal(t, []string{lookup.ID + ".order"}, contextNames(s.Node(price.ID).Context))
}

func TestContext_RecomputedOnLoad(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options{})

	w := models.NewWorkflow("loaded", "")
	w.Tools["lookup"] = models.ToolDefinition{Outputs: map[string]models.FieldDef{"order": {}}}
	w.Nodes = []*models.Node{
		{ID: "a", Type: models.NodeTypeFunction, ToolName: "lookup", NextNodes: map[models.Branch]string{models.Default: "b"}},
		{ID: "b", Type: models.NodeTypeEnd},
	}

	s.Load(w)

	assert.Equal(t, []string{"a.order"}, contextNames(s.Node("b").Context))
	assert.Empty(t, w.Nodes[1].Context)
}

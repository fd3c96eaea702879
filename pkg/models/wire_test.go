package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wireWorkflow = `{
	"id": "wf-1",
	"name": "Order intake",
	"description": "routes new orders",
	"isActive": true,
	"startNodeId": "node_1",
	"inputs": {"orderId": {"name": "orderId", "type": "STRING", "required": true}},
	"outputs": {"result": {"name": "result", "type": "OBJECT", "parent": "node_2"}},
	"globalVariables": {"region": "eu"},
	"tools": {
		"lookup": {
			"name": "lookup",
			"description": "fetches an order",
			"inputs": {"orderId": {"name": "orderId", "type": "STRING", "required": true}},
			"outputs": {"order": {"name": "order", "type": "OBJECT"}}
		}
	},
	"nodes": [
		{"id": "node_1", "type": "START", "name": "Start", "position": {"x": 100, "y": 100}, "nextNodes": {"default": "node_2"}},
		{
			"id": "node_2", "type": "FUNCTION", "name": "Lookup", "position": {"x": 300, "y": 100},
			"toolName": "lookup",
			"inputMap": {"orderId": {"name": "orderId", "type": "STRING", "parent": "global"}},
			"nextNodes": {"default": "node_3"}
		},
		{
			"id": "node_3", "type": "CONDITION", "name": "Is large", "position": {"x": 500, "y": 100},
			"conditions": [{"conditions": [{"leftOperand": {"name": "order", "parent": "node_2"}, "operator": ">", "rightOperand": {"name": "limit", "defaultValue": 10}, "type": "CONSTANT"}], "type": "and", "hint": "big"}],
			"nextNodes": {"case1": "node_4", "else": "node_4"}
		},
		{"id": "node_4", "type": "END", "name": "End", "position": {"x": 700, "y": 100}}
	]
}`

func TestWire_RoundTrip(t *testing.T) {
	t.Parallel()

	var w Workflow

	require.NoError(t, json.Unmarshal([]byte(wireWorkflow), &w))

	app := FromWire(&w)
	app.Nodes[1].Context = []VariableDef{{Name: "orderId", Parent: GlobalParent}}

	data, err := EncodeWorkflow(app)
	require.NoError(t, err)
	assert.JSONEq(t, wireWorkflow, string(data))
}

func TestFromWire_Normalises(t *testing.T) {
	t.Parallel()

	w := &Workflow{
		Name: "partial",
		Nodes: []*Node{
			{ID: "a", Type: NodeTypeFunction, NextNodes: map[Branch]string{Default: "ghost"}},
			{ID: "b", Type: NodeTypeStart},
		},
	}

	out := FromWire(w)

	assert.Equal(t, "b", out.StartNodeID)
	assert.Empty(t, out.Nodes[0].NextNodes)
	assert.NotNil(t, out.Nodes[1].NextNodes)
	assert.NotNil(t, out.Tools)
	assert.NotNil(t, out.Inputs)
	assert.Equal(t, "ghost", w.Nodes[0].NextNodes[Default], "input must not be mutated")
}

func TestFromWire_Nil(t *testing.T) {
	t.Parallel()

	out := FromWire(nil)
	require.NotNil(t, out)
	assert.Empty(t, out.Nodes)
}

func TestToWire_StartNode(t *testing.T) {
	t.Parallel()

	w := NewWorkflow("wf", "")
	w.StartNodeID = "stale"
	w.Nodes = append(w.Nodes, &Node{ID: "node_7", Type: NodeTypeStart})

	assert.Equal(t, "node_7", ToWire(w).StartNodeID)

	w.Nodes = append(w.Nodes, &Node{ID: "node_9", Type: NodeTypeStart}, &Node{ID: "node_10", Type: NodeTypeEnd})
	w.StartNodeID = "node_9"
	assert.Equal(t, "node_9", ToWire(w).StartNodeID)

	w.StartNodeID = "node_10"
	assert.Equal(t, "node_7", ToWire(w).StartNodeID)

	w.StartNodeID = ""
	assert.Empty(t, ToWire(w).StartNodeID)

	w.StartNodeID = "stale"
	w.Nodes = w.Nodes[:0]
	assert.Empty(t, ToWire(w).StartNodeID)
}

func TestDecodeWorkflow(t *testing.T) {
	t.Parallel()

	w, err := DecodeWorkflow([]byte(wireWorkflow))
	require.NoError(t, err)
	assert.Len(t, w.Nodes, 4)
	assert.Equal(t, "node_4", w.Nodes[2].NextNodes[Case(1)])

	testCases := []struct {
		name string
		doc  string
	}{
		{"missing nodes", `{"name":"x"}`},
		{"bad label", `{"name":"x","nodes":[{"id":"a","type":"START","position":{"x":0,"y":0},"nextNodes":{"maybe":"b"}}]}`},
		{"missing position", `{"name":"x","nodes":[{"id":"a","type":"START"}]}`},
		{"bad variable type", `{"name":"x","nodes":[],"inputs":{"a":{"type":"BLOB"}}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeWorkflow([]byte(tc.doc))
			require.ErrorIs(t, err, ErrSchemaViolation)

			var schemaErr *SchemaError

			require.ErrorAs(t, err, &schemaErr)
			assert.NotEmpty(t, schemaErr.Violations)
		})
	}
}

func TestWorkflow_Validate(t *testing.T) {
	t.Parallel()

	w := NewWorkflow("valid", "")
	w.Nodes = append(w.Nodes, &Node{ID: "node_1", Type: NodeTypeStart})
	require.NoError(t, w.Validate())

	w.Nodes = append(w.Nodes, &Node{Type: NodeTypeEnd})
	require.Error(t, w.Validate())

	assert.Error(t, NewWorkflow("", "").Validate())
}

func TestWorkflow_Queries(t *testing.T) {
	t.Parallel()

	var w Workflow

	require.NoError(t, json.Unmarshal([]byte(wireWorkflow), &w))

	assert.Equal(t, "node_1", w.StartNode().ID)
	assert.Nil(t, w.Node("nope"))
	assert.Equal(t, []string{"node_3"}, w.Predecessors("node_4"))
	assert.Len(t, w.Edges(), 4)

	inputs := w.InputVariables()
	require.Len(t, inputs, 1)
	assert.Equal(t, GlobalParent, inputs[0].Parent)
}

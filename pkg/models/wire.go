package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// FromWire normalises a workflow decoded from the service so the editor can
// rely on non-nil maps, a resolved start node and no dangling edges.
func FromWire(w *Workflow) *Workflow {
	out := w.Clone()
	if out == nil {
		return NewWorkflow("", "")
	}

	if out.Nodes == nil {
		out.Nodes = make([]*Node, 0)
	}

	if out.Inputs == nil {
		out.Inputs = make(map[string]FieldDef)
	}

	if out.Outputs == nil {
		out.Outputs = make(map[string]VariableDef)
	}

	if out.GlobalVariables == nil {
		out.GlobalVariables = make(map[string]any)
	}

	if out.Tools == nil {
		out.Tools = make(map[string]ToolDefinition)
	}

	ids := make(map[string]bool, len(out.Nodes))
	for _, node := range out.Nodes {
		ids[node.ID] = true
	}

	for _, node := range out.Nodes {
		if node.NextNodes == nil {
			node.NextNodes = make(map[Branch]string)
		}

		for branch, target := range node.NextNodes {
			if !ids[target] {
				delete(node.NextNodes, branch)
			}
		}

		node.Context = nil
	}

	if out.StartNodeID == "" || !ids[out.StartNodeID] {
		out.StartNodeID = ""

		for _, node := range out.Nodes {
			if node.Type == NodeTypeStart {
				out.StartNodeID = node.ID

				break
			}
		}
	}

	return out
}

// ToWire returns the workflow as it is sent to the service: a deep copy
// without transient context. A start node id that no longer names a START
// node is replaced by the first START node; an empty one stays empty.
func ToWire(w *Workflow) *Workflow {
	out := w.Clone()
	if out == nil {
		return nil
	}

	for _, node := range out.Nodes {
		node.Context = nil
	}

	if out.StartNodeID == "" {
		return out
	}

	if start := out.Node(out.StartNodeID); start != nil && start.Type == NodeTypeStart {
		return out
	}

	idx := slices.IndexFunc(out.Nodes, func(n *Node) bool { return n.Type == NodeTypeStart })
	if idx >= 0 {
		out.StartNodeID = out.Nodes[idx].ID
	} else {
		out.StartNodeID = ""
	}

	return out
}

// DecodeWorkflow checks data against the workflow schema, decodes it and
// normalises it with FromWire.
func DecodeWorkflow(data []byte) (*Workflow, error) {
	err := ValidateJSON(data)
	if err != nil {
		return nil, err
	}

	var w Workflow

	err = json.Unmarshal(data, &w)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}

	return FromWire(&w), nil
}

// EncodeWorkflow serialises the wire form of w.
func EncodeWorkflow(w *Workflow) ([]byte, error) {
	data, err := json.Marshal(ToWire(w))
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow: %w", err)
	}

	return data, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

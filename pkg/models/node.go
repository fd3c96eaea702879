package models

import (
	"slices"
	"strings"
)

// NodeType is the kind of step a node represents.
type NodeType string

const (
	NodeTypeStart     NodeType = "START"
	NodeTypeFunction  NodeType = "FUNCTION"
	NodeTypeCondition NodeType = "CONDITION"
	NodeTypeEnd       NodeType = "END"
)

// ParseNodeType normalises a wire type. Unknown values become FUNCTION.
func ParseNodeType(s string) NodeType {
	switch t := NodeType(strings.ToUpper(s)); t {
	case NodeTypeStart, NodeTypeFunction, NodeTypeCondition, NodeTypeEnd:
		return t
	default:
		return NodeTypeFunction
	}
}

func (t *NodeType) UnmarshalText(text []byte) error {
	*t = ParseNodeType(string(text))

	return nil
}

// Position is a point in canvas space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp returns the position with negative coordinates raised to zero.
func (p Position) Clamp() Position {
	return Position{X: max(p.X, 0), Y: max(p.Y, 0)}
}

// Node is a single step of a workflow graph.
type Node struct {
	ID          string                 `json:"id"                    validate:"required"`
	Type        NodeType               `json:"type"                  validate:"required,oneof=START FUNCTION CONDITION END"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Position    Position               `json:"position"`
	NextNodes   map[Branch]string      `json:"nextNodes,omitempty"`
	ToolName    string                 `json:"toolName,omitempty"`
	Parameters  map[string]any         `json:"parameters,omitempty"`
	Conditions  []ConditionCase        `json:"conditions,omitempty"  validate:"dive"`
	InputMap    map[string]VariableDef `json:"inputMap,omitempty"    validate:"dive"`

	// Context holds the variables produced upstream of this node. It is
	// recomputed by the graph store and never serialised.
	Context []VariableDef `json:"-"`
}

// DefaultNodeName is the name given to nodes created without one.
func DefaultNodeName(t NodeType) string {
	return string(t) + " Node"
}

// Branches returns the outgoing labels the node declares, in port order.
func (n *Node) Branches() []Branch {
	switch n.Type {
	case NodeTypeEnd:
		return nil
	case NodeTypeCondition:
		if len(n.Conditions) == 0 {
			return []Branch{True, False}
		}

		branches := make([]Branch, 0, len(n.Conditions)+1)
		for i := range n.Conditions {
			branches = append(branches, Case(i+1))
		}

		return append(branches, Else)
	default:
		return []Branch{Default}
	}
}

// HasBranch reports whether b is one of the node's declared branches.
func (n *Node) HasBranch(b Branch) bool {
	return slices.Contains(n.Branches(), b)
}

// Edges returns the node's outgoing edges ordered by branch.
func (n *Node) Edges() []Edge {
	edges := make([]Edge, 0, len(n.NextNodes))
	for branch, target := range n.NextNodes {
		edges = append(edges, Edge{Source: n.ID, Target: target, Branch: branch})
	}

	slices.SortFunc(edges, func(a, b Edge) int {
		switch {
		case a.Branch.less(b.Branch):
			return -1
		case b.Branch.less(a.Branch):
			return 1
		default:
			return 0
		}
	})

	return edges
}

// Outputs returns the variables this node makes available downstream.
func (n *Node) Outputs(tools map[string]ToolDefinition) []VariableDef {
	if n.Type != NodeTypeFunction || n.ToolName == "" {
		return nil
	}

	tool, ok := tools[n.ToolName]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(tool.Outputs))
	for name := range tool.Outputs {
		names = append(names, name)
	}

	slices.Sort(names)

	outputs := make([]VariableDef, 0, len(names))
	for _, name := range names {
		outputs = append(outputs, tool.Outputs[name].Variable(name, n.ID))
	}

	return outputs
}

func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := *n

	if n.NextNodes != nil {
		clone.NextNodes = make(map[Branch]string, len(n.NextNodes))
		for k, v := range n.NextNodes {
			clone.NextNodes[k] = v
		}
	}

	if n.Parameters != nil {
		clone.Parameters = cloneMap(n.Parameters)
	}

	if n.Conditions != nil {
		clone.Conditions = make([]ConditionCase, len(n.Conditions))
		for i, c := range n.Conditions {
			clone.Conditions[i] = c.Clone()
		}
	}

	if n.InputMap != nil {
		clone.InputMap = make(map[string]VariableDef, len(n.InputMap))
		for k, v := range n.InputMap {
			clone.InputMap[k] = v.Clone()
		}
	}

	if n.Context != nil {
		clone.Context = make([]VariableDef, len(n.Context))
		for i, v := range n.Context {
			clone.Context[i] = v.Clone()
		}
	}

	return &clone
}

// Edge is a labelled connection between two nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Branch Branch `json:"branch"`
}

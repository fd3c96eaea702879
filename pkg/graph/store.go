// Package graph owns the workflow graph being edited. Every mutation of nodes,
// edges, selection and undo history goes through a Store.
package graph

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/models"
)

const (
	// DefaultUndoDepth bounds the undo stack.
	DefaultUndoDepth = 20

	nodeIDPrefix = "node_"
)

var nodeIDPattern = regexp.MustCompile(`^node_(\d+)$`)

type Options struct {
	// AllowCycles lets AddConnection close directed cycles.
	AllowCycles bool
	UndoDepth   int
	Logger      *slog.Logger
}

// Store is not safe for concurrent use; callers serialise access.
type Store struct {
	opts   Options
	logger *slog.Logger

	workflow  *models.Workflow
	counter   int
	selection Selection
	past      []*models.Workflow
	future    []*models.Workflow

	listeners    map[int]func(Change)
	nextListener int
	disposed     bool
}

func New(opts Options) *Store {
	if opts.UndoDepth <= 0 {
		opts.UndoDepth = DefaultUndoDepth
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		opts:      opts,
		logger:    logger.With("component", "graph_store"),
		listeners: make(map[int]func(Change)),
	}
	s.Create("Untitled workflow", "")

	return s
}

// Create replaces the current graph with an empty workflow.
func (s *Store) Create(name, description string) {
	s.reset(models.NewWorkflow(name, description), 1)
	s.logger.Debug("workflow created", "name", name)
	s.emit(Change{Kind: ChangeLoaded})
}

// Load replaces the current graph with a copy of w. The id counter is seeded
// past every existing node_<n> id.
func (s *Store) Load(w *models.Workflow) {
	loaded := models.FromWire(w)
	s.reset(loaded, nextCounter(loaded, 1))
	s.recomputeAllContexts()
	s.logger.Debug("workflow loaded", "workflow_id", loaded.ID, "nodes", len(loaded.Nodes))
	s.emit(Change{Kind: ChangeLoaded})
}

// Dispose drops the graph and every listener. The store is unusable afterwards.
func (s *Store) Dispose() {
	s.disposed = true
	s.listeners = make(map[int]func(Change))
	s.past = nil
	s.future = nil
	s.selection = Selection{}
}

func (s *Store) Disposed() bool {
	return s.disposed
}

func (s *Store) reset(w *models.Workflow, counter int) {
	s.workflow = w
	s.counter = counter
	s.selection = Selection{}
	s.past = nil
	s.future = nil
	s.disposed = false
}

// Workflow returns the live workflow. Callers must not mutate it.
func (s *Store) Workflow() *models.Workflow {
	return s.workflow
}

// Snapshot returns a deep copy of the current workflow.
func (s *Store) Snapshot() *models.Workflow {
	return s.workflow.Clone()
}

func (s *Store) Node(id string) *models.Node {
	return s.workflow.Node(id)
}

func (s *Store) Edges() []models.Edge {
	return s.workflow.Edges()
}

// SetID adopts the id assigned by the service after a save.
func (s *Store) SetID(id string) {
	s.workflow.ID = id
}

// GenerateNodeID returns the next node_<n> id not used by the current graph.
func (s *Store) GenerateNodeID() string {
	for {
		id := nodeIDPrefix + strconv.Itoa(s.counter)
		s.counter++

		if s.workflow.Node(id) == nil {
			return id
		}
	}
}

func nextCounter(w *models.Workflow, floor int) int {
	next := floor

	for _, node := range w.Nodes {
		m := nodeIDPattern.FindStringSubmatch(node.ID)
		if m == nil {
			continue
		}

		n, err := strconv.Atoi(m[1])
		if err == nil && n+1 > next {
			next = n + 1
		}
	}

	return next
}

// AddNode creates a node at pos (clamped to non-negative coordinates) and selects it.
func (s *Store) AddNode(nodeType models.NodeType, pos models.Position, name string) (*models.Node, error) {
	if s.disposed {
		return nil, ErrDisposed
	}

	if name == "" {
		name = models.DefaultNodeName(nodeType)
	}

	s.pushUndo()

	node := &models.Node{
		ID:        s.GenerateNodeID(),
		Type:      nodeType,
		Name:      name,
		Position:  pos.Clamp(),
		NextNodes: make(map[models.Branch]string),
	}

	s.workflow.Nodes = append(s.workflow.Nodes, node)

	if nodeType == models.NodeTypeStart {
		s.workflow.StartNodeID = node.ID
	}

	s.selection = Selection{Kind: SelectionNode, NodeID: node.ID}

	s.logger.Debug("node added", "node_id", node.ID, "type", nodeType)
	s.emit(Change{Kind: ChangeNodeAdded, NodeID: node.ID})

	return node, nil
}

// NodeUpdate lists the fields to merge into a node. Nil fields are left alone.
type NodeUpdate struct {
	Name        *string
	Description *string
	Position    *models.Position
	ToolName    *string
	Parameters  map[string]any
	Conditions  []models.ConditionCase
	InputMap    map[string]models.VariableDef
}

// UpdateNode shallow-merges update into the node. Branches a CONDITION node
// stops declaring lose their edges.
func (s *Store) UpdateNode(id string, update NodeUpdate) error {
	if s.disposed {
		return ErrDisposed
	}

	node := s.workflow.Node(id)
	if node == nil {
		return opError("UpdateNode", id, ErrNodeNotFound)
	}

	s.pushUndo()

	if update.Name != nil {
		node.Name = *update.Name
	}

	if update.Description != nil {
		node.Description = *update.Description
	}

	if update.Position != nil {
		node.Position = update.Position.Clamp()
	}

	if update.ToolName != nil {
		node.ToolName = *update.ToolName
	}

	if update.Parameters != nil {
		node.Parameters = update.Parameters
	}

	if update.Conditions != nil {
		node.Conditions = update.Conditions
	}

	if update.InputMap != nil {
		node.InputMap = update.InputMap
	}

	var pruned []string

	for branch, target := range node.NextNodes {
		if !node.HasBranch(branch) {
			delete(node.NextNodes, branch)
			pruned = append(pruned, target)
		}
	}

	s.reconcileSelection()
	s.propagate(append(pruned, node.ID)...)

	s.emit(Change{Kind: ChangeNodeUpdated, NodeID: id})

	return nil
}

// WorkflowUpdate lists workflow-level fields to replace. Nil fields are left alone.
type WorkflowUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
	Inputs      map[string]models.FieldDef
	Tools       map[string]models.ToolDefinition
}

func (s *Store) UpdateWorkflow(update WorkflowUpdate) error {
	if s.disposed {
		return ErrDisposed
	}

	s.pushUndo()

	if update.Name != nil {
		s.workflow.Name = *update.Name
	}

	if update.Description != nil {
		s.workflow.Description = *update.Description
	}

	if update.IsActive != nil {
		s.workflow.IsActive = *update.IsActive
	}

	if update.Inputs != nil {
		s.workflow.Inputs = update.Inputs
	}

	if update.Tools != nil {
		s.workflow.Tools = update.Tools
		s.recomputeAllContexts()
	}

	s.emit(Change{Kind: ChangeWorkflowUpdated})

	return nil
}

// MoveNode sets a node position during a drag without recording an undo step.
func (s *Store) MoveNode(id string, pos models.Position) error {
	node := s.workflow.Node(id)
	if node == nil {
		return opError("MoveNode", id, ErrNodeNotFound)
	}

	node.Position = pos.Clamp()
	s.emit(Change{Kind: ChangeNodeMoved, NodeID: id})

	return nil
}

// RecordMove records a finished drag as one undo step whose prior state has
// the node at from.
func (s *Store) RecordMove(id string, from models.Position) error {
	node := s.workflow.Node(id)
	if node == nil {
		return opError("RecordMove", id, ErrNodeNotFound)
	}

	if node.Position == from {
		return nil
	}

	before := s.workflow.Clone()
	before.Node(id).Position = from
	s.pushSnapshot(before)

	return nil
}

// DeleteNode removes a node and every edge pointing at it.
func (s *Store) DeleteNode(id string) error {
	if s.disposed {
		return ErrDisposed
	}

	idx := -1

	for i, node := range s.workflow.Nodes {
		if node.ID == id {
			idx = i

			break
		}
	}

	if idx < 0 {
		return opError("DeleteNode", id, ErrNodeNotFound)
	}

	s.pushUndo()

	removed := s.workflow.Nodes[idx]
	s.workflow.Nodes = append(s.workflow.Nodes[:idx:idx], s.workflow.Nodes[idx+1:]...)

	for _, node := range s.workflow.Nodes {
		for branch, target := range node.NextNodes {
			if target == id {
				delete(node.NextNodes, branch)
			}
		}
	}

	if s.workflow.StartNodeID == id {
		s.workflow.StartNodeID = ""
	}

	s.reconcileSelection()

	targets := make([]string, 0, len(removed.NextNodes))
	for _, target := range removed.NextNodes {
		targets = append(targets, target)
	}

	s.propagate(targets...)

	s.logger.Debug("node deleted", "node_id", id)
	s.emit(Change{Kind: ChangeNodeDeleted, NodeID: id})

	return nil
}

// AddConnection links source to target under branch and selects the new edge.
func (s *Store) AddConnection(source, target string, branch models.Branch) error {
	if s.disposed {
		return ErrDisposed
	}

	err := s.CanConnect(source, target, branch)
	if err != nil {
		return err
	}

	s.pushUndo()

	node := s.workflow.Node(source)
	if node.NextNodes == nil {
		node.NextNodes = make(map[models.Branch]string)
	}

	node.NextNodes[branch] = target

	s.selection = Selection{
		Kind: SelectionConnection,
		Edge: models.Edge{Source: source, Target: target, Branch: branch},
	}

	s.propagate(target)

	s.logger.Debug("connection added", "source", source, "target", target, "branch", branch.String())
	s.emit(Change{Kind: ChangeConnectionAdded, NodeID: source, Branch: branch})

	return nil
}

// CanConnect reports why AddConnection would reject the edge, or nil.
func (s *Store) CanConnect(source, target string, branch models.Branch) error {
	return s.canConnect("AddConnection", source, target, branch, false)
}

// canConnect checks a new edge. When replacing, the edge currently leaving
// source under branch is treated as already removed.
func (s *Store) canConnect(op, source, target string, branch models.Branch, replacing bool) error {
	if source == target {
		return opError(op, source, ErrSelfLoop)
	}

	node := s.workflow.Node(source)
	if node == nil {
		return opError(op, source, ErrNodeNotFound)
	}

	if s.workflow.Node(target) == nil {
		return opError(op, target, ErrNodeNotFound)
	}

	if !node.HasBranch(branch) {
		return opError(op, source, fmt.Errorf("%w: %s", ErrInvalidBranch, branch))
	}

	var skip *models.Edge

	if _, taken := node.NextNodes[branch]; taken {
		if !replacing {
			return opError(op, source, fmt.Errorf("%w: %s", ErrBranchTaken, branch))
		}

		skip = &models.Edge{Source: source, Branch: branch}
	}

	if !s.opts.AllowCycles && geometry.WouldCreateCycle(s.adjacency(skip), source, target) {
		return opError(op, source, ErrCycle)
	}

	return nil
}

// ReplaceConnection points the edge leaving source under branch at target.
// An empty target removes the edge. A rejected target keeps the old edge.
func (s *Store) ReplaceConnection(source, target string, branch models.Branch) error {
	if s.disposed {
		return ErrDisposed
	}

	node := s.workflow.Node(source)
	if node == nil {
		return opError("ReplaceConnection", source, ErrNodeNotFound)
	}

	current, connected := node.NextNodes[branch]

	switch {
	case target == "" && !connected:
		return nil
	case target == "":
		return s.DeleteConnection(source, branch)
	case connected && current == target:
		return nil
	}

	err := s.canConnect("ReplaceConnection", source, target, branch, true)
	if err != nil {
		return err
	}

	s.pushUndo()

	if node.NextNodes == nil {
		node.NextNodes = make(map[models.Branch]string)
	}

	node.NextNodes[branch] = target

	s.selection = Selection{
		Kind: SelectionConnection,
		Edge: models.Edge{Source: source, Target: target, Branch: branch},
	}

	roots := []string{target}
	if connected {
		roots = append(roots, current)
	}

	s.propagate(roots...)

	s.logger.Debug("connection replaced", "source", source, "target", target, "previous", current, "branch", branch.String())
	s.emit(Change{Kind: ChangeConnectionAdded, NodeID: source, Branch: branch})

	return nil
}

// EditNode merges update into the node, then points each branch listed in
// connections at its target (empty removes the edge). The edit is tried on a
// copy of the graph first; if any step is rejected nothing changes.
func (s *Store) EditNode(id string, update NodeUpdate, connections map[models.Branch]string) error {
	if s.disposed {
		return ErrDisposed
	}

	err := s.trial().applyEdit(id, update, connections)
	if err != nil {
		return err
	}

	return s.applyEdit(id, update, connections)
}

func (s *Store) applyEdit(id string, update NodeUpdate, connections map[models.Branch]string) error {
	err := s.UpdateNode(id, update)
	if err != nil {
		return err
	}

	branches := make([]models.Branch, 0, len(connections))
	for branch := range connections {
		branches = append(branches, branch)
	}

	slices.SortFunc(branches, func(a, b models.Branch) int {
		return strings.Compare(a.String(), b.String())
	})

	for _, branch := range branches {
		err = s.ReplaceConnection(id, connections[branch], branch)
		if err != nil {
			return err
		}
	}

	return nil
}

// trial returns a silent copy of the store for rehearsing a change.
func (s *Store) trial() *Store {
	return &Store{
		opts:      s.opts,
		logger:    slog.New(slog.DiscardHandler),
		workflow:  s.workflow.Clone(),
		counter:   s.counter,
		selection: s.selection,
		listeners: make(map[int]func(Change)),
	}
}

// DeleteConnection removes the edge leaving source under branch.
func (s *Store) DeleteConnection(source string, branch models.Branch) error {
	if s.disposed {
		return ErrDisposed
	}

	node := s.workflow.Node(source)
	if node == nil {
		return opError("DeleteConnection", source, ErrNodeNotFound)
	}

	target, ok := node.NextNodes[branch]
	if !ok {
		return opError("DeleteConnection", source, ErrConnectionNotFound)
	}

	s.pushUndo()

	delete(node.NextNodes, branch)

	if s.selection.IsConnection(source, branch) {
		s.selection = Selection{}
	}

	s.propagate(target)

	s.emit(Change{Kind: ChangeConnectionDeleted, NodeID: source, Branch: branch})

	return nil
}

// DeleteSelection removes the selected node or connection, if any.
func (s *Store) DeleteSelection() error {
	switch s.selection.Kind {
	case SelectionNode:
		return s.DeleteNode(s.selection.NodeID)
	case SelectionConnection:
		return s.DeleteConnection(s.selection.Edge.Source, s.selection.Edge.Branch)
	default:
		return nil
	}
}

// Replace swaps in a copy of w as one undoable step, keeping node ids unique.
func (s *Store) Replace(w *models.Workflow) {
	s.pushUndo()

	s.workflow = models.FromWire(w)
	s.counter = nextCounter(s.workflow, s.counter)
	s.reconcileSelection()
	s.recomputeAllContexts()

	s.emit(Change{Kind: ChangeLoaded})
}

// adjacency lists the edges of the graph, leaving out skip when it is set.
func (s *Store) adjacency(skip *models.Edge) geometry.Adjacency {
	graph := make(geometry.Adjacency, len(s.workflow.Nodes))
	for _, node := range s.workflow.Nodes {
		for _, edge := range node.Edges() {
			if skip != nil && edge.Source == skip.Source && edge.Branch == skip.Branch {
				continue
			}

			graph[node.ID] = append(graph[node.ID], edge.Target)
		}
	}

	return graph
}

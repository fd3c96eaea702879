package canvas

import (
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

const (
	// DragThreshold is how far, in screen pixels, a pointer must travel on
	// either axis before a press on a node becomes a drag.
	DragThreshold = 5.0
	// ClickTimeout is the longest press still treated as a click.
	ClickTimeout = 200 * time.Millisecond
	// EdgeTolerance is the hit distance for selecting an edge, in canvas pixels.
	EdgeTolerance = 6.0
)

var (
	ErrMenuClosed = errors.New("context menu is not open")
	ErrNoTarget   = errors.New("no node under pointer")
)

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent is a pointer sample in screen space.
type PointerEvent struct {
	Point  geometry.Point `json:"point"`
	Button Button         `json:"button"`
	Time   time.Time      `json:"time"`
}

// Key is a key press with its modifiers. Name follows DOM KeyboardEvent.key.
type Key struct {
	Name  string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Meta  bool   `json:"meta"`
}

// Outcome tells the caller what a finished gesture did.
type Outcome string

const (
	OutcomeNone            Outcome = "none"
	OutcomeClick           Outcome = "click"
	OutcomeDrag            Outcome = "drag"
	OutcomePan             Outcome = "pan"
	OutcomeBackgroundClick Outcome = "background_click"
	OutcomeEdgeClick       Outcome = "edge_click"
)

// Menu is the node palette opened with a right click.
type Menu struct {
	Open   bool           `json:"open"`
	Screen geometry.Point `json:"screen"`
	Canvas geometry.Point `json:"canvas"`
}

type Options struct {
	OnOpenEditor  func(nodeID string)
	OnCloseEditor func()
	OnDragCommit  func(nodeID string)
	Logger        *slog.Logger
}

type gesture struct {
	nodeID   string
	start    geometry.Point
	started  time.Time
	grab     geometry.Point
	from     models.Position
	dragging bool
}

// Controller interprets raw input against a store and viewport. It is not
// safe for concurrent use.
type Controller struct {
	store    *graph.Store
	viewport *Viewport
	opts     Options
	logger   *slog.Logger

	spaceHeld  bool
	panFrom    geometry.Point
	node       *gesture
	background *PointerEvent
	menu       Menu
}

func NewController(store *graph.Store, viewport *Viewport, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		store:    store,
		viewport: viewport,
		opts:     opts,
		logger:   logger.With("component", "canvas_controller"),
	}
}

func (c *Controller) Menu() Menu {
	return c.menu
}

func (c *Controller) SpaceHeld() bool {
	return c.spaceHeld
}

// Dragging reports whether a node is currently being dragged.
func (c *Controller) Dragging() bool {
	return c.node != nil && c.node.dragging
}

func (c *Controller) PointerDown(ev PointerEvent) {
	c.menu = Menu{}

	if ev.Button == ButtonMiddle || (ev.Button == ButtonLeft && c.spaceHeld) {
		c.viewport.IsPanning = true
		c.panFrom = ev.Point

		return
	}

	if ev.Button != ButtonLeft {
		return
	}

	at := c.viewport.ScreenToCanvas(ev.Point)

	node := NodeAt(c.store.Workflow(), at)
	if node == nil {
		c.background = &ev

		return
	}

	c.node = &gesture{
		nodeID:  node.ID,
		start:   ev.Point,
		started: ev.Time,
		grab:    at.Sub(geometry.Point{X: node.Position.X, Y: node.Position.Y}),
		from:    node.Position,
	}

	_ = c.store.SelectNode(node.ID)
}

func (c *Controller) PointerMove(ev PointerEvent) {
	if c.viewport.IsPanning {
		c.viewport.Pan(ev.Point.Sub(c.panFrom))
		c.panFrom = ev.Point

		return
	}

	if c.node == nil {
		return
	}

	if !c.node.dragging && exceedsThreshold(c.node.start, ev.Point) {
		c.node.dragging = true
	}

	if c.node.dragging {
		at := c.viewport.ScreenToCanvas(ev.Point).Sub(c.node.grab)

		err := c.store.MoveNode(c.node.nodeID, models.Position{X: at.X, Y: at.Y})
		if err != nil {
			c.logger.Warn("dragged node vanished", "node_id", c.node.nodeID, "error", err)
			c.node = nil
		}
	}
}

func (c *Controller) PointerUp(ev PointerEvent) Outcome {
	if c.viewport.IsPanning {
		c.viewport.IsPanning = false

		return OutcomePan
	}

	if bg := c.background; bg != nil {
		c.background = nil

		if exceedsThreshold(bg.Point, ev.Point) {
			return OutcomeNone
		}

		edge, ok := EdgeAt(c.store.Workflow(), c.viewport.ScreenToCanvas(ev.Point), EdgeTolerance)
		if ok {
			_ = c.store.SelectConnection(edge.Source, edge.Branch)

			return OutcomeEdgeClick
		}

		c.BackgroundClick()

		return OutcomeBackgroundClick
	}

	g := c.node
	if g == nil {
		return OutcomeNone
	}

	c.node = nil

	if !g.dragging && exceedsThreshold(g.start, ev.Point) {
		g.dragging = true
	}

	if !g.dragging && ev.Time.Sub(g.started) < ClickTimeout {
		if c.opts.OnOpenEditor != nil {
			c.opts.OnOpenEditor(g.nodeID)
		}

		return OutcomeClick
	}

	err := c.store.RecordMove(g.nodeID, g.from)
	if err != nil {
		c.logger.Warn("failed to record move", "node_id", g.nodeID, "error", err)

		return OutcomeNone
	}

	if c.opts.OnDragCommit != nil {
		c.opts.OnDragCommit(g.nodeID)
	}

	return OutcomeDrag
}

func exceedsThreshold(from, to geometry.Point) bool {
	return math.Abs(to.X-from.X) > DragThreshold || math.Abs(to.Y-from.Y) > DragThreshold
}

// Wheel zooms toward the cursor.
func (c *Controller) Wheel(deltaY float64, cursor geometry.Point) bool {
	return c.viewport.Zoom(deltaY, cursor)
}

// KeyDown handles editor shortcuts. It reports whether the key was used.
func (c *Controller) KeyDown(k Key) (bool, error) {
	mod := k.Ctrl || k.Meta
	name := strings.ToLower(k.Name)

	switch {
	case name == " " || name == "space":
		c.spaceHeld = true

		return true, nil
	case mod && name == "z" && k.Shift, mod && name == "y":
		return true, ignoreEmpty(c.store.Redo(), graph.ErrNothingToRedo)
	case mod && name == "z":
		return true, ignoreEmpty(c.store.Undo(), graph.ErrNothingToUndo)
	case !mod && name == "r":
		c.viewport.Reset()

		return true, nil
	case name == "delete" || name == "backspace":
		return true, c.store.DeleteSelection()
	case name == "escape":
		c.menu = Menu{}
		c.store.ClearSelection()

		return true, nil
	default:
		return false, nil
	}
}

func ignoreEmpty(err, empty error) error {
	if errors.Is(err, empty) {
		return nil
	}

	return err
}

func (c *Controller) KeyUp(k Key) {
	name := strings.ToLower(k.Name)
	if name == " " || name == "space" {
		c.spaceHeld = false
	}
}

// ContextMenu opens the palette at the cursor.
func (c *Controller) ContextMenu(screen geometry.Point) Menu {
	c.menu = Menu{
		Open:   true,
		Screen: screen,
		Canvas: c.viewport.ScreenToCanvas(screen),
	}

	return c.menu
}

func (c *Controller) CloseMenu() {
	c.menu = Menu{}
}

// SelectPaletteEntry creates a node of nodeType where the palette was opened.
func (c *Controller) SelectPaletteEntry(nodeType models.NodeType) (*models.Node, error) {
	if !c.menu.Open {
		return nil, ErrMenuClosed
	}

	at := c.menu.Canvas
	c.menu = Menu{}

	return c.store.AddNode(nodeType, models.Position{X: at.X, Y: at.Y}, "")
}

// BackgroundClick closes the node editor and clears the selection.
func (c *Controller) BackgroundClick() {
	c.menu = Menu{}
	c.store.ClearSelection()

	if c.opts.OnCloseEditor != nil {
		c.opts.OnCloseEditor()
	}
}

// Connect finishes dragging from a source port: the node under screen
// becomes the target of branch.
func (c *Controller) Connect(sourceID string, branch models.Branch, screen geometry.Point) error {
	target := NodeAt(c.store.Workflow(), c.viewport.ScreenToCanvas(screen))
	if target == nil {
		return ErrNoTarget
	}

	return c.store.AddConnection(sourceID, target.ID, branch)
}

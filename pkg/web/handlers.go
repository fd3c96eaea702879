// Package web exposes editor sessions over HTTP so a browser front end can
// drive the canvas and render the SVG it produces.
package web

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dukex/flowcanvas/pkg/canvas"
	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

var errInvalidJSON = errors.New("invalid JSON format")

type APIHandlers struct {
	sessions  *Sessions
	validator *validator.Validate
	now       func() time.Time
}

func NewAPIHandlers(sessions *Sessions, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		sessions:  sessions,
		validator: validator,
		now:       time.Now,
	}
}

func (h *APIHandlers) session(c fiber.Ctx) (*editor.Session, error) {
	return h.sessions.Get(c.Params("sessionId"))
}

// bind decodes the JSON body into req and validates it.
func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return errInvalidJSON
	}

	return h.validator.Struct(req)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"message":   "flowcanvas editor is healthy",
		"sessions":  len(h.sessions.IDs()),
		"timestamp": h.now().UTC(),
	})
}

func (h *APIHandlers) ListSessions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"sessions": h.sessions.IDs()})
}

func (h *APIHandlers) CreateSession(c fiber.Ctx) error {
	var req CreateSessionRequest

	if len(c.Body()) > 0 {
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	s, err := h.sessions.Create()
	if err != nil {
		return internalError(c, err)
	}

	switch {
	case req.WorkflowID != "":
		err = s.Open(c.Context(), req.WorkflowID)
	case req.Name != "" || req.Description != "":
		err = s.New(req.Name, req.Description)
	}

	if err != nil {
		_ = h.sessions.Close(s.ID())

		return handleEditorError(c, err)
	}

	w, err := s.Workflow()
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(SessionResponse{ID: s.ID(), Workflow: w})
}

func (h *APIHandlers) CloseSession(c fiber.Ctx) error {
	err := h.sessions.Close(c.Params("sessionId"))
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	w, err := s.Workflow()
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(w)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req UpdateWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.UpdateWorkflow(req.update()); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetWorkflow(c)
}

func (h *APIHandlers) OpenWorkflow(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.Open(c.Context(), c.Params("workflowId")); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetWorkflow(c)
}

func (h *APIHandlers) SaveWorkflow(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	saved, err := s.Save(c.Context())
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(saved)
}

// DeleteWorkflow deletes the saved workflow from the service and leaves the
// session on an empty graph.
func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.Delete(c.Context()); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	result, err := s.Validate()
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(fiber.Map{
		"valid":       result.Valid(),
		"problems":    result.Problems,
		"unreachable": result.Unreachable,
	})
}

func (h *APIHandlers) RenderCanvas(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var buf bytes.Buffer
	if err := s.Render(&buf); err != nil {
		return handleEditorError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")

	return c.Send(buf.Bytes())
}

func (h *APIHandlers) GetScene(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	scene, err := s.Scene()
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(scene)
}

func (h *APIHandlers) SetCanvasSize(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req CanvasSizeRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.SetCanvasSize(req.Width, req.Height); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetViewport(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	vp, err := s.Viewport()
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(vp)
}

func (h *APIHandlers) CreateNode(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req CreateNodeRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := s.AddNode(req.Type, models.Position{X: req.X, Y: req.Y}, req.Name)
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req UpdateNodeRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	nodeID := c.Params("nodeId")
	if err := s.UpdateNode(nodeID, req.update()); err != nil {
		return handleEditorError(c, err)
	}

	w, err := s.Workflow()
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(w.Node(nodeID))
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.DeleteNode(c.Params("nodeId")); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateConnection(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req ConnectionRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.AddConnection(req.Source, req.Target, req.Branch); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusCreated)
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	branch, err := models.ParseBranch(c.Params("branch"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.DeleteConnection(c.Params("nodeId"), branch); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// pointer decodes a pointer event, stamping it with the server clock when
// the client sent no time.
func (h *APIHandlers) pointer(c fiber.Ctx) (canvas.PointerEvent, error) {
	var ev canvas.PointerEvent
	if err := c.Bind().JSON(&ev); err != nil {
		return ev, errInvalidJSON
	}

	if ev.Time.IsZero() {
		ev.Time = h.now()
	}

	return ev, nil
}

func (h *APIHandlers) PointerDown(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	ev, err := h.pointer(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.PointerDown(ev); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PointerMove(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	ev, err := h.pointer(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.PointerMove(ev); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PointerUp(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	ev, err := h.pointer(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	outcome, err := s.PointerUp(ev)
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(PointerResponse{Outcome: outcome})
}

func (h *APIHandlers) Wheel(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req WheelRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := s.Wheel(req.DeltaY, req.Cursor); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetViewport(c)
}

func (h *APIHandlers) KeyDown(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var key canvas.Key
	if err := h.bind(c, &key); err != nil {
		return badRequest(c, err.Error())
	}

	handled, err := s.KeyDown(key)
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(KeyResponse{Handled: handled})
}

func (h *APIHandlers) KeyUp(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var key canvas.Key
	if err := h.bind(c, &key); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.KeyUp(key); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) OpenMenu(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var screen geometry.Point
	if err := h.bind(c, &screen); err != nil {
		return badRequest(c, err.Error())
	}

	menu, err := s.ContextMenu(screen)
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(menu)
}

func (h *APIHandlers) CloseMenu(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.CloseMenu(); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) SelectPaletteEntry(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req PaletteRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := s.SelectPaletteEntry(req.Type)
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) Connect(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req ConnectRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.Connect(req.Source, req.Branch, req.Screen); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusCreated)
}

func (h *APIHandlers) Undo(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.Undo(); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetWorkflow(c)
}

func (h *APIHandlers) Redo(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.Redo(); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetWorkflow(c)
}

func (h *APIHandlers) GetPanel(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	panel, err := s.Panel()
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(panel)
}

func (h *APIHandlers) OpenPanel(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.OpenPanel(c.Params("nodeId")); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetPanel(c)
}

func (h *APIHandlers) EditPanel(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req PanelEditRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.Edit(req); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetPanel(c)
}

func (h *APIHandlers) SavePanel(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req PanelEditRequest
	if len(c.Body()) > 0 {
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	if err := s.SavePanel(req); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ClosePanel(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.ClosePanel(); err != nil {
		return handleEditorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetHistory(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	snapshots, err := s.History()
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(fiber.Map{"snapshots": snapshots})
}

func (h *APIHandlers) RestoreHistory(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "Invalid history index")
	}

	if err := s.RestoreHistory(index); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetWorkflow(c)
}

func (h *APIHandlers) ListDrafts(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	list, err := s.ListDrafts(c.Context())
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(fiber.Map{"drafts": list})
}

func (h *APIHandlers) SaveDraft(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	draft, err := s.SaveDraft(c.Context())
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(draft)
}

func (h *APIHandlers) RestoreDraft(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	if err := s.RestoreDraft(c.Context(), c.Params("key")); err != nil {
		return handleEditorError(c, err)
	}

	return h.GetWorkflow(c)
}

func (h *APIHandlers) Execute(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req ExecuteRequest
	if len(c.Body()) > 0 {
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	executionID, err := s.Execute(c.Context(), req.Inputs)
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(ExecuteResponse{ExecutionID: executionID})
}

func (h *APIHandlers) ExecutionStatus(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	executionID := c.Params("executionId")

	status, err := s.ExecutionStatus(c.Context(), executionID)
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(StatusResponse{ExecutionID: executionID, Status: status})
}

func (h *APIHandlers) GetDebug(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	return c.JSON(s.Debug())
}

func (h *APIHandlers) StartDebug(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	var req ExecuteRequest
	if len(c.Body()) > 0 {
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	// The run outlives the request.
	if err := s.StartDebug(context.Background(), req.Inputs); err != nil {
		return handleEditorError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(s.Debug())
}

func (h *APIHandlers) StopDebug(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleEditorError(c, err)
	}

	s.StopDebug()

	return c.JSON(s.Debug())
}

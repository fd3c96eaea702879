package web

import (
	"errors"

	"github.com/dukex/flowcanvas/pkg/canvas"
	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/debug"
	"github.com/dukex/flowcanvas/pkg/drafts"
	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/history"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

var ErrSessionNotFound = errors.New("editor session not found")

func problem(c fiber.Ctx, status int, kind, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleEditorError maps editor, graph and service failures to problem responses.
func handleEditorError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, editor.ErrClosed):
		return problem(c, fiber.StatusNotFound, "session_not_found", "editor session not found")

	case errors.Is(err, editor.ErrInvalidParameters):
		return problem(c, fiber.StatusBadRequest, "invalid_parameters", err.Error())

	case errors.Is(err, models.ErrInvalidWorkflow):
		return problem(c, fiber.StatusBadRequest, "invalid_workflow", err.Error())

	case errors.Is(err, editor.ErrPanelClosed):
		return problem(c, fiber.StatusConflict, "panel_closed", err.Error())

	case errors.Is(err, editor.ErrUnsaved):
		return problem(c, fiber.StatusConflict, "workflow_unsaved", err.Error())

	case errors.Is(err, editor.ErrNoDraftStore):
		return problem(c, fiber.StatusNotImplemented, "drafts_disabled", err.Error())

	case graph.IsNotFound(err):
		return problem(c, fiber.StatusNotFound, "node_not_found", err.Error())

	case graph.IsRejectedConnection(err):
		return problem(c, fiber.StatusConflict, "connection_rejected", err.Error())

	case errors.Is(err, graph.ErrNothingToUndo), errors.Is(err, graph.ErrNothingToRedo):
		return problem(c, fiber.StatusConflict, "nothing_to_do", err.Error())

	case errors.Is(err, canvas.ErrMenuClosed):
		return problem(c, fiber.StatusConflict, "menu_closed", err.Error())

	case errors.Is(err, canvas.ErrNoTarget):
		return problem(c, fiber.StatusBadRequest, "no_target", err.Error())

	case errors.Is(err, history.ErrIndexOutOfRange):
		return problem(c, fiber.StatusNotFound, "snapshot_not_found", err.Error())

	case errors.Is(err, drafts.ErrDraftNotFound):
		return problem(c, fiber.StatusNotFound, "draft_not_found", err.Error())

	case errors.Is(err, drafts.ErrInvalidKey):
		return problem(c, fiber.StatusBadRequest, "validation_error", err.Error())

	case errors.Is(err, debug.ErrAlreadyRunning):
		return problem(c, fiber.StatusConflict, "debug_running", err.Error())

	case client.IsNotFound(err):
		return problem(c, fiber.StatusNotFound, "workflow_not_found", "workflow not found")

	case errors.Is(err, client.ErrRequestFailed), errors.Is(err, client.ErrDeleteRejected):
		return problem(c, fiber.StatusBadGateway, "service_error", err.Error())

	default:
		return internalError(c, err)
	}
}

package web

import (
	"log/slog"
	"strconv"

	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

type Server struct {
	logger   *slog.Logger
	sessions *Sessions
	validate *validator.Validate
	app      *fiber.App
}

func NewServer(logger *slog.Logger, factory SessionFactory) *Server {
	return &Server{
		logger:   logger,
		sessions: NewSessions(factory, logger),
		validate: models.Validator(),
	}
}

func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// requestLogger carries a logger tagged with the request id in the request
// context, so editor sessions log under the request that drove them.
func (s *Server) requestLogger(c fiber.Ctx) error {
	logger := s.logger.With("request_id", requestid.FromContext(c))
	c.SetContext(log.WithContext(c.Context(), logger))

	return c.Next()
}

func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	handlers := NewAPIHandlers(s.sessions, s.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(s.requestLogger)

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("flowcanvas editor")
	})

	app.Get("/health", handlers.HealthCheck)

	r := app.Group("/sessions")
	r.Get("/", handlers.ListSessions)
	r.Post("/", handlers.CreateSession)
	r.Delete("/:sessionId", handlers.CloseSession)

	r.Get("/:sessionId/workflow", handlers.GetWorkflow)
	r.Patch("/:sessionId/workflow", handlers.UpdateWorkflow)
	r.Delete("/:sessionId/workflow", handlers.DeleteWorkflow)
	r.Post("/:sessionId/open/:workflowId", handlers.OpenWorkflow)
	r.Post("/:sessionId/save", handlers.SaveWorkflow)
	r.Get("/:sessionId/validate", handlers.ValidateWorkflow)

	r.Get("/:sessionId/canvas.svg", handlers.RenderCanvas)
	r.Get("/:sessionId/scene", handlers.GetScene)
	r.Put("/:sessionId/canvas/size", handlers.SetCanvasSize)
	r.Get("/:sessionId/viewport", handlers.GetViewport)

	r.Post("/:sessionId/nodes", handlers.CreateNode)
	r.Patch("/:sessionId/nodes/:nodeId", handlers.UpdateNode)
	r.Delete("/:sessionId/nodes/:nodeId", handlers.DeleteNode)
	r.Post("/:sessionId/connections", handlers.CreateConnection)
	r.Delete("/:sessionId/connections/:nodeId/:branch", handlers.DeleteConnection)

	// Raw input for the interaction controller.
	r.Post("/:sessionId/pointer/down", handlers.PointerDown)
	r.Post("/:sessionId/pointer/move", handlers.PointerMove)
	r.Post("/:sessionId/pointer/up", handlers.PointerUp)
	r.Post("/:sessionId/wheel", handlers.Wheel)
	r.Post("/:sessionId/keys/down", handlers.KeyDown)
	r.Post("/:sessionId/keys/up", handlers.KeyUp)
	r.Post("/:sessionId/menu", handlers.OpenMenu)
	r.Delete("/:sessionId/menu", handlers.CloseMenu)
	r.Post("/:sessionId/menu/select", handlers.SelectPaletteEntry)
	r.Post("/:sessionId/connect", handlers.Connect)
	r.Post("/:sessionId/undo", handlers.Undo)
	r.Post("/:sessionId/redo", handlers.Redo)

	r.Get("/:sessionId/panel", handlers.GetPanel)
	r.Patch("/:sessionId/panel", handlers.EditPanel)
	r.Delete("/:sessionId/panel", handlers.ClosePanel)
	r.Post("/:sessionId/panel/save", handlers.SavePanel)
	r.Post("/:sessionId/panel/:nodeId", handlers.OpenPanel)

	r.Get("/:sessionId/history", handlers.GetHistory)
	r.Post("/:sessionId/history/:index/restore", handlers.RestoreHistory)

	r.Get("/:sessionId/drafts", handlers.ListDrafts)
	r.Post("/:sessionId/drafts", handlers.SaveDraft)
	r.Post("/:sessionId/drafts/:key/restore", handlers.RestoreDraft)

	r.Post("/:sessionId/execute", handlers.Execute)
	r.Get("/:sessionId/executions/:executionId", handlers.ExecutionStatus)
	r.Get("/:sessionId/debug", handlers.GetDebug)
	r.Post("/:sessionId/debug", handlers.StartDebug)
	r.Delete("/:sessionId/debug", handlers.StopDebug)

	s.app = app

	return app
}

func (s *Server) Start(port int) error {
	s.logger.Info("Starting editor server", "port", port)

	return s.App().Listen(":" + strconv.Itoa(port))
}

// Shutdown stops the listener and closes every editor session.
func (s *Server) Shutdown() error {
	defer s.sessions.CloseAll()

	if s.app == nil {
		return nil
	}

	return s.app.Shutdown()
}

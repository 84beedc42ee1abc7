// Package server exposes the translation handler over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/nguyenvanduocit/indictrans/pkg/api"
)

const invalidBodyMessage = "Invalid request body"

type Server struct {
	app     *fiber.App
	handler *api.Handler
	logger  *slog.Logger
}

func New(handler *api.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		handler: handler,
		logger:  logger.With("component", "server"),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(requestid.New())
	s.app.Use(recover.New())
	s.app.Use(requestContext)

	s.app.Post("/api/translate", s.translate)
	s.app.Get("/api/languages", s.languages)
	s.app.Get("/api/status", s.status)

	return s
}

// App is exposed for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// requestContext gives handlers a context that is cancelled when the request
// finishes or the server shuts down.
func requestContext(c *fiber.Ctx) error {
	ctx, cancel := context.WithCancel(c.Context())
	defer cancel()
	c.SetUserContext(ctx)
	return c.Next()
}

func (s *Server) translate(c *fiber.Ctx) error {
	var req api.TranslateRequest
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(api.Envelope{"success": false, "error": invalidBodyMessage})
		}
	}

	env, err := s.handler.Translate(c.UserContext(), req)
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if !env.Success() {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(env)
}

func (s *Server) languages(c *fiber.Ctx) error {
	env, err := s.handler.Languages()
	if err != nil {
		return err
	}
	return c.JSON(env)
}

func (s *Server) status(c *fiber.Ctx) error {
	env, err := s.handler.Status()
	if err != nil {
		return err
	}
	return c.JSON(env)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	env := api.FaultEnvelope(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		env = api.Envelope{"success": false, "error": fe.Message}
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
			"error", err)
	}
	return c.Status(code).JSON(env)
}

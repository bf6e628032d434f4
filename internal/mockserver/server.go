// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/navi-tui/internal/logging"
)

// Page size limits applied to both listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Result codes carried in the envelope.
const (
	CodeOK           = "COMMON200"
	CodeBadRequest   = "COMMON400"
	CodeUnauthorized = "COMMON401"
	CodeNotFound     = "SESSION404"
)

// Options configures a Server.
type Options struct {
	// Token, when set, is required as a bearer token on every request.
	Token string
	// Latency delays every answer, simulating generation time.
	Latency time.Duration
	// Responder produces answers. Defaults to DefaultResponder.
	Responder Responder
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now    func() time.Time
	Logger logrus.FieldLogger
}

// Server is an in-memory implementation of the NAVI conversation service.
// It implements http.Handler.
type Server struct {
	echo      *echo.Echo
	store     *Store
	token     string
	latency   time.Duration
	responder Responder
	log       logrus.FieldLogger
}

// New builds a server with its routes registered.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	responder := opts.Responder
	if responder == nil {
		responder = DefaultResponder
	}

	s := &Server{
		echo:      echo.New(),
		store:     NewStore(opts.Now),
		token:     opts.Token,
		latency:   opts.Latency,
		responder: responder,
		log:       logger.WithField("component", "mockserver"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLogger())
	s.echo.Use(s.authenticate)
	s.RegisterRoutes(s.echo)
	return s
}

// RegisterRoutes registers the service routes with e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/sessions", s.ListSessions)
	e.POST("/sessions", s.CreateSession)
	e.POST("/sessions/delete/:session_id", s.DeleteSession)
	e.POST("/sessions/:session_id", s.Send)
	e.GET("/sessions/:session_id/messages", s.ListMessages)
	e.GET("/health", s.Health)
}

// Store exposes the backing store, e.g. for seeding.
func (s *Server) Store() *Store {
	return s.store
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("mock server listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Seed creates sessions for a demo. Each session gets one exchange per
// question.
func (s *Server) Seed(questions ...[]string) {
	for _, qs := range questions {
		if len(qs) == 0 {
			continue
		}
		rec := s.store.CreateSession(qs[0])
		for _, q := range qs {
			if _, err := s.store.AddMessage(rec.ID, q, s.responder(q)); err != nil {
				s.log.WithError(err).Warn("seed message dropped")
			}
		}
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

// Health returns health status.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// ListSessions returns a page of sessions, newest first.
// GET /sessions?size=&cursorAt=&cursorId=
func (s *Server) ListSessions(c echo.Context) error {
	size, err := pageSize(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	}

	page, hasNext := s.store.Sessions(c.QueryParam("cursorId"), size)
	details := make([]sessionJSON, 0, len(page))
	for _, rec := range page {
		details = append(details, sessionJSON{
			SessionID:    rec.ID,
			SessionTitle: rec.Title,
			CreatedAt:    rec.CreatedAt.Format(TimeLayout),
		})
	}
	return ok(c, map[string]any{"details": details, "hasNext": hasNext})
}

// CreateSession starts a session and answers its seed question.
// POST /sessions {question}
func (s *Server) CreateSession(c echo.Context) error {
	question, err := bindQuestion(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	}

	answer, err := s.generate(c.Request().Context(), question)
	if err != nil {
		return err
	}

	rec := s.store.CreateSession(question)
	if _, err := s.store.AddMessage(rec.ID, question, answer); err != nil {
		return fail(c, http.StatusNotFound, CodeNotFound, err.Error())
	}

	s.log.WithField("session_id", rec.ID).Info("session created")
	return ok(c, map[string]any{"sessionId": rec.ID})
}

// Send answers a question in an existing session.
// POST /sessions/:session_id {question}
func (s *Server) Send(c echo.Context) error {
	question, err := bindQuestion(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	}

	answer, err := s.generate(c.Request().Context(), question)
	if err != nil {
		return err
	}

	sessionID := c.Param("session_id")
	if _, err := s.store.AddMessage(sessionID, question, answer); err != nil {
		return fail(c, http.StatusNotFound, CodeNotFound, err.Error())
	}
	return ok(c, map[string]any{"map": map[string]string{"response": answer}})
}

// ListMessages returns a page of a session's history, newest first.
// GET /sessions/:session_id/messages?size=&cursorAt=&cursorId=
func (s *Server) ListMessages(c echo.Context) error {
	size, err := pageSize(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	}

	page, hasNext, err := s.store.Messages(c.Param("session_id"), c.QueryParam("cursorId"), size)
	if err != nil {
		return fail(c, http.StatusNotFound, CodeNotFound, err.Error())
	}

	details := make([]messageJSON, 0, len(page))
	for _, m := range page {
		details = append(details, messageJSON{
			MemberMessageID: m.ID,
			SessionID:       m.SessionID,
			CreatedAt:       m.CreatedAt.Format(TimeLayout),
			LastActiveAt:    m.LastActiveAt.Format(TimeLayout),
			Question:        m.Question,
			Answer:          m.Answer,
		})
	}

	result := map[string]any{"details": details, "hasNext": hasNext}
	if hasNext && len(page) > 0 {
		last := page[len(page)-1]
		result["nextCreatedAt"] = last.CreatedAt.Format(TimeLayout)
		result["nextMessageId"] = last.ID
	}
	return ok(c, result)
}

// DeleteSession removes a session.
// POST /sessions/delete/:session_id
func (s *Server) DeleteSession(c echo.Context) error {
	id := c.Param("session_id")
	if err := s.store.DeleteSession(id); err != nil {
		return fail(c, http.StatusNotFound, CodeNotFound, err.Error())
	}
	s.log.WithField("session_id", id).Info("session deleted")
	return ok(c, nil)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.token == "" || c.Path() == "/health" {
			return next(c)
		}
		if c.Request().Header.Get(echo.HeaderAuthorization) != "Bearer "+s.token {
			return fail(c, http.StatusUnauthorized, CodeUnauthorized, "invalid or missing token")
		}
		return next(c)
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			}).Debug("request")
			return nil
		},
	})
}

// =============================================================================
// HELPERS
// =============================================================================

type sessionJSON struct {
	SessionID    string `json:"sessionId"`
	SessionTitle string `json:"sessionTitle"`
	CreatedAt    string `json:"createdAt"`
}

type messageJSON struct {
	MemberMessageID int64  `json:"memberMessageId"`
	SessionID       string `json:"sessionId"`
	CreatedAt       string `json:"createdAt"`
	LastActiveAt    string `json:"lastActiveAt"`
	Question        string `json:"question"`
	Answer          string `json:"answer"`
}

type envelopeJSON struct {
	IsSuccess bool   `json:"isSuccess"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Result    any    `json:"result"`
}

func ok(c echo.Context, result any) error {
	return c.JSON(http.StatusOK, envelopeJSON{IsSuccess: true, Code: CodeOK, Message: "success", Result: result})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, envelopeJSON{Code: code, Message: message})
}

func bindQuestion(c echo.Context) (string, error) {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.Bind(&req); err != nil {
		return "", errors.New("request body must be JSON with a question")
	}
	q := strings.TrimSpace(req.Question)
	if q == "" {
		return "", errors.New("question is required")
	}
	return q, nil
}

func pageSize(c echo.Context) (int, error) {
	raw := c.QueryParam("size")
	if raw == "" {
		return DefaultPageSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("size must be a positive integer")
	}
	return min(n, MaxPageSize), nil
}

// generate waits out the configured latency and produces an answer. A
// cancelled request yields the context error, which echo reports as 500.
func (s *Server) generate(ctx context.Context, question string) (string, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return s.responder(question), nil
}

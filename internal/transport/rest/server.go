// Package rest serves the workspace over a JSON HTTP API built on echo.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"crmcore/internal/analytics"
	"crmcore/internal/auth"
	"crmcore/internal/core"
	"crmcore/internal/metrics"
	"crmcore/pkg/domain"
)

// maxUploadBytes caps multipart attachment uploads.
const maxUploadBytes = 25 << 20

// Options configures the HTTP surface.
type Options struct {
	Logger      *slog.Logger
	Gate        *auth.Gate
	Metrics     *metrics.Metrics
	MetricsPath string
	// MetricsHandler serves MetricsPath; nil disables the endpoint.
	MetricsHandler http.Handler
	// VarsHandler serves /debug/vars when set.
	VarsHandler http.Handler
	Location    *time.Location
}

// Server wires handlers to a workspace service.
type Server struct {
	echo    *echo.Echo
	svc     *core.Service
	gate    *auth.Gate
	logger  *slog.Logger
	loc     *time.Location
	version string
}

// NewServer builds the echo router. Everything under /api except the auth
// endpoints requires a session.
func NewServer(svc *core.Service, version string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &customValidator{validator: newValidator()}
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Debug("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if opts.Metrics != nil {
		e.Use(opts.Metrics.Middleware())
	}

	s := &Server{echo: e, svc: svc, gate: opts.Gate, logger: logger, loc: loc, version: version}

	e.GET("/healthz", s.health)
	if opts.MetricsHandler != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(opts.MetricsHandler))
	}
	if opts.VarsHandler != nil {
		e.GET("/debug/vars", echo.WrapHandler(opts.VarsHandler))
	}

	api := e.Group("/api")
	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout)

	protected := api.Group("")
	if s.gate != nil {
		protected.Use(s.gate.Middleware())
	}
	protected.GET("/dashboard", s.dashboard)
	protected.GET("/search", s.search)
	protected.GET("/activity", s.listActivity)

	protected.GET("/statuses", s.listStatuses)
	protected.POST("/statuses", s.addStatus)
	protected.DELETE("/statuses/:label", s.removeStatus)

	protected.GET("/leads", s.listLeads)
	protected.GET("/leads/board", s.leadBoard)
	protected.POST("/leads", s.createLead)
	protected.GET("/leads/:id", s.getLead)
	protected.PATCH("/leads/:id", s.updateLead)
	protected.DELETE("/leads/:id", s.deleteLead)
	protected.POST("/leads/:id/timeline", s.addTimelineEntry)
	protected.POST("/leads/:id/files", s.addFileLink)
	protected.GET("/leads/:id/attachments", s.listAttachments)
	protected.POST("/leads/:id/attachments", s.uploadAttachment, middleware.BodyLimit("25M"))

	protected.GET("/clients", s.listClients)
	protected.POST("/clients", s.createClient)
	protected.GET("/clients/:id", s.getClient)
	protected.PATCH("/clients/:id", s.updateClient)
	protected.DELETE("/clients/:id", s.deleteClient)

	protected.GET("/projects", s.listProjects)
	protected.POST("/projects", s.createProject)
	protected.GET("/projects/:id", s.getProject)
	protected.PATCH("/projects/:id", s.updateProject)
	protected.DELETE("/projects/:id", s.deleteProject)

	protected.GET("/tasks", s.listTasks)
	protected.POST("/tasks", s.createTask)
	protected.GET("/tasks/:id", s.getTask)
	protected.PATCH("/tasks/:id", s.updateTask)
	protected.DELETE("/tasks/:id", s.deleteTask)

	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string, readTimeout, writeTimeout time.Duration) error {
	s.echo.Server.ReadTimeout = readTimeout
	s.echo.Server.WriteTimeout = writeTimeout
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

// bind decodes and validates the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	return c.Validate(dst)
}

func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request error", "path", c.Request().URL.Path, "error", err)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var (
		verrs     validator.ValidationErrors
		fieldErr  fieldError
		violation domain.RuleViolationError
		httpErr   *echo.HTTPError
	)
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid request data.", Fields: fields}
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request data.",
			Fields:  map[string]string{fieldErr.Field: fieldErr.Tag},
		}
	case errors.As(err, &violation):
		return http.StatusConflict, ErrorResponse{Error: "rule_violation", Message: violation.Error(), Violations: violation.Result.Violations}
	case errors.Is(err, core.ErrLeadNotFound), errors.Is(err, errNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "The requested resource was not found."}
	case errors.Is(err, analytics.ErrUnknownTimeframe):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid_timeframe", Message: err.Error()}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: "invalid_credentials", Message: "Invalid email or password."}
	case errors.Is(err, core.ErrNoBlobStore):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "attachments_disabled", Message: err.Error()}
	case errors.As(err, &httpErr):
		msg, _ := httpErr.Message.(string)
		return httpErr.Code, ErrorResponse{Error: http.StatusText(httpErr.Code), Message: msg}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "An internal error occurred."}
	}
}

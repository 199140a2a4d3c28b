// Package server exposes the research workflow over HTTP. Streaming endpoints
// use server-sent events; one event per workflow event, flushed as produced.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/trendscout/config"
	"github.com/mohammad-safakhou/trendscout/internal/agent/core"
	"github.com/mohammad-safakhou/trendscout/internal/session"
)

type Server struct {
	cfg      *config.Config
	workflow *core.Workflow
	sessions session.Store
	logger   *log.Logger
}

func New(cfg *config.Config, workflow *core.Workflow, sessions session.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	return &Server{cfg: cfg, workflow: workflow, sessions: sessions, logger: logger}
}

// Echo builds the configured echo instance with all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/generate", s.generate)
	e.POST("/approve", s.approve)
	e.GET("/sessions/:id", s.getSession)
	return e
}

// Run blocks serving HTTP on the configured address.
func (s *Server) Run() error {
	e := s.Echo()
	s.logger.Printf("listening on %s", s.cfg.Server.Address)
	return e.Start(s.cfg.Server.Address)
}

func (s *Server) getSession(c echo.Context) error {
	rec, err := s.sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

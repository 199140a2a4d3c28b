package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/trendscout/internal/agent/core"
	"github.com/mohammad-safakhou/trendscout/internal/session"
)

// approve resolves a parked session and streams the resulting events: ideas
// on approve, a fresh research run on refine or restart.
func (s *Server) approve(c echo.Context) error {
	var req ApprovalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	events, err := s.workflow.Decide(c.Request().Context(), req.SessionID, req.Action, req.Refinement)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, core.ErrRefinementRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return s.stream(c, events)
}

package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/trendscout/internal/agent/core"
)

// generate runs the research pipeline and streams its events over SSE until
// the run parks at the approval gate.
func (s *Server) generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if len(req.Platforms) == 0 {
		req.Platforms = defaultPlatforms
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	mode := req.Mode
	if mode == "" {
		mode = core.ModeDeep
	}

	events := s.workflow.Run(c.Request().Context(), req.Query, req.Platforms, req.SessionID, mode)
	return s.stream(c, events)
}

// stream writes one SSE message per workflow event and flushes after each.
func (s *Server) stream(c echo.Context, events <-chan core.Event) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Printf("failed to marshal event %s: %v", ev.Type, err)
			continue
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			// Keep consuming so the producing goroutine can finish.
			for range events {
			}
			return nil
		}
		flusher.Flush()
	}
	return nil
}

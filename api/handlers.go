package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query"
)

// errorBody is the wire form of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError formats an engine error exactly once at the boundary:
// query-parse errors are client faults, invariant violations are bugs.
func writeError(c echo.Context, err error) error {
	var parseErr *silo.QueryParseError
	if errors.As(err, &parseErr) {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Bad request", Message: parseErr.Error()})
	}
	var internalErr *silo.InternalError
	if errors.As(err, &internalErr) {
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal error", Message: internalErr.Error()})
	}
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal error", Message: err.Error()})
}

func (s *Server) handleQuery(c echo.Context) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return c.JSON(http.StatusTooManyRequests, errorBody{
			Error:   "Too many requests",
			Message: "query rate limit exceeded",
		})
	}

	engine := s.engine()
	if engine == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody{
			Error:   "Service unavailable",
			Message: "no database snapshot has been loaded",
		})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Bad request", Message: err.Error()})
	}

	type outcome struct {
		response *query.Response
		err      error
	}
	done := make(chan outcome, 1)
	submitErr := s.pool.Submit(c.Request().Context(), func() {
		response, err := engine.ExecuteQuery(body)
		done <- outcome{response: response, err: err}
	})
	if submitErr != nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody{
			Error:   "Service unavailable",
			Message: submitErr.Error(),
		})
	}

	result := <-done
	if result.err != nil {
		return writeError(c, result.err)
	}
	return c.JSON(http.StatusOK, result.response)
}

func (s *Server) handleInfo(c echo.Context) error {
	engine := s.engine()
	if engine == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody{
			Error:   "Service unavailable",
			Message: "no database snapshot has been loaded",
		})
	}
	return c.JSON(http.StatusOK, engine.Database().Info())
}

func (s *Server) handleDetailedInfo(c echo.Context) error {
	engine := s.engine()
	if engine == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody{
			Error:   "Service unavailable",
			Message: "no database snapshot has been loaded",
		})
	}
	return c.JSON(http.StatusOK, engine.Database().DetailedInfo())
}

func (s *Server) handleHealth(c echo.Context) error {
	status := map[string]any{"status": "ok", "snapshotLoaded": s.engine() != nil}
	return c.JSON(http.StatusOK, status)
}

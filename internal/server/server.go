// Package server exposes the tariff dataset and the chat sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mwiater/tariffadvisor/internal/chat"
	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	"github.com/mwiater/tariffadvisor/internal/tariff"
)

const shutdownTimeout = 5 * time.Second

// Server wires the HTTP routes to the dataset and the session store.
type Server struct {
	e        *echo.Echo
	dataset  *tariff.Dataset
	sessions *chat.Store
}

// New builds the router. metricsHandler is mounted on /metrics when non-nil.
func New(ds *tariff.Dataset, sessions *chat.Store, metricsHandler http.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = errorHandler

	s := &Server{e: e, dataset: ds, sessions: sessions}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	api := e.Group("/api/v1")
	api.GET("/countries", s.countries)
	api.GET("/tariffs", s.tariffs)
	api.GET("/summary", s.summary)
	api.POST("/ask", s.ask)
	api.GET("/sessions/:id/history", s.history)
	return s
}

// Handler returns the router for use with httptest or a custom http.Server.
func (s *Server) Handler() http.Handler { return s.e }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("[HTTP] listening on %s", addr)
		errCh <- s.e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// errorHandler renders every error as {"error": msg}.
func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	logging.LogEvent("[HTTP] %d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

type countriesResponse struct {
	Countries []string `json:"countries"`
}

func (s *Server) countries(c echo.Context) error {
	return c.JSON(http.StatusOK, countriesResponse{Countries: s.dataset.Countries()})
}

type tariffsResponse struct {
	Selection []string           `json:"selection"`
	Top       int                `json:"top"`
	Rows      []domain.TariffRow `json:"rows"`
}

func (s *Server) tariffs(c echo.Context) error {
	selection := selectedCountries(c)
	top, err := parseTop(c.QueryParam("top"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rows := s.dataset.ByCountry(selection)
	if top > 0 {
		rows = tariff.TopN(rows, top)
	}
	if rows == nil {
		rows = []domain.TariffRow{}
	}
	return c.JSON(http.StatusOK, tariffsResponse{Selection: selection, Top: top, Rows: rows})
}

type summaryResponse struct {
	Selection   []string `json:"selection"`
	DisplayName string   `json:"display_name"`
	Summary     string   `json:"summary"`
}

func (s *Server) summary(c echo.Context) error {
	selection := selectedCountries(c)
	return c.JSON(http.StatusOK, summaryResponse{
		Selection:   selection,
		DisplayName: tariff.DisplayName(selection),
		Summary:     s.dataset.SummaryFor(selection),
	})
}

type askRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type askResponse struct {
	SessionID string          `json:"session_id"`
	Record    domain.QARecord `json:"record"`
	Added     bool            `json:"added"`
}

func (s *Server) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	var session *chat.Session
	if req.SessionID != "" {
		var ok bool
		if session, ok = s.sessions.Get(req.SessionID); !ok {
			return echo.NewHTTPError(http.StatusNotFound, "unknown session "+req.SessionID)
		}
	} else {
		session = s.sessions.Create()
	}

	rec, added, err := session.Ask(c.Request().Context(), req.Question)
	if err != nil {
		var ae *domain.AnswerError
		if errors.As(err, &ae) {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
		}
		return err
	}
	return c.JSON(http.StatusOK, askResponse{SessionID: session.ID(), Record: rec, Added: added})
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	History   []domain.QARecord `json:"history"`
}

func (s *Server) history(c echo.Context) error {
	id := c.Param("id")
	session, ok := s.sessions.Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session "+id)
	}
	h := session.History()
	if h == nil {
		h = []domain.QARecord{}
	}
	return c.JSON(http.StatusOK, historyResponse{SessionID: id, History: h})
}

// selectedCountries reads repeated or comma-separated country parameters,
// defaulting to every country.
func selectedCountries(c echo.Context) []string {
	var out []string
	for _, raw := range c.QueryParams()["country"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	if len(out) == 0 {
		return []string{tariff.AllCountries}
	}
	return out
}

// parseTop accepts a positive integer, "all" or nothing. Zero means every row.
func parseTop(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("top must be a positive integer or \"all\", got %q", raw)
	}
	return n, nil
}

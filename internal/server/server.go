package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tastymetrics/internal/cache"
	"tastymetrics/internal/catalog"
	"tastymetrics/internal/report"
	apperrors "tastymetrics/pkg/errors"
)

// ReportService is the query surface the HTTP API exposes. *report.Runner
// satisfies it.
type ReportService interface {
	Definitions() []catalog.Definition
	Run(ctx context.Context, name string, p catalog.Params) (*report.Result, error)
}

// Server serves the query catalog over HTTP. It is a thin read-only facade:
// all filtering semantics live in the catalog binder.
type Server struct {
	echo  *echo.Echo
	svc   ReportService
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// New builds the server. store may be nil to disable result caching.
func New(svc ReportService, store cache.Store, ttl time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, svc: svc, store: store, ttl: ttl, log: log}

	e.Use(s.requestLogger)
	e.GET("/healthz", s.health)
	e.GET("/api/v1/queries", s.listQueries)
	e.GET("/api/v1/queries/:name", s.runQuery)

	return s
}

// Echo exposes the underlying echo instance for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.log.Info("serving query catalog", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Request().Header.Get(echo.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, reqID)

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.log.Info("request",
			zap.String("request_id", reqID),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type queryInfo struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
	Builtin     bool     `json:"builtin"`
}

func (s *Server) listQueries(c echo.Context) error {
	defs := s.svc.Definitions()
	infos := make([]queryInfo, 0, len(defs))
	for _, d := range defs {
		infos = append(infos, queryInfo{
			Name:        d.Name,
			Title:       d.Title,
			Description: d.Description,
			Columns:     d.Columns,
			Builtin:     d.Builtin(),
		})
	}
	return c.JSON(http.StatusOK, infos)
}

func (s *Server) runQuery(c echo.Context) error {
	name := c.Param("name")

	params, err := parseParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	key := cache.Key(name, params)
	if s.store != nil {
		if blob, ok := s.store.Get(ctx, key); ok {
			c.Response().Header().Set("X-Cache", "HIT")
			return c.JSONBlob(http.StatusOK, blob)
		}
	}

	result, err := s.svc.Run(ctx, name, params)
	if err != nil {
		return mapError(err)
	}

	if s.store != nil {
		if blob, merr := json.Marshal(result); merr == nil {
			s.store.Set(ctx, key, blob, s.ttl)
		}
	}

	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSON(http.StatusOK, result)
}

// parseParams reads the filter contract from query parameters: start/end as
// an inclusive YYYY-MM-DD range (both or neither), country repeated per
// value with "all" as the no-filter sentinel, and a positive integer limit.
func parseParams(c echo.Context) (catalog.Params, error) {
	var p catalog.Params

	start := c.QueryParam("start")
	end := c.QueryParam("end")
	switch {
	case start != "" && end != "":
		dr, err := catalog.ParseDateRange(start, end)
		if err != nil {
			return p, err
		}
		p.Dates = &dr
	case start != "" || end != "":
		return p, apperrors.ValidationError("date_range", start+".."+end,
			"start and end must be provided together")
	}

	countries, hasCountry := c.QueryParams()["country"]
	if !hasCountry || containsAll(countries) {
		p.Country = catalog.AllCountries()
	} else {
		p.Country = catalog.Countries(nonEmpty(countries)...)
	}

	if limit := c.QueryParam("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return p, apperrors.ValidationError("limit", limit, "must be a positive integer")
		}
		p.Limit = n
	}

	return p, nil
}

func containsAll(values []string) bool {
	for _, v := range values {
		if strings.EqualFold(v, "all") {
			return true
		}
	}
	return false
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func mapError(err error) error {
	switch apperrors.GetErrorCode(err) {
	case apperrors.ErrCodeQueryNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "unknown query")
	case apperrors.ErrCodeObjectNotFound:
		return echo.NewHTTPError(http.StatusBadGateway, "source view missing in warehouse")
	case apperrors.ErrCodeInvalidParams, apperrors.ErrCodeValidationFailed:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "query execution failed")
	}
}

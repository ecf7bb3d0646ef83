package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/Macca12138/dealdesk/internal/ingest"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server exposes the ingestion pipeline over HTTP and keeps a session-scoped
// cache of the latest Result per spreadsheet+range.
type Server struct {
	Echo     *echo.Echo
	Pipeline *ingest.Pipeline
	Registry *ingest.Registry
	APIKey   string // default credential, overridable per request

	mu      sync.Mutex
	seq     uint64
	loads   map[string]*loadState
	results map[string]*ingest.Result
}

// loadState tracks the in-flight ingestion for one cache key so a newer
// request can cancel it and its late result gets discarded.
type loadState struct {
	seq    uint64
	cancel context.CancelFunc
}

func NewServer(pipeline *ingest.Pipeline) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	if pipeline == nil {
		pipeline = ingest.NewPipeline(nil)
	}

	registry, err := ingest.LoadRegistry("internal/ingest/config/sources.yaml")
	if err != nil {
		log.Printf("[API] Source registry unavailable: %v", err)
		registry = &ingest.Registry{}
	}

	s := &Server{
		Echo:     e,
		Pipeline: pipeline,
		Registry: registry,
		APIKey:   os.Getenv("SHEETS_API_KEY"),
		loads:    make(map[string]*loadState),
		results:  make(map[string]*ingest.Result),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/deals", s.handleGetDeals)
	api.GET("/deals/stats", s.handleGetDealStats)
	api.POST("/validate", s.handleValidate)
	api.GET("/sheets", s.handleListSheets)
	api.GET("/sources", s.handleGetSources)
	api.POST("/sources/:id/ingest", s.handleIngestSource)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDeals(c echo.Context) error {
	source := c.QueryParam("source")
	if source == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "source query parameter is required"})
	}
	rangeSel := c.QueryParam("range")
	if rangeSel == "" {
		rangeSel = ingest.DefaultRange
	}
	refresh := c.QueryParam("refresh") == "true"

	spreadsheetID, ok := ingest.ExtractSpreadsheetID(source)
	if !ok {
		return errorJSON(c, ingest.ErrInvalidSpreadsheetID)
	}
	key := cacheKey(spreadsheetID, rangeSel)

	if !refresh {
		if res := s.cached(key); res != nil {
			return c.JSON(http.StatusOK, res)
		}
	}

	res, err := s.ingestAndPublish(c.Request().Context(), key, source, s.credential(c), rangeSel)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetDealStats(c echo.Context) error {
	source := c.QueryParam("source")
	if source == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "source query parameter is required"})
	}
	rangeSel := c.QueryParam("range")
	if rangeSel == "" {
		rangeSel = ingest.DefaultRange
	}

	spreadsheetID, ok := ingest.ExtractSpreadsheetID(source)
	if !ok {
		return errorJSON(c, ingest.ErrInvalidSpreadsheetID)
	}

	res := s.cached(cacheKey(spreadsheetID, rangeSel))
	if res == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no ingested result for this source"})
	}

	var totalValue float64
	byStatus := make(map[string]int)
	for _, d := range res.Deals {
		totalValue += d.DealValue
		byStatus[d.Status]++
	}

	return c.JSON(http.StatusOK, map[string]any{
		"count":       len(res.Deals),
		"total_value": totalValue,
		"by_status":   byStatus,
		"fetched_at":  res.FetchedAt,
		"stats":       res.Stats,
	})
}

type validateRequest struct {
	Source string `json:"source"`
	Key    string `json:"key"`
}

func (s *Server) handleValidate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	key := req.Key
	if key == "" {
		key = s.APIKey
	}

	spreadsheetID, ok := ingest.ExtractSpreadsheetID(req.Source)
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"valid": false, "reason": ingest.ErrInvalidSpreadsheetID.Error()})
	}

	if err := s.Pipeline.Sheets.ValidateConnection(c.Request().Context(), spreadsheetID, key); err != nil {
		return c.JSON(http.StatusOK, map[string]any{"valid": false, "reason": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"valid": true})
}

func (s *Server) handleListSheets(c echo.Context) error {
	source := c.QueryParam("source")
	if source == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "source query parameter is required"})
	}

	spreadsheetID, ok := ingest.ExtractSpreadsheetID(source)
	if !ok {
		return errorJSON(c, ingest.ErrInvalidSpreadsheetID)
	}

	names := s.Pipeline.Sheets.ListSheetNames(c.Request().Context(), spreadsheetID, s.credential(c))
	return c.JSON(http.StatusOK, map[string]any{"sheets": names})
}

func (s *Server) handleGetSources(c echo.Context) error {
	type sourceView struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Range       string `json:"range,omitempty"`
		AutoLoad    bool   `json:"auto_load"`
		Description string `json:"description,omitempty"`
	}

	out := make([]sourceView, 0, len(s.Registry.Sources))
	for _, src := range s.Registry.Sources {
		out = append(out, sourceView{
			ID:          src.ID,
			Name:        src.Name,
			Range:       src.Range,
			AutoLoad:    src.AutoLoad,
			Description: src.Description,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) handleIngestSource(c echo.Context) error {
	src := s.Registry.Find(c.Param("id"))
	if src == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "source not found"})
	}

	apiKey := src.APIKey
	if apiKey == "" {
		apiKey = s.APIKey
	}
	rangeSel := src.Range
	if rangeSel == "" {
		rangeSel = ingest.DefaultRange
	}

	spreadsheetID, ok := ingest.ExtractSpreadsheetID(src.Spreadsheet)
	if !ok {
		return errorJSON(c, ingest.ErrInvalidSpreadsheetID)
	}

	res, err := s.ingestAndPublish(c.Request().Context(), cacheKey(spreadsheetID, rangeSel), src.Spreadsheet, apiKey, rangeSel)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// WarmCache ingests every auto-load source once. Meant to run in the
// background at startup; failures are logged, not fatal.
func (s *Server) WarmCache(ctx context.Context) {
	for _, src := range s.Registry.Sources {
		if !src.AutoLoad || strings.TrimSpace(src.Spreadsheet) == "" {
			continue
		}

		apiKey := src.APIKey
		if apiKey == "" {
			apiKey = s.APIKey
		}
		rangeSel := src.Range
		if rangeSel == "" {
			rangeSel = ingest.DefaultRange
		}

		spreadsheetID, ok := ingest.ExtractSpreadsheetID(src.Spreadsheet)
		if !ok {
			log.Printf("[API] Auto-load skipped for %s: unresolvable spreadsheet reference", src.ID)
			continue
		}

		if _, err := s.ingestAndPublish(ctx, cacheKey(spreadsheetID, rangeSel), src.Spreadsheet, apiKey, rangeSel); err != nil {
			log.Printf("[API] Auto-load failed for %s: %v", src.ID, err)
		} else {
			log.Printf("[API] Auto-load complete for %s", src.ID)
		}
	}
}

// ingestAndPublish runs the pipeline, superseding any in-flight run for the
// same key. A superseded run's result is dropped rather than allowed to
// overwrite the newer one.
func (s *Server) ingestAndPublish(parent context.Context, key, source, apiKey, rangeSel string) (*ingest.Result, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s.mu.Lock()
	if prev, ok := s.loads[key]; ok && prev.cancel != nil {
		prev.cancel()
	}
	s.seq++
	seq := s.seq
	s.loads[key] = &loadState{seq: seq, cancel: cancel}
	s.mu.Unlock()

	res, err := s.Pipeline.LoadDeals(ctx, source, apiKey, rangeSel)

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.loads[key]
	stale := !ok || current.seq != seq
	if !stale {
		delete(s.loads, key)
	}

	if err != nil {
		return nil, err
	}
	if stale {
		log.Printf("[API] Discarding stale result for %s (run %s)", key, res.Stats.RunID)
		return nil, echo.NewHTTPError(http.StatusConflict, "superseded by a newer request")
	}

	s.results[key] = res
	return res, nil
}

func (s *Server) cached(key string) *ingest.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[key]
}

// credential prefers an explicit per-request key over the server default.
func (s *Server) credential(c echo.Context) string {
	if key := c.QueryParam("key"); key != "" {
		return key
	}
	return s.APIKey
}

func cacheKey(spreadsheetID, rangeSel string) string {
	return spreadsheetID + "|" + rangeSel
}

func errorJSON(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return c.JSON(he.Code, map[string]any{"error": he.Message})
	}
	return c.JSON(httpStatusFor(err), map[string]string{"error": err.Error()})
}

// httpStatusFor maps the error taxonomy onto HTTP statuses.
func httpStatusFor(err error) int {
	var te *ingest.TransportError
	switch {
	case errors.Is(err, ingest.ErrInvalidSpreadsheetID), errors.Is(err, ingest.ErrMissingAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ingest.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrEmptySheet), errors.Is(err, ingest.ErrHeadersOnly):
		return http.StatusUnprocessableEntity
	case errors.As(err, &te):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

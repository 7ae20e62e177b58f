// Package server exposes grid path search over HTTP: one-shot and batch
// queries, a step-by-step visualisation session (polled or streamed over a
// websocket), and Prometheus metrics.
package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/internal/config"
)

const tracerName = "github.com/pdrpinto/gridastar/internal/server"

const maxBodyBytes = 8 << 20

//go:embed static/index.html
var indexHTML []byte

var errNoSession = errors.New("no session: call /init first")

// Server owns the visualisation session that used to live in package
// globals. Handlers are safe for concurrent use.
type Server struct {
	cfg      config.Config
	logger   *slog.Logger
	metrics  *metrics
	tracer   trace.Tracer
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu      sync.Mutex
	rng     *rand.Rand
	session *session
}

type session struct {
	grid    *gridastar.Grid
	start   gridastar.Cell
	goal    gridastar.Cell
	walls   [][2]int
	stepper *gridastar.Stepper[gridastar.Cell]
}

// New wires the routes. Metrics are registered on registry and served from
// /metrics.
func New(cfg config.Config, logger *slog.Logger, registry *prometheus.Registry) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(registry),
		tracer:  otel.Tracer(tracerName),
		mux:     http.NewServeMux(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /init", s.handleInit)
	s.mux.HandleFunc("GET /next", s.handleNext)
	s.mux.HandleFunc("GET /ws", s.handleStream)
	s.mux.HandleFunc("POST /v1/path", s.handlePath)
	s.mux.HandleFunc("POST /v1/paths", s.handlePaths)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

// --- Visualisation session ---

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size, clusters, steps := 40, 8, 200
	density := 0.25
	if v, err := strconv.Atoi(q.Get("size")); err == nil && v > 4 && v <= s.cfg.MaxGridSize {
		size = v
	}
	size = min(size, s.cfg.MaxGridSize)
	if v, err := strconv.Atoi(q.Get("clusters")); err == nil && v >= 0 {
		clusters = v
	}
	if v, err := strconv.Atoi(q.Get("steps")); err == nil && v > 0 {
		steps = v
	}
	if v, err := strconv.ParseFloat(q.Get("density"), 64); err == nil && v >= 0 && v <= 1 {
		density = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rng := s.rng
	if seed, err := strconv.ParseInt(q.Get("seed"), 10, 64); err == nil {
		rng = rand.New(rand.NewSource(seed))
	}
	start := gridastar.Cell{Row: rng.Intn(size), Col: rng.Intn(size)}
	goal := start
	for size > 1 && goal == start {
		goal = gridastar.Cell{Row: rng.Intn(size), Col: rng.Intn(size)}
	}

	blocked := randomWalls(rng, size, clusters, steps, density, start, goal)
	grid, err := gridastar.NewGridFromBlocked(blocked)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var walls [][2]int
	for row := range blocked {
		for col, b := range blocked[row] {
			if b {
				walls = append(walls, [2]int{row, col})
			}
		}
	}
	s.session = &session{
		grid:    grid,
		start:   start,
		goal:    goal,
		walls:   walls,
		stepper: gridastar.NewStepper[gridastar.Cell](grid, start, goal, gridastar.Octile),
	}
	s.logger.Info("session started", "size", size, "start", start, "goal", goal, "walls", len(walls))

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "size": size, "start": point(start), "goal": point(goal),
	})
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.advance()
	switch {
	case errors.Is(err, errNoSession):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

// handleStream pushes one snapshot per interval until the search finishes
// or the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	interval := s.cfg.StepInterval
	if d, err := time.ParseDuration(r.URL.Query().Get("interval")); err == nil && d > 0 {
		interval = d
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		snap, err := s.advance()
		if err != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
		if err := conn.WriteJSON(snap); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket write failed", "err", err)
			}
			return
		}
		if snap.Done {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}

type snapshot struct {
	Step     int      `json:"step"`
	Size     int      `json:"size"`
	Walls    [][2]int `json:"walls"`
	Open     [][2]int `json:"open,omitempty"`
	Expanded [][2]int `json:"expanded,omitempty"`
	Current  [2]int   `json:"current"`
	Start    [2]int   `json:"start"`
	Goal     [2]int   `json:"goal"`
	Done     bool     `json:"done"`
	Found    bool     `json:"found"`
	Path     [][2]int `json:"path,omitempty"`
	Cost     int      `json:"cost,omitempty"`
}

func (s *Server) advance() (snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return snapshot{}, errNoSession
	}
	sess := s.session
	if !sess.stepper.Done() {
		s.metrics.steps.Inc()
	}
	st, err := sess.stepper.Step()
	if err != nil {
		return snapshot{}, err
	}

	snap := snapshot{
		Step:     st.StepIndex,
		Size:     sess.grid.Size(),
		Walls:    sess.walls,
		Open:     cellList(st.Open),
		Expanded: cellList(st.Expanded),
		Current:  point(st.Current),
		Start:    point(sess.start),
		Goal:     point(sess.goal),
		Done:     st.Done,
		Found:    st.Found,
		Cost:     st.Cost,
	}
	for _, c := range st.Path {
		snap.Path = append(snap.Path, point(c))
	}
	return snap, nil
}

func point(c gridastar.Cell) [2]int { return [2]int{c.Row, c.Col} }

func cellList(m map[gridastar.Cell]bool) [][2]int {
	res := make([][2]int, 0, len(m))
	for c, ok := range m {
		if ok {
			res = append(res, point(c))
		}
	}
	slices.SortFunc(res, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return res
}

// --- Path queries ---

type pathRequest struct {
	Grid  [][]int        `json:"grid"`
	Start gridastar.Cell `json:"start"`
	Goal  gridastar.Cell `json:"goal"`
}

type pathsRequest struct {
	Grid    [][]int           `json:"grid"`
	Queries []gridastar.Query `json:"queries"`
}

type pathsResponse struct {
	Routes []gridastar.Route `json:"routes"`
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "gridastar.Solve")
	defer span.End()

	var req pathRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	grid, err := s.buildGrid(req.Grid)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(
		attribute.Int("grid.size", grid.Size()),
		attribute.String("path.start", req.Start.String()),
		attribute.String("path.goal", req.Goal.String()),
	)

	began := time.Now()
	route, err := gridastar.Solve(ctx, grid, req.Start, req.Goal, gridastar.WithMaxExpansions(s.cfg.MaxExpansions))
	s.metrics.duration.Observe(time.Since(began).Seconds())
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.record(span, route)
	s.logger.Debug("path query", "start", route.Start, "goal", route.Goal,
		"found", route.Found, "cost", route.Cost, "expanded", route.Expanded, "elapsed", time.Since(began))
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "gridastar.FindPaths")
	defer span.End()

	var req pathsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	grid, err := s.buildGrid(req.Grid)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(
		attribute.Int("grid.size", grid.Size()),
		attribute.Int("batch.queries", len(req.Queries)),
	)

	began := time.Now()
	routes, err := gridastar.FindPaths(ctx, grid, req.Queries,
		gridastar.WithWorkers(s.cfg.Workers),
		gridastar.WithMaxExpansions(s.cfg.MaxExpansions),
	)
	s.metrics.duration.Observe(time.Since(began).Seconds())
	if err != nil {
		s.fail(w, span, err)
		return
	}
	for _, route := range routes {
		s.record(span, route)
	}
	s.logger.Debug("batch path query", "queries", len(routes), "elapsed", time.Since(began))
	writeJSON(w, http.StatusOK, pathsResponse{Routes: routes})
}

func (s *Server) buildGrid(rows [][]int) (*gridastar.Grid, error) {
	if len(rows) > s.cfg.MaxGridSize {
		return nil, fmt.Errorf("%w: grid size %d exceeds limit %d", gridastar.ErrInvalidInput, len(rows), s.cfg.MaxGridSize)
	}
	return gridastar.NewGrid(rows)
}

func (s *Server) record(span trace.Span, route gridastar.Route) {
	result := "unreachable"
	if route.Found {
		result = "found"
	}
	s.metrics.queries.WithLabelValues(result).Inc()
	s.metrics.expanded.Observe(float64(route.Expanded))
	span.AddEvent("route", trace.WithAttributes(
		attribute.Bool("path.found", route.Found),
		attribute.Int("path.cost", route.Cost),
		attribute.Int("path.expanded", route.Expanded),
	))
}

func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	status, result := http.StatusInternalServerError, "error"
	switch {
	case errors.Is(err, gridastar.ErrInvalidInput), errors.Is(err, errBadRequest):
		status, result = http.StatusBadRequest, "invalid"
	case errors.Is(err, gridastar.ErrExpansionLimit):
		status = http.StatusUnprocessableEntity
	}
	s.metrics.queries.WithLabelValues(result).Inc()
	if status == http.StatusInternalServerError {
		s.logger.Error("path query failed", "err", err)
	} else {
		s.logger.Debug("path query rejected", "err", err, "status", status)
	}
	writeError(w, status, err)
}

var errBadRequest = errors.New("bad request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Package api serves the simulation over HTTP. GET endpoints read engine
// snapshots; POST endpoints forward orders to the engine goroutine; the
// stream endpoint pushes status over a websocket after every tick.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/cors"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/combat"
	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/engine"
	"github.com/talgya/hexfront/internal/nav"
	"github.com/talgya/hexfront/internal/persistence"
	"github.com/talgya/hexfront/internal/world"
)

const orderTimeout = 5 * time.Second

// Server serves the world state over HTTP.
type Server struct {
	Eng         *engine.Engine
	DB          *persistence.DB // optional report archive
	Port        int
	CORSOrigins []string
	RateLimit   RateLimitConfig

	hub     *Hub
	limiter *RateLimiter
	srv     *http.Server
}

// Handler builds the routed, CORS-wrapped and rate-limited handler.
func (s *Server) Handler() http.Handler {
	if s.hub == nil {
		s.hub = NewHub()
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(s.RateLimit)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/settlements", s.handleSettlements)
	mux.HandleFunc("GET /api/v1/movements", s.handleMovements)
	mux.HandleFunc("GET /api/v1/reports", s.handleReports)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /api/v1/visibility", s.handleVisibility)
	mux.HandleFunc("GET /api/v1/route", s.handleRoute)
	mux.HandleFunc("POST /api/v1/attack", s.handleAttack)
	mux.HandleFunc("POST /api/v1/upgrade", s.handleUpgrade)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	c := cors.New(cors.Options{
		AllowedOrigins: s.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.limiter.Middleware(mux))
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "cors_origins", s.CORSOrigins, "rate_limit", s.RateLimit.Enabled)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go s.cleanupLoop()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for now := range ticker.C {
		s.limiter.Cleanup(now)
	}
}

// Publish pushes the current status to stream clients. Wire it to the
// engine's OnTick callback.
func (s *Server) Publish() {
	if s.hub == nil || s.hub.Len() == 0 {
		return
	}
	msg, err := s.statusMessage()
	if err != nil {
		slog.Debug("status encode failed", "error", err)
		return
	}
	s.hub.Broadcast(msg)
}

// ── responses ─────────────────────────────────────────────────────────

type statusResponse struct {
	Tick            uint64            `json:"tick"`
	Running         bool              `json:"running"`
	LastUpdate      time.Time         `json:"last_update"`
	Resources       economy.Amounts   `json:"resources"`
	ResourcesText   map[string]string `json:"resources_text"`
	Capacity        float64           `json:"capacity"`
	ProductionHour  economy.Amounts   `json:"production_per_hour"`
	Movements       int               `json:"movements"`
	Reports         int               `json:"reports"`
	NextArrival     *time.Time        `json:"next_arrival,omitempty"`
	NextArrivalText string            `json:"next_arrival_text,omitempty"`
}

func (s *Server) status() statusResponse {
	snap := s.Eng.Snapshot()
	st := statusResponse{
		Tick:           s.Eng.CurrentTick(),
		Running:        s.Eng.Running(),
		LastUpdate:     snap.LastUpdate,
		Resources:      snap.Resources.Floor(),
		ResourcesText:  make(map[string]string, economy.NumResources),
		Capacity:       snap.WarehouseCapacity,
		ProductionHour: engine.PoolProduction(s.Eng.Deps.Balance, snap.Settlements),
		Movements:      len(snap.Movements),
		Reports:        len(snap.Reports),
	}
	for _, r := range economy.ResourceOrder {
		st.ResourcesText[r.String()] = humanize.Comma(int64(snap.Resources[r]))
	}
	for _, m := range snap.Movements {
		if st.NextArrival == nil || m.Arrival.Before(*st.NextArrival) {
			at := m.Arrival
			st.NextArrival = &at
		}
	}
	if st.NextArrival != nil {
		st.NextArrivalText = humanize.RelTime(*st.NextArrival, snap.LastUpdate, "ago", "from now")
	}
	return st
}

func (s *Server) statusMessage() ([]byte, error) {
	return json.Marshal(map[string]any{"type": "status", "data": s.status()})
}

type movementView struct {
	army.Movement
	RemainingSeconds float64 `json:"remaining_seconds"`
}

type routeResponse struct {
	Reachable  bool             `json:"reachable"`
	Path       []world.HexCoord `json:"path"`
	Segments   []nav.Segment    `json:"segments"`
	TotalCost  *float64         `json:"total_cost"`  // null when unreachable
	ETASeconds *float64         `json:"eta_seconds"` // null when unreachable
	Distance   int              `json:"distance"`
	TargetID   uint64           `json:"target_id,omitempty"`
	TargetName string           `json:"target_name,omitempty"`
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ── handlers ──────────────────────────────────────────────────────────

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"player":    snap.Settlements,
		"opponents": snap.Opponents,
		"economies": snap.OpponentEconomies,
	})
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Snapshot()
	now := s.Eng.Clock()
	out := make([]movementView, 0, len(snap.Movements))
	for _, m := range snap.Movements {
		out = append(out, movementView{
			Movement:         m,
			RemainingSeconds: max(0, m.Arrival.Sub(now).Seconds()),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleReports serves the in-memory log, or the archive with ?archive=1.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	limit := combat.LogCap
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "validation", "limit must be 1-500")
			return
		}
		limit = n
	}

	if r.URL.Query().Get("archive") == "1" {
		if s.DB == nil {
			writeError(w, http.StatusServiceUnavailable, "unavailable", "no archive configured")
			return
		}
		reports, err := s.DB.RecentReports(limit)
		if err != nil {
			slog.Error("archive read failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal", "archive read failed")
			return
		}
		writeJSON(w, http.StatusOK, reports)
		return
	}

	reports := s.Eng.Snapshot().Reports
	if len(reports) > limit {
		reports = reports[:limit]
	}
	if reports == nil {
		reports = combat.Log{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	g := s.Eng.Snapshot().Grid
	if g == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "no grid")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"width":  g.Width,
		"height": g.Height,
		"seed":   g.Seed,
		"tiles":  g.Tiles(),
	})
}

// handleVisibility returns visible tiles. scan and entrench take
// semicolon-separated q,r pairs; scans are treated as started now.
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Snapshot()
	if snap.Grid == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "no grid")
		return
	}
	q := r.URL.Query()

	scanCenters, err := parseCoords(q.Get("scan"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	entrench, err := parseCoords(q.Get("entrench"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	now := s.Eng.Clock()
	scans := make([]nav.Scan, len(scanCenters))
	for i, c := range scanCenters {
		scans[i] = nav.Scan{Center: c, ExpiresAt: now.Add(nav.ScanDuration)}
	}

	set := snap.Visible(entrench, scans, now)
	tiles := make([]world.HexCoord, 0, len(set))
	for _, t := range snap.Grid.Tiles() {
		if set.Has(t.Coord) {
			tiles = append(tiles, t.Coord)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"visible": tiles, "radius": nav.SightRadius})
}

// handleRoute plans a route. start is optional (defaults to home), wp and
// entrench take semicolon-separated q,r pairs.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Snapshot()
	if snap.Grid == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "no grid")
		return
	}
	q := r.URL.Query()

	var start *world.HexCoord
	if v := q.Get("start"); v != "" {
		c, err := parseCoord(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", err.Error())
			return
		}
		if !snap.Grid.InBounds(c) {
			writeError(w, http.StatusBadRequest, "validation", "start out of bounds")
			return
		}
		start = &c
	}
	wps, err := parseCoords(q.Get("wp"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	entrench, err := parseCoords(q.Get("entrench"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	plan := snap.PlanRoute(start, wps, entrench)
	resp := routeResponse{
		Reachable:  plan.Route.Reachable(),
		Path:       plan.Route.Path,
		Segments:   plan.Route.Segments,
		TotalCost:  finite(plan.Metrics.TotalCost),
		ETASeconds: finite(plan.Metrics.ETASeconds),
		Distance:   plan.Metrics.Distance,
		TargetID:   plan.TargetID,
		TargetName: plan.TargetName,
	}
	if resp.Path == nil {
		resp.Path = []world.HexCoord{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type attackRequest struct {
	OriginID uint64                   `json:"origin_id"`
	TargetID uint64                   `json:"target_id"`
	Units    map[balance.UnitType]int `json:"units"`
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	var req attackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return
	}
	if req.OriginID == 0 {
		req.OriginID = engine.HomeID
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()
	m, err := s.Eng.Attack(ctx, req.OriginID, req.TargetID, req.Units)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type upgradeRequest struct {
	SettlementID uint64 `json:"settlement_id"`
	BuildingID   uint64 `json:"building_id"`
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var req upgradeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return
	}
	if req.SettlementID == 0 {
		req.SettlementID = engine.HomeID
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()
	if err := s.Eng.Upgrade(ctx, req.SettlementID, req.BuildingID); err != nil {
		writeOrderError(w, err)
		return
	}

	snap := s.Eng.Snapshot()
	i := snap.Settlement(req.SettlementID)
	writeJSON(w, http.StatusOK, map[string]any{
		"settlement": snap.Settlements[i],
		"resources":  snap.Resources.Floor(),
		"capacity":   snap.WarehouseCapacity,
	})
}

// ── helpers ───────────────────────────────────────────────────────────

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, errorResponse{Error: kind, Message: msg, Code: code})
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch engine.KindOf(err) {
	case engine.KindInvalidReference:
		writeError(w, http.StatusNotFound, string(engine.KindInvalidReference), err.Error())
	case engine.KindInvariantGuard:
		writeError(w, http.StatusUnprocessableEntity, string(engine.KindInvariantGuard), err.Error())
	default:
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", "engine busy")
			return
		}
		slog.Error("order failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "order failed")
	}
}

// parseCoord parses "q,r".
func parseCoord(s string) (world.HexCoord, error) {
	qs, rs, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return world.HexCoord{}, fmt.Errorf("bad coordinate %q, want q,r", s)
	}
	q, err1 := strconv.Atoi(strings.TrimSpace(qs))
	r, err2 := strconv.Atoi(strings.TrimSpace(rs))
	if err1 != nil || err2 != nil {
		return world.HexCoord{}, fmt.Errorf("bad coordinate %q, want q,r", s)
	}
	return world.HexCoord{Q: q, R: r}, nil
}

// parseCoords parses "q,r;q,r;...". Empty input yields no coordinates.
func parseCoords(s string) ([]world.HexCoord, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []world.HexCoord
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := parseCoord(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/metrics"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/planner"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/store"
)

// OrdersHandler handles POST/GET /v1/orders
func (s *Server) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Orders []model.Order `json:"orders"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if len(req.Orders) == 0 {
			writeProblem(w, http.StatusBadRequest, "Missing orders", "orders must be non-empty", r.URL.Path)
			return
		}
		for i, o := range req.Orders {
			if err := validateOrder(o); err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid order", fmt.Sprintf("orders[%d]: %v", i, err), r.URL.Path)
				return
			}
		}
		created, skipped, err := s.Store.CreateOrders(r.Context(), req.Orders)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create orders failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"created": created, "skipped": skipped})
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListOrders(r.Context(), cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List orders failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// OrderByIDHandler handles GET/DELETE /v1/orders/{id}
func (s *Server) OrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodGet:
		o, err := s.Store.GetOrder(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "order "+id, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get order failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, o)
	case http.MethodDelete:
		err := s.Store.DeleteOrder(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "order "+id, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Delete order failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// TrucksHandler handles POST/GET /v1/trucks
func (s *Server) TrucksHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Trucks []model.Truck `json:"trucks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if len(req.Trucks) == 0 {
			writeProblem(w, http.StatusBadRequest, "Missing trucks", "trucks must be non-empty", r.URL.Path)
			return
		}
		for i, t := range req.Trucks {
			if err := validateTruck(t); err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid truck", fmt.Sprintf("trucks[%d]: %v", i, err), r.URL.Path)
				return
			}
		}
		created, err := s.Store.CreateTrucks(r.Context(), req.Trucks)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create trucks failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"created": created})
	case http.MethodGet:
		items, err := s.Store.ListTrucks(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List trucks failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// TruckByIDHandler handles GET/DELETE /v1/trucks/{id}
func (s *Server) TruckByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/trucks/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodGet:
		t, err := s.Store.GetTruck(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "truck "+id, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get truck failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		err := s.Store.DeleteTruck(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "truck "+id, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Delete truck failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// MissionRequest is the body of POST /v1/missions. Orders and trucks may be
// inlined or loaded from the store when omitted.
type MissionRequest struct {
	Depot    model.GeoPoint       `json:"depot"`
	DepartAt time.Time            `json:"departAt"`
	Orders   []model.Order        `json:"orders,omitempty"`
	Trucks   []model.Truck        `json:"trucks,omitempty"`
	Config   *model.MissionConfig `json:"config,omitempty"`
}

// MissionsHandler handles POST /v1/missions (run a mission) and GET
// /v1/missions (list past results).
func (s *Server) MissionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.runMission(w, r)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListResults(r.Context(), cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List missions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) runMission(w http.ResponseWriter, r *http.Request) {
	var req MissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}

	if len(req.Orders) == 0 {
		all, _, err := s.Store.ListOrders(r.Context(), "", 500)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Load orders failed", err.Error(), r.URL.Path)
			return
		}
		req.Orders = all
	}
	if len(req.Trucks) == 0 {
		all, err := s.Store.ListTrucks(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Load trucks failed", err.Error(), r.URL.Path)
			return
		}
		req.Trucks = all
	}

	m := model.Mission{
		Depot:    req.Depot,
		DepartAt: req.DepartAt,
		Orders:   req.Orders,
		Trucks:   req.Trucks,
		Config:   mergeConfig(s.Defaults, req.Config),
	}
	if err := validateMission(m); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid mission", err.Error(), r.URL.Path)
		return
	}

	start := time.Now()
	res, err := s.Planner.Run(r.Context(), m)
	metrics.MissionDuration.Observe(time.Since(start).Seconds())

	var infeasible *planner.InfeasibleError
	switch {
	case errors.As(err, &infeasible):
		metrics.Missions.WithLabelValues("infeasible").Inc()
		_ = s.Store.SaveResult(r.Context(), res)
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	case err != nil:
		metrics.Missions.WithLabelValues("error").Inc()
		writeProblem(w, http.StatusInternalServerError, "Mission failed", err.Error(), r.URL.Path)
		return
	}

	metrics.Missions.WithLabelValues("planned").Inc()
	for _, rt := range res.Routes {
		metrics.Routes.WithLabelValues(m.Config.RouteStrategy, rt.Status).Inc()
		if rt.Status != model.RouteFailed {
			metrics.RouteCost.WithLabelValues(m.Config.RouteStrategy).Observe(rt.Metrics.SearchCost)
		}
	}
	if err := s.Store.SaveResult(r.Context(), res); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save result failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// MissionByIDHandler handles GET /v1/missions/{id} and delegates
// /v1/missions/{id}/events/stream to the websocket streamer.
func (s *Server) MissionByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/missions/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	if id, ok := strings.CutSuffix(rest, "/events/stream"); ok {
		s.streamMissionEvents(w, r, strings.TrimSuffix(id, "/"))
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := s.Store.GetResult(r.Context(), rest)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "mission "+rest, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get mission failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// FleetSizeHandler handles POST /v1/fleet/size: the smallest fleet of one
// truck profile that can carry the given orders.
func (s *Server) FleetSizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Orders  []model.Order `json:"orders,omitempty"`
		Profile model.Truck   `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.Profile.CapWeightKg <= 0 && req.Profile.CapVolumeM3 <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid profile", "profile needs a positive capacity", r.URL.Path)
		return
	}
	if len(req.Orders) == 0 {
		all, _, err := s.Store.ListOrders(r.Context(), "", 500)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Load orders failed", err.Error(), r.URL.Path)
			return
		}
		req.Orders = all
	}
	writeJSON(w, http.StatusOK, map[string]any{"trucks": planner.MinTrucks(req.Orders, req.Profile)})
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler handles GET /readyz
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Store.ListTrucks(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func mergeConfig(def model.MissionConfig, req *model.MissionConfig) model.MissionConfig {
	if req == nil {
		return def
	}
	out := *req
	if out.ClusterStrategy == "" {
		out.ClusterStrategy = def.ClusterStrategy
	}
	if out.RouteStrategy == "" {
		out.RouteStrategy = def.RouteStrategy
	}
	if out.TimeBudgetPerRoute <= 0 {
		out.TimeBudgetPerRoute = def.TimeBudgetPerRoute
	}
	if out.Weights == (model.CostWeights{}) {
		out.Weights = def.Weights
	}
	if out.UtilizationWarn <= 0 {
		out.UtilizationWarn = def.UtilizationWarn
	}
	if out.DispatchLatency <= 0 {
		out.DispatchLatency = def.DispatchLatency
	}
	if out.FuelPriceEUR <= 0 {
		out.FuelPriceEUR = def.FuelPriceEUR
	}
	if out.MaxParallelRoutes <= 0 {
		out.MaxParallelRoutes = def.MaxParallelRoutes
	}
	return out
}

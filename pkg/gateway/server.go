package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tripcanvas/tripcanvas/pkg/config"
	"github.com/tripcanvas/tripcanvas/pkg/host"
	"github.com/tripcanvas/tripcanvas/pkg/logger"
	"github.com/tripcanvas/tripcanvas/pkg/planner"
)

// Server exposes the planner over REST and MCP and hosts the widget assets.
type Server struct {
	cfg     *config.Config
	service *planner.Service
	hub     *hub
	mcp     *mcp.Server
	httpSrv *http.Server
}

func NewServer(cfg *config.Config, service *planner.Service) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		hub:     newHub(),
	}
	s.mcp = s.newMCPServer()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /v1/search_travel", s.handleSearchTravel)
	mux.HandleFunc("POST /v1/refine_results", s.handleRefineResults)
	mux.HandleFunc("POST /v1/start_booking", s.handleStartBooking)
	mux.HandleFunc("POST /v1/save_itinerary", s.handleSaveItinerary)
	mux.HandleFunc("GET /v1/get_policy_summary/{offer_id}", s.handlePolicySummary)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.Handle("GET /widget/", http.StripPrefix("/widget/",
		http.FileServer(http.Dir(cfg.Widget.AssetsDir))))
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil))
	// Legacy hosts still speak the SSE transport.
	mux.Handle("/sse", mcp.NewSSEHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil))

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the gateway's HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Serve blocks until the listener fails or Shutdown is called.
func (s *Server) Serve() error {
	logger.InfoCF("gateway", "Gateway listening", map[string]interface{}{
		"addr": s.httpSrv.Addr,
	})
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSearchTravel(w http.ResponseWriter, r *http.Request) {
	var req planner.TripRequest
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := s.service.SearchTravel(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefineResults(w http.ResponseWriter, r *http.Request) {
	var req planner.RefineRequest
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := s.service.RefineResults(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartBooking(w http.ResponseWriter, r *http.Request) {
	var req planner.StartBookingRequest
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := s.service.StartBooking(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveItinerary(w http.ResponseWriter, r *http.Request) {
	var req planner.SaveItineraryRequest
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := s.service.SaveItinerary(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePolicySummary(w http.ResponseWriter, r *http.Request) {
	offerID := r.PathValue("offer_id")
	resp, err := s.service.PolicySummary(r.Context(), offerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	page, err := host.Upgrade(w, r)
	if err != nil {
		logger.WarnCF("gateway", "Websocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.hub.add(page)

	go func() {
		for msg := range page.FollowUps() {
			logger.InfoCF("gateway", "Follow-up message from widget", map[string]interface{}{
				"prompt": msg.Prompt,
			})
		}
		s.hub.remove(page)
	}()
}

func readJSON(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.ErrorCF("gateway", "Failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

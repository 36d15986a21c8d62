package trader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paper-trading-bot-go/internal/risk"
	"paper-trading-bot-go/internal/session"

	"go.uber.org/zap"
)

// APIServer provides an HTTP interface for the trading engine: derived
// session/risk/target views plus start/stop/reset controls.
type APIServer struct {
	server *http.Server
	engine *Engine
	logger *zap.Logger
}

// NewAPIServer creates a new APIServer.
func NewAPIServer(engine *Engine, port int, logger *zap.Logger) *APIServer {
	mux := http.NewServeMux()
	s := &APIServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		engine: engine,
		logger: logger.Named("api-server"),
	}

	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/session", s.sessionHandler)
	mux.HandleFunc("/api/risk", s.riskHandler)
	mux.HandleFunc("/api/target", s.targetHandler)
	mux.HandleFunc("/api/alerts", s.alertsHandler)
	mux.HandleFunc("/api/positions", s.positionsHandler)
	mux.HandleFunc("/api/start", s.startHandler)
	mux.HandleFunc("/api/stop", s.stopHandler)
	mux.HandleFunc("/api/reset", s.resetHandler)

	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := struct {
		UUID      string `json:"uuid"`
		Name      string `json:"name"`
		Strategy  string `json:"strategy"`
		StartTime string `json:"start_time"`
		Uptime    string `json:"uptime"`
	}{
		UUID:      s.engine.UUID,
		Name:      s.engine.Name,
		Strategy:  s.engine.strategy.Name(),
		StartTime: s.engine.StartTime.Format(time.RFC3339),
		Uptime:    time.Since(s.engine.StartTime).String(),
	}
	s.writeJSON(w, status)
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *APIServer) sessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.engine.sctx.Tracker.Session()
	if !ok {
		http.Error(w, "No active session", http.StatusNotFound)
		return
	}
	s.writeJSON(w, sess)
}

func (s *APIServer) riskHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.engine.sctx.Tracker.Session()
	if !ok {
		http.Error(w, "No active session", http.StatusNotFound)
		return
	}
	s.writeJSON(w, risk.Assess(sess))
}

func (s *APIServer) targetHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.engine.sctx.Tracker.WeeklyTarget())
}

func (s *APIServer) alertsHandler(w http.ResponseWriter, r *http.Request) {
	alerts := s.engine.sctx.Tracker.Alerts()
	if alerts == nil {
		alerts = []session.Alert{}
	}
	s.writeJSON(w, alerts)
}

func (s *APIServer) positionsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.engine.sctx.Ledger.OpenPositions())
}

func (s *APIServer) startHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.engine.sctx.Tracker.StartTrading())
}

func (s *APIServer) stopHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := s.engine.sctx.Tracker.StopTrading()
	if !ok {
		http.Error(w, "No active session", http.StatusNotFound)
		return
	}
	s.writeJSON(w, sess)
}

func (s *APIServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.engine.sctx.Ledger.Reset())
}

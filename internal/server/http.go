// Package server exposes the query core over HTTP. The caller is
// assumed already trusted; there is no authentication layer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/aalejandroaraujo/winlog-mcp/internal/config"
	"github.com/aalejandroaraujo/winlog-mcp/internal/guard"
	"github.com/aalejandroaraujo/winlog-mcp/internal/model"
	"github.com/aalejandroaraujo/winlog-mcp/internal/query"
	"github.com/aalejandroaraujo/winlog-mcp/internal/source"
)

// SignalForwarder publishes scan results downstream. Optional.
type SignalForwarder interface {
	Forward(ctx context.Context, signals []model.IncidentSignal) error
}

type Server struct {
	orch      *query.Orchestrator
	src       source.LogSource
	limits    config.Limits
	forwarder SignalForwarder
	srv       *http.Server
}

func NewServer(orch *query.Orchestrator, src source.LogSource, limits config.Limits, forwarder SignalForwarder) *Server {
	return &Server{orch: orch, src: src, limits: limits, forwarder: forwarder}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// Handler builds the route mux. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/channels", s.handleChannels)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/scan", s.handleScan)
	return mux
}

// handleChannels lists the allowed channels with best-effort metadata.
// An inaccessible channel is reported as a disabled zero-record
// placeholder, never omitted.
func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	infos := make([]model.ChannelInfo, 0, len(s.src.Channels()))
	for _, ch := range s.src.Channels() {
		ctx, cancel := context.WithTimeout(r.Context(), s.limits.QueryTimeout)
		info, err := s.src.ChannelInfo(ctx, ch)
		cancel()
		if err != nil {
			log.Printf("[server] channel info %s: %v", ch, err)
			info = model.ChannelInfo{Name: ch, Enabled: false, RecordCount: 0}
		}
		infos = append(infos, info)
	}

	writeJSON(w, http.StatusOK, infos)
}

type queryRequest struct {
	Channel string `json:"channel"`
	Filter  string `json:"filter"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Limit   *int   `json:"limit"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	records, err := s.orch.Query(r.Context(), req.Channel, req.Filter, req.Limit, req.Start, req.End)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channel": req.Channel,
		"count":   len(records),
		"records": records,
	})
}

type scanRequest struct {
	Channels  []string `json:"channels"`
	HoursBack int      `json:"hours_back"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if len(req.Channels) == 0 {
		req.Channels = guard.AllowedChannels()
	}
	if req.HoursBack == 0 {
		req.HoursBack = 24
	}

	signals, err := s.orch.ScanForIncidents(r.Context(), req.Channels, req.HoursBack, time.Now())
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	if s.forwarder != nil && len(signals) > 0 {
		if err := s.forwarder.Forward(r.Context(), signals); err != nil {
			log.Printf("[server] forward signals: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(signals),
		"signals": signals,
	})
}

// writeQueryError maps error classes to fixed codes with generic
// messages. Internal detail never reaches the response.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	var coded guard.Coded
	if errors.As(err, &coded) {
		writeError(w, http.StatusBadRequest, coded.Code(), genericMessage(coded.Code()))
		return
	}
	var srcErr *source.SourceError
	if errors.As(err, &srcErr) {
		log.Printf("[server] source failure: %v", errors.Unwrap(srcErr))
		writeError(w, http.StatusBadGateway, "source_error", "log source "+string(srcErr.Category))
		return
	}
	log.Printf("[server] unexpected error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func genericMessage(code string) string {
	switch code {
	case guard.CodeChannelRejected:
		return "channel is not allowed"
	case guard.CodeFilterRejected:
		return "filter contains disallowed constructs"
	case guard.CodeFilterTooComplex:
		return "filter exceeds complexity limits"
	case guard.CodeInvalidTimestamp:
		return "timestamp is not in a recognized format"
	default:
		return "request rejected"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// Package web provides the HTTP status and configuration interface for
// the grout-pump daemon, including the WebSocket live status push.
// It is a thin boundary: reads come from the status tracker, mutations
// go through the Controls interface and never touch control state
// directly.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/jakepeery/grout-pump/internal/settings"
	"github.com/jakepeery/grout-pump/internal/status"
)

// Controls is the mutation surface the control loop exposes to the web
// layer. Implementations must not block: changes are queued and take
// effect on the next control tick.
type Controls interface {
	// ApplySettings updates the cycle timeout configuration. Returns
	// settings.ErrTimeoutOutOfRange for an invalid timeout; the core is
	// left untouched in that case.
	ApplySettings(cycleTimeoutMs int64, timeoutEnabled bool) error

	// SetWifi stores the credential pair. Opaque to the core.
	SetWifi(ssid, password string) error

	// Halt forces both outputs low. Pre-update hook: must be called
	// before any firmware/filesystem transfer begins.
	Halt() error
}

// Server serves the status page, JSON endpoint, settings handlers, and
// the WebSocket.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	controls   Controls
	hub        *Hub
}

// New creates a Server reading from tracker and mutating through controls.
func New(addr string, tracker *status.Tracker, controls Controls) *Server {
	s := &Server{
		tracker:  tracker,
		controls: controls,
		hub:      NewHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/save", s.handleSave)
	mux.HandleFunc("/setwifi", s.handleSetWifi)
	mux.HandleFunc("/halt", s.handleHalt)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server and its WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.CloseAll()
	return s.httpServer.Shutdown(ctx)
}

// Broadcast pushes a status payload to all WebSocket clients. Called
// from the control loop; never blocks (slow clients are dropped).
func (s *Server) Broadcast(payload []byte) {
	s.hub.Broadcast(payload)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	timeoutMs := int64(settings.DefaultCycleTimeoutMs)
	if v := r.FormValue("timeout"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid timeout", http.StatusBadRequest)
			return
		}
		timeoutMs = parsed
	}
	// Checkbox semantics: present means enabled.
	enabled := r.FormValue("timeoutEnabled") != ""

	if err := s.controls.ApplySettings(timeoutMs, enabled); err != nil {
		if errors.Is(err, settings.ErrTimeoutOutOfRange) {
			http.Error(w, "invalid timeout", http.StatusBadRequest)
			return
		}
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<h1>Settings Saved!</h1><meta http-equiv='refresh' content='2;url=/'>"))
}

func (s *Server) handleSetWifi(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.controls.SetWifi(r.FormValue("ssid"), r.FormValue("password")); err != nil {
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<h1>WiFi Saved!</h1><meta http-equiv='refresh' content='2;url=/'>"))
}

// handleHalt forces both outputs low. Update tooling must POST here
// before starting any transfer.
func (s *Server) handleHalt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.controls.Halt(); err != nil {
		http.Error(w, "halt failed", http.StatusInternalServerError)
		return
	}
	w.Write([]byte("outputs halted"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	// New clients get the current snapshot immediately, then live pushes.
	snap := s.tracker.Snapshot()
	s.hub.ServeWS(w, r, status.FormatCompact(snap))
}

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jakepeery/grout-pump/internal/control"
	"github.com/jakepeery/grout-pump/internal/settings"
	"github.com/jakepeery/grout-pump/internal/status"
)

// fakeControls records mutations and mimics the validation contract.
type fakeControls struct {
	timeoutMs int64
	enabled   bool
	ssid      string
	password  string
	halted    bool

	err error
}

func (f *fakeControls) ApplySettings(cycleTimeoutMs int64, timeoutEnabled bool) error {
	if f.err != nil {
		return f.err
	}
	if err := settings.ValidateCycleTimeout(cycleTimeoutMs); err != nil {
		return err
	}
	f.timeoutMs = cycleTimeoutMs
	f.enabled = timeoutEnabled
	return nil
}

func (f *fakeControls) SetWifi(ssid, password string) error {
	if f.err != nil {
		return f.err
	}
	f.ssid = ssid
	f.password = password
	return nil
}

func (f *fakeControls) Halt() error {
	if f.err != nil {
		return f.err
	}
	f.halted = true
	return nil
}

func newTestServer() (*Server, *status.Tracker, *fakeControls) {
	tracker := status.NewTracker(time.Now(), status.Config{Broker: "tcp://b:1883"})
	fc := &fakeControls{}
	return New(":0", tracker, fc), tracker, fc
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestIndexPage(t *testing.T) {
	s, tracker, _ := newTestServer()
	tracker.Update(control.Snapshot{
		Mode:      control.ModeAutoLoop,
		Direction: control.DirectionOut,
	})

	rec := do(s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "AUTO_LOOP") {
		t.Error("page should show the current mode")
	}
	if !strings.Contains(body, "/ws") {
		t.Error("page should wire up the live WebSocket")
	}
}

func TestIndexUnknownPath(t *testing.T) {
	s, _, _ := newTestServer()
	if rec := do(s, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, tracker, _ := newTestServer()
	tracker.Update(control.Snapshot{
		Mode:      control.ModeManual,
		Direction: control.DirectionIn,
		Outputs:   control.Outputs{Gpo1: true},
	})

	rec := do(s, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var decoded struct {
		Mode           string `json:"mode"`
		CycleDirection string `json:"cycleDirection"`
		Gpo1           bool   `json:"gpo1"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Mode != "MANUAL" || decoded.CycleDirection != "IN" || !decoded.Gpo1 {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestSaveSettings(t *testing.T) {
	s, _, fc := newTestServer()

	rec := do(s, http.MethodPost, "/save", "timeout=45000&timeoutEnabled=on")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if fc.timeoutMs != 45000 || !fc.enabled {
		t.Errorf("controls: got %d/%v", fc.timeoutMs, fc.enabled)
	}
}

func TestSaveCheckboxAbsentDisables(t *testing.T) {
	s, _, fc := newTestServer()
	fc.enabled = true

	rec := do(s, http.MethodPost, "/save", "timeout=45000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if fc.enabled {
		t.Error("absent checkbox should disable the timeout")
	}
}

func TestSaveRejectsBadTimeout(t *testing.T) {
	s, _, fc := newTestServer()

	for _, body := range []string{"timeout=abc", "timeout=50", "timeout=999999"} {
		rec := do(s, http.MethodPost, "/save", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q: got %d, want 400", body, rec.Code)
		}
	}
	if fc.timeoutMs != 0 {
		t.Error("rejected save should not reach the controls")
	}
}

func TestSaveRequiresPost(t *testing.T) {
	s, _, _ := newTestServer()
	if rec := do(s, http.MethodGet, "/save", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}

func TestSetWifi(t *testing.T) {
	s, _, fc := newTestServer()

	rec := do(s, http.MethodPost, "/setwifi", "ssid=barn&password=hunter2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if fc.ssid != "barn" || fc.password != "hunter2" {
		t.Errorf("wifi: got %q/%q", fc.ssid, fc.password)
	}

	if rec := do(s, http.MethodGet, "/setwifi", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: got %d, want 405", rec.Code)
	}
}

func TestHalt(t *testing.T) {
	s, _, fc := newTestServer()

	rec := do(s, http.MethodPost, "/halt", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !fc.halted {
		t.Error("halt not forwarded to the controls")
	}

	if rec := do(s, http.MethodGet, "/halt", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: got %d, want 405", rec.Code)
	}
}

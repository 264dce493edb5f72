package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/good-yellow-bee/statushook/internal/catalog"
	"github.com/good-yellow-bee/statushook/internal/models"
	"github.com/good-yellow-bee/statushook/internal/replay"
	"github.com/good-yellow-bee/statushook/internal/sink"
)

const testToken = "test-webhook-token"

type mockResolver struct {
	byName map[string]string
	err    error
}

func (m *mockResolver) Resolve(_ context.Context, q catalog.Query) (string, error) {
	if q.ServiceID != "" {
		return q.ServiceID, nil
	}
	if m.err != nil {
		return "", m.err
	}
	return m.byName[q.ResourceName], nil
}

type mockRecorder struct {
	defaultMode sink.Mode
	archive     bool

	recorded []*models.Event
	modes    []sink.Mode
	archived [][]byte
	err      error
}

func (m *mockRecorder) ModeFor(useGCS *bool) sink.Mode {
	if useGCS == nil {
		return m.defaultMode
	}
	if *useGCS {
		return sink.ModeObjectStore
	}
	return sink.ModeRelational
}

func (m *mockRecorder) CanArchive() bool { return m.archive }

func (m *mockRecorder) ArchiveRaw(_ context.Context, raw []byte) (string, error) {
	m.archived = append(m.archived, raw)
	return "uptime-events/test.json", nil
}

func (m *mockRecorder) Record(_ context.Context, event *models.Event, mode sink.Mode) (*sink.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	if mode != sink.ModeObjectStore && event.ServiceID == "" {
		return nil, sink.ErrUnresolvedService
	}
	m.recorded = append(m.recorded, event)
	m.modes = append(m.modes, mode)
	return &sink.Result{StorageMethod: sink.MethodPostgrest, EventID: 1}, nil
}

type mockReplayer struct {
	summary *replay.Summary
	opts    []replay.Options
}

func (m *mockReplayer) Run(_ context.Context, opts replay.Options) (*replay.Summary, error) {
	m.opts = append(m.opts, opts)
	if m.summary != nil {
		return m.summary, nil
	}
	return &replay.Summary{}, nil
}

func newTestServer(t *testing.T, cfg *Config, rec *mockRecorder, rep *mockReplayer) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &Config{WebhookToken: testToken}
	}
	resolver := &mockResolver{byName: map[string]string{"svc-a": "svc-a-uuid"}}
	var replayer Replayer
	if rep != nil {
		replayer = rep
	}
	srv, err := New(cfg, nil, resolver, rec, replayer)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func openIncident(resource string) string {
	return `{"version":"1.2","incident":{"incident_id":"inc-1","state":"OPEN","resource_name":"` + resource + `","policy_name":"uptime","url":"https://` + resource + `.test/health"}}`
}

func postWebhook(srv *Server, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.setupRouter().ServeHTTP(w, req)
	return w
}

func TestWebhook_RecordsDownEvent(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeRelational}
	srv := newTestServer(t, nil, rec, nil)

	w := postWebhook(srv, "/webhook/uptime", testToken, openIncident("svc-a"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success should be true")
	}
	if resp.EventType != models.EventDown {
		t.Errorf("event type = %q, want down", resp.EventType)
	}
	if resp.ServiceID != "svc-a-uuid" {
		t.Errorf("service id = %q, want svc-a-uuid", resp.ServiceID)
	}
	if len(rec.recorded) != 1 {
		t.Fatalf("recorded %d events, want 1", len(rec.recorded))
	}
	if rec.recorded[0].Payload.IncidentID != "inc-1" {
		t.Errorf("incident = %q", rec.recorded[0].Payload.IncidentID)
	}
}

func TestWebhook_AuthFailures(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "not-the-token", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecorder{defaultMode: sink.ModeRelational}
			srv := newTestServer(t, nil, rec, nil)

			w := postWebhook(srv, "/webhook/uptime", tt.token, openIncident("svc-a"))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			// Rejected requests must never reach the sinks.
			if len(rec.recorded) != 0 || len(rec.archived) != 0 {
				t.Errorf("sinks touched by a rejected request")
			}
		})
	}
}

func TestWebhook_TokenQueryParam(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeRelational}
	srv := newTestServer(t, nil, rec, nil)

	w := postWebhook(srv, "/webhook/uptime?token="+testToken, "", openIncident("svc-a"))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestWebhook_MalformedPayload(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeRelational}
	srv := newTestServer(t, nil, rec, nil)

	w := postWebhook(srv, "/webhook/uptime", testToken, `this is not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("success should be false")
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeMalformedPayload {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeMalformedPayload)
	}
}

// TestWebhook_MalformedPayloadStillArchived verifies lossless retention:
// when the active mode includes the archive, even an unparseable delivery
// is kept.
func TestWebhook_MalformedPayloadStillArchived(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeDual, archive: true}
	srv := newTestServer(t, nil, rec, nil)

	w := postWebhook(srv, "/webhook/uptime", testToken, `{"incident": 42}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(rec.archived) != 1 {
		t.Fatalf("archived %d payloads, want 1", len(rec.archived))
	}
	if string(rec.archived[0]) != `{"incident": 42}` {
		t.Errorf("archived bytes = %s", rec.archived[0])
	}
}

func TestWebhook_UnresolvedService(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeRelational}
	srv := newTestServer(t, nil, rec, nil)

	w := postWebhook(srv, "/webhook/uptime", testToken, openIncident("unknown-svc"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error == nil || resp.Error.Code != ErrCodeUnresolvedService {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeUnresolvedService)
	}
}

func TestWebhook_ExplicitServiceID(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeRelational}
	srv := newTestServer(t, nil, rec, nil)

	w := postWebhook(srv, "/webhook/uptime?service_id=forced-uuid", testToken, openIncident("unknown-svc"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if rec.recorded[0].ServiceID != "forced-uuid" {
		t.Errorf("service id = %q, want forced-uuid", rec.recorded[0].ServiceID)
	}
}

func TestWebhook_UseGCSOverride(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeRelational, archive: true}
	srv := newTestServer(t, nil, rec, nil)

	w := postWebhook(srv, "/webhook/uptime?use_gcs=true", testToken, openIncident("unknown-svc"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(rec.modes) != 1 || rec.modes[0] != sink.ModeObjectStore {
		t.Errorf("modes = %v, want [object-store]", rec.modes)
	}
}

func TestWebhook_SinkFailure(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeRelational, err: errors.New("postgrest down")}
	srv := newTestServer(t, nil, rec, nil)

	w := postWebhook(srv, "/webhook/uptime", testToken, openIncident("svc-a"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestReplay_Endpoint(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeDual, archive: true}
	rep := &mockReplayer{summary: &replay.Summary{Total: 3, Processed: 3}}
	srv := newTestServer(t, nil, rec, rep)

	w := postWebhook(srv, "/webhook/uptime/replay", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var summary replay.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.Processed != 3 {
		t.Errorf("processed = %d, want 3", summary.Processed)
	}
}

func TestReplay_DevReassignGated(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeDual, archive: true}
	rep := &mockReplayer{}
	srv := newTestServer(t, &Config{WebhookToken: testToken}, rec, rep)

	w := postWebhook(srv, "/webhook/uptime/replay?dev_reassign=true", testToken, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 when reassignment is disabled", w.Code)
	}
	if len(rep.opts) != 0 {
		t.Error("replay ran despite the gate")
	}
}

func TestReplay_DevReassignEnabled(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeDual, archive: true}
	rep := &mockReplayer{}
	srv := newTestServer(t, &Config{WebhookToken: testToken, ReplayDevReassign: true}, rec, rep)

	w := postWebhook(srv, "/webhook/uptime/replay?dev_reassign=true", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(rep.opts) != 1 || !rep.opts[0].DevReassign {
		t.Errorf("opts = %+v, want one run with DevReassign", rep.opts)
	}
}

func TestHealth_Public(t *testing.T) {
	rec := &mockRecorder{defaultMode: sink.ModeDual, archive: true}
	srv := newTestServer(t, nil, rec, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.setupRouter().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"default_mode":"dual"`) {
		t.Errorf("body = %s, want default_mode dual", w.Body.String())
	}
}

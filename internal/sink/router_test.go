package sink

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/good-yellow-bee/statushook/internal/models"
)

// mockRelational records inserts and can fail on demand.
type mockRelational struct {
	inserts []*models.Event
	err     error
	result  *Result
}

func (m *mockRelational) Insert(_ context.Context, event *models.Event) (*Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	if event.ServiceID == "" {
		return nil, ErrUnresolvedService
	}
	m.inserts = append(m.inserts, event)
	if m.result != nil {
		return m.result, nil
	}
	return &Result{StorageMethod: MethodPostgrest, EventID: int64(len(m.inserts))}, nil
}

func testEvent(serviceID string) *models.Event {
	return &models.Event{
		Type:      models.EventDown,
		ServiceID: serviceID,
		Payload: models.EventPayload{
			IncidentID: "inc-1",
			State:      "OPEN",
			Raw:        json.RawMessage(`{"incident":{"incident_id":"inc-1","state":"OPEN"}}`),
		},
	}
}

func TestRouter_ModeFor(t *testing.T) {
	rt := NewRouter(&mockRelational{}, NewArchive(NewMemStore(), ""), ModeDual)

	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name    string
		useGCS  *bool
		expects Mode
	}{
		{"nil uses operator default", nil, ModeDual},
		{"true forces object store", boolPtr(true), ModeObjectStore},
		{"false forces relational", boolPtr(false), ModeRelational},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rt.ModeFor(tt.useGCS); got != tt.expects {
				t.Errorf("ModeFor() = %v, want %v", got, tt.expects)
			}
		})
	}
}

func TestRouter_RelationalOnly(t *testing.T) {
	rel := &mockRelational{}
	rt := NewRouter(rel, NewArchive(NewMemStore(), ""), ModeRelational)

	res, err := rt.Record(context.Background(), testEvent("svc-1"), ModeRelational)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if res.StorageMethod != MethodPostgrest {
		t.Errorf("storage method = %q, want %q", res.StorageMethod, MethodPostgrest)
	}
	if len(rel.inserts) != 1 {
		t.Errorf("relational inserts = %d, want 1", len(rel.inserts))
	}
}

func TestRouter_RelationalRequiresServiceID(t *testing.T) {
	rt := NewRouter(&mockRelational{}, NewArchive(NewMemStore(), ""), ModeRelational)

	_, err := rt.Record(context.Background(), testEvent(""), ModeRelational)
	if !errors.Is(err, ErrUnresolvedService) {
		t.Fatalf("Record() error = %v, want ErrUnresolvedService", err)
	}
}

func TestRouter_ObjectStoreToleratesUnresolved(t *testing.T) {
	store := NewMemStore()
	rt := NewRouter(&mockRelational{}, NewArchive(store, ""), ModeObjectStore)

	res, err := rt.Record(context.Background(), testEvent(""), ModeObjectStore)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if res.StorageMethod != MethodGCS {
		t.Errorf("storage method = %q, want %q", res.StorageMethod, MethodGCS)
	}
	if !strings.HasPrefix(res.Object, DefaultPrefix) {
		t.Errorf("object name %q should carry prefix %q", res.Object, DefaultPrefix)
	}
	if store.Len() != 1 {
		t.Errorf("stored objects = %d, want 1", store.Len())
	}
}

func TestRouter_DualWritesBoth(t *testing.T) {
	rel := &mockRelational{}
	store := NewMemStore()
	rt := NewRouter(rel, NewArchive(store, ""), ModeDual)

	res, err := rt.Record(context.Background(), testEvent("svc-1"), ModeDual)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if res.StorageMethod != MethodDual {
		t.Errorf("storage method = %q, want %q", res.StorageMethod, MethodDual)
	}
	if res.Object == "" {
		t.Error("dual result should include the archive object name")
	}
	if len(rel.inserts) != 1 || store.Len() != 1 {
		t.Errorf("inserts = %d, objects = %d, want 1 and 1", len(rel.inserts), store.Len())
	}
}

// TestRouter_DualArchiveFailureIsBestEffort verifies an archive outage does
// not fail the request when the relational write succeeds.
func TestRouter_DualArchiveFailureIsBestEffort(t *testing.T) {
	rel := &mockRelational{}
	store := NewMemStore()
	store.FailPut = true
	rt := NewRouter(rel, NewArchive(store, ""), ModeDual)

	res, err := rt.Record(context.Background(), testEvent("svc-1"), ModeDual)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if res.StorageMethod != MethodPostgrest {
		t.Errorf("storage method = %q, want %q when the archive is down", res.StorageMethod, MethodPostgrest)
	}
	if len(rel.inserts) != 1 {
		t.Errorf("relational inserts = %d, want 1", len(rel.inserts))
	}
}

// TestRouter_DualRelationalFailureFails verifies the relational sink stays
// authoritative: its failure fails the recording even after a successful
// archive write.
func TestRouter_DualRelationalFailureFails(t *testing.T) {
	rel := &mockRelational{err: errors.New("postgrest unavailable")}
	store := NewMemStore()
	rt := NewRouter(rel, NewArchive(store, ""), ModeDual)

	if _, err := rt.Record(context.Background(), testEvent("svc-1"), ModeDual); err == nil {
		t.Fatal("Record() should fail when the relational write fails")
	}
	// The archive write still happened; replay can recover the event.
	if store.Len() != 1 {
		t.Errorf("stored objects = %d, want 1", store.Len())
	}
}

func TestRouter_ObjectStoreModeWithoutStore(t *testing.T) {
	rt := NewRouter(&mockRelational{}, nil, ModeRelational)

	if _, err := rt.Record(context.Background(), testEvent("svc-1"), ModeObjectStore); err == nil {
		t.Fatal("Record() should fail when object-store mode is requested without a store")
	}
}

func TestRouter_DuplicatePassthrough(t *testing.T) {
	rel := &mockRelational{result: &Result{StorageMethod: MethodPostgrest, Duplicate: true}}
	rt := NewRouter(rel, nil, ModeRelational)

	res, err := rt.Record(context.Background(), testEvent("svc-1"), ModeRelational)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !res.Duplicate {
		t.Error("duplicate flag should survive the router")
	}
}

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/good-yellow-bee/statushook/internal/models"
)

// PostgrestSink writes events through a PostgREST endpoint fronting the
// event table. Duplicate suppression rides on the table's unique
// (incident_id, state) constraint: inserts ask PostgREST to ignore
// conflicting rows, so redelivered webhooks become no-ops instead of errors.
type PostgrestSink struct {
	baseURL string
	http    *http.Client

	// rpcMode routes inserts through the process_gc_alert database
	// function instead of the plain table endpoint. The function accepts
	// the raw provider payload and does extraction and service matching
	// inside the database.
	rpcMode bool
}

// NewPostgrestSink creates a relational sink against the given PostgREST
// base URL.
func NewPostgrestSink(baseURL string, timeout time.Duration, rpcMode bool) *PostgrestSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgrestSink{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		rpcMode: rpcMode,
	}
}

// eventRow is the wire shape of one event table row.
type eventRow struct {
	ID        int64               `json:"id,omitempty"`
	EventType models.EventType    `json:"event_type"`
	Payload   models.EventPayload `json:"event_payload"`
	ServiceID string              `json:"service_id"`
}

// Insert records the event, exactly once per (incident, state) pair.
func (p *PostgrestSink) Insert(ctx context.Context, event *models.Event) (*Result, error) {
	if p.rpcMode {
		return p.insertRPC(ctx, event)
	}
	if event.ServiceID == "" {
		return nil, ErrUnresolvedService
	}

	body, err := json.Marshal(eventRow{
		EventType: event.Type,
		Payload:   event.Payload,
		ServiceID: event.ServiceID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	url := p.baseURL + "/event?on_conflict=incident_id,state"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create insert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation, resolution=ignore-duplicates")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("event insert: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		var rows []eventRow
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode insert response: %w", err)
		}
		// With ignore-duplicates a conflicting insert succeeds but
		// returns no representation.
		if len(rows) == 0 {
			return &Result{StorageMethod: MethodPostgrest, Duplicate: true}, nil
		}
		return &Result{StorageMethod: MethodPostgrest, EventID: rows[0].ID}, nil

	case resp.StatusCode == http.StatusConflict:
		return &Result{StorageMethod: MethodPostgrest, Duplicate: true}, nil

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("event insert: status %d, body: %s", resp.StatusCode, string(body))
	}
}

// insertRPC hands the raw payload to the process_gc_alert function.
func (p *PostgrestSink) insertRPC(ctx context.Context, event *models.Event) (*Result, error) {
	body, err := json.Marshal(map[string]json.RawMessage{
		"payload": event.Payload.Raw,
	})
	if err != nil {
		return nil, fmt.Errorf("encode rpc payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rpc/process_gc_alert", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("process alert rpc: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("process alert rpc: status %d, body: %s", resp.StatusCode, string(body))
	}
	return &Result{StorageMethod: MethodPostgrest}, nil
}

// Ping checks sink reachability for readiness probes.
func (p *PostgrestSink) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.baseURL+"/event?limit=1", nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("sink ping: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("sink ping: status %d", resp.StatusCode)
	}
	return nil
}

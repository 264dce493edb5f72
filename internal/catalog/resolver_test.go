package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/good-yellow-bee/statushook/internal/models"
)

// mockCatalog counts calls and can simulate slow or failing catalogs.
type mockCatalog struct {
	services []models.Service
	calls    int
	err      error
	delay    time.Duration
}

func (m *mockCatalog) ListFull(ctx context.Context) ([]models.Service, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.services, nil
}

func testServices() []models.Service {
	return []models.Service{
		{
			ServiceID: "svc-a-uuid",
			Name:      "svc-a",
			Properties: []models.ServiceProperty{
				{Name: "url", Value: "https://svc-a.test/health"},
			},
		},
		{
			ServiceID: "svc-b-uuid",
			Name:      "svc-b",
			Properties: []models.ServiceProperty{
				{Name: "url", Value: "https://svc-b.test/health"},
			},
		},
		{
			ServiceID:  "svc-c-uuid",
			Name:       "svc-c",
			Properties: nil, // no url property
		},
	}
}

// TestResolver_ExplicitID verifies an explicit ID bypasses the catalog.
func TestResolver_ExplicitID(t *testing.T) {
	catalog := &mockCatalog{services: testServices()}
	r := NewResolver(catalog, time.Second)

	id, err := r.Resolve(context.Background(), Query{
		ServiceID:    "explicit-uuid",
		ResourceName: "svc-a",
		URL:          "https://svc-a.test/health",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id != "explicit-uuid" {
		t.Errorf("id = %q, want explicit-uuid", id)
	}
	if catalog.calls != 0 {
		t.Errorf("catalog calls = %d, want 0 when an explicit id is supplied", catalog.calls)
	}
}

// TestResolver_Lookup tests name and url matching.
func TestResolver_Lookup(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		expected string
	}{
		{
			name:     "match by resource name",
			query:    Query{ResourceName: "svc-b"},
			expected: "svc-b-uuid",
		},
		{
			name:     "match by url property",
			query:    Query{URL: "https://svc-a.test/health"},
			expected: "svc-a-uuid",
		},
		{
			name:     "name takes precedence within one service scan",
			query:    Query{ResourceName: "svc-a", URL: "https://svc-b.test/health"},
			expected: "svc-a-uuid",
		},
		{
			name:     "no match returns empty",
			query:    Query{ResourceName: "unknown", URL: "https://unknown.test"},
			expected: "",
		},
		{
			name:     "empty query returns empty without error",
			query:    Query{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&mockCatalog{services: testServices()}, time.Second)
			id, err := r.Resolve(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if id != tt.expected {
				t.Errorf("id = %q, want %q", id, tt.expected)
			}
		})
	}
}

// TestResolver_EmptyQuerySkipsCatalog verifies no lookup happens when there
// is nothing to match on.
func TestResolver_EmptyQuerySkipsCatalog(t *testing.T) {
	catalog := &mockCatalog{services: testServices()}
	r := NewResolver(catalog, time.Second)

	if _, err := r.Resolve(context.Background(), Query{}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if catalog.calls != 0 {
		t.Errorf("catalog calls = %d, want 0 for an empty query", catalog.calls)
	}
}

// TestResolver_Timeout verifies a slow catalog degrades to unresolved.
func TestResolver_Timeout(t *testing.T) {
	catalog := &mockCatalog{services: testServices(), delay: 200 * time.Millisecond}
	r := NewResolver(catalog, 20*time.Millisecond)

	id, err := r.Resolve(context.Background(), Query{ResourceName: "svc-a"})
	if err != nil {
		t.Fatalf("Resolve() should degrade to unresolved on timeout, got error %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty on timeout", id)
	}
}

// TestResolver_CatalogError verifies non-timeout failures propagate.
func TestResolver_CatalogError(t *testing.T) {
	catalog := &mockCatalog{err: errors.New("connection refused")}
	r := NewResolver(catalog, time.Second)

	if _, err := r.Resolve(context.Background(), Query{ResourceName: "svc-a"}); err == nil {
		t.Fatal("Resolve() should surface catalog failures that are not timeouts")
	}
}

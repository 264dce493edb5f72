// Package alert normalizes third-party uptime-monitor webhook payloads into
// canonical events.
package alert

import (
	"errors"

	"github.com/good-yellow-bee/statushook/internal/models"
)

// ErrMalformedPayload is returned when a payload cannot be interpreted as a
// provider alert: the body is not JSON or the incident object is missing.
var ErrMalformedPayload = errors.New("malformed alert payload")

// Normalizer converts one provider's webhook payload into a canonical Event.
// Implementations must be pure: no I/O, no side effects, deterministic for
// the same input, and must retain the original bytes verbatim in the result.
type Normalizer interface {
	// Name returns the provider name (e.g. "google-monitoring").
	Name() string

	// Normalize parses raw payload bytes into a canonical Event.
	// Returns ErrMalformedPayload (wrapped) when the payload shape is
	// not recognized.
	Normalize(raw []byte) (*models.Event, error)
}

// Registry holds normalizers keyed by provider name. Supporting a new
// monitor's webhook shape means registering a new normalizer, not branching
// inside an existing one.
type Registry struct {
	normalizers map[string]Normalizer
}

// NewRegistry creates an empty normalizer registry.
func NewRegistry() *Registry {
	return &Registry{normalizers: make(map[string]Normalizer)}
}

// Register adds a normalizer to the registry.
func (r *Registry) Register(n Normalizer) {
	r.normalizers[n.Name()] = n
}

// Get returns a normalizer by provider name.
func (r *Registry) Get(name string) (Normalizer, bool) {
	n, ok := r.normalizers[name]
	return n, ok
}

// Names returns all registered provider names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.normalizers))
	for name := range r.normalizers {
		out = append(out, name)
	}
	return out
}

// DefaultRegistry returns a registry with all built-in normalizers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewGoogleMonitoring())
	return r
}

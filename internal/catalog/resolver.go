package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/good-yellow-bee/statushook/internal/metrics"
	"github.com/good-yellow-bee/statushook/internal/models"
)

// Catalog is the read surface the resolver needs.
type Catalog interface {
	ListFull(ctx context.Context) ([]models.Service, error)
}

// Query identifies the service an event belongs to. An explicit ServiceID
// wins without any catalog lookup.
type Query struct {
	ServiceID    string
	ResourceName string
	URL          string
}

// Resolver maps external resource identities to internal service IDs.
type Resolver struct {
	catalog Catalog
	timeout time.Duration
}

// NewResolver creates a resolver whose catalog lookups are bounded by the
// given timeout.
func NewResolver(catalog Catalog, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{catalog: catalog, timeout: timeout}
}

// Resolve returns the service ID for the query, or "" when no service
// matches. Unresolved is not an error: callers decide whether the chosen
// persistence mode tolerates it. A lookup that exceeds the resolver timeout
// degrades to unresolved rather than failing the request.
func (r *Resolver) Resolve(ctx context.Context, q Query) (string, error) {
	if q.ServiceID != "" {
		metrics.ResolverLookups.WithLabelValues("explicit").Inc()
		return q.ServiceID, nil
	}
	if q.ResourceName == "" && q.URL == "" {
		metrics.ResolverLookups.WithLabelValues("unresolved").Inc()
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	services, err := r.catalog.ListFull(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("catalog lookup timed out after %v (resource=%q url=%q)", r.timeout, q.ResourceName, q.URL)
			metrics.ResolverLookups.WithLabelValues("timeout").Inc()
			return "", nil
		}
		metrics.ResolverLookups.WithLabelValues("error").Inc()
		return "", fmt.Errorf("catalog lookup: %w", err)
	}

	// The catalog is expected to enforce name/url uniqueness; the first
	// match in catalog order wins.
	for i := range services {
		s := &services[i]
		if q.ResourceName != "" && s.Name == q.ResourceName {
			metrics.ResolverLookups.WithLabelValues("resolved").Inc()
			return s.ServiceID, nil
		}
		if q.URL != "" && s.URL() == q.URL {
			metrics.ResolverLookups.WithLabelValues("resolved").Inc()
			return s.ServiceID, nil
		}
	}

	metrics.ResolverLookups.WithLabelValues("unresolved").Inc()
	return "", nil
}

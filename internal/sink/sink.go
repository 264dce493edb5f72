// Package sink records canonical events. The relational sink is the
// authoritative store; the object-storage archive is the lossless fallback
// and the replay source.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/good-yellow-bee/statushook/internal/metrics"
	"github.com/good-yellow-bee/statushook/internal/models"
)

// ErrUnresolvedService is returned when an event without a service ID is
// offered to a destination that requires one.
var ErrUnresolvedService = errors.New("event has no resolved service id")

// Mode selects which sinks a recording targets.
type Mode int

const (
	// ModeRelational writes to the relational sink only.
	ModeRelational Mode = iota
	// ModeObjectStore writes to the object-storage archive only.
	ModeObjectStore
	// ModeDual archives first, then writes the relational record.
	ModeDual
)

func (m Mode) String() string {
	switch m {
	case ModeRelational:
		return "relational"
	case ModeObjectStore:
		return "object-store"
	case ModeDual:
		return "dual"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Storage method labels reported back to webhook callers.
const (
	MethodPostgrest = "postgrest"
	MethodGCS       = "gcs"
	MethodDual      = "postgrest+gcs"
)

// Result describes where an event landed.
type Result struct {
	// StorageMethod names the sink(s) that accepted the event.
	StorageMethod string `json:"storage_method"`
	// Object is the archive object name, when one was written.
	Object string `json:"object,omitempty"`
	// EventID is the relational row ID, when the sink returned one.
	EventID int64 `json:"event_id,omitempty"`
	// Duplicate is true when the relational sink recognized the
	// (incident, state) pair and ignored the insert.
	Duplicate bool `json:"duplicate,omitempty"`
}

// Relational is the authoritative event store.
type Relational interface {
	Insert(ctx context.Context, event *models.Event) (*Result, error)
}

// Archiver persists raw payloads to write-once object storage.
type Archiver interface {
	Archive(ctx context.Context, raw []byte) (string, error)
}

// Router applies the persistence mode policy for one recording.
type Router struct {
	relational  Relational
	archive     Archiver
	defaultMode Mode
}

// NewRouter creates a router. archive may be nil when no object store is
// configured, in which case ModeObjectStore and ModeDual are unavailable.
func NewRouter(relational Relational, archive Archiver, defaultMode Mode) *Router {
	return &Router{
		relational:  relational,
		archive:     archive,
		defaultMode: defaultMode,
	}
}

// ModeFor returns the mode for one request. useGCS is the caller's
// per-request override; nil means the operator default applies.
func (rt *Router) ModeFor(useGCS *bool) Mode {
	if useGCS == nil {
		return rt.defaultMode
	}
	if *useGCS {
		return ModeObjectStore
	}
	return ModeRelational
}

// CanArchive reports whether an object store is configured.
func (rt *Router) CanArchive() bool {
	return rt.archive != nil
}

// ArchiveRaw stores a raw payload without normalizing it. Used to retain
// malformed deliveries when the active mode includes the archive.
func (rt *Router) ArchiveRaw(ctx context.Context, raw []byte) (string, error) {
	if rt.archive == nil {
		return "", errors.New("no object store configured")
	}
	object, err := rt.archive.Archive(ctx, raw)
	if err != nil {
		metrics.SinkWrites.WithLabelValues(MethodGCS, "error").Inc()
		return "", err
	}
	metrics.SinkWrites.WithLabelValues(MethodGCS, "ok").Inc()
	return object, nil
}

// Record persists the event under the given mode.
//
// In dual mode the archive write runs first and is best effort: its failure
// is logged but does not fail the request as long as the relational write
// succeeds. The relational write is authoritative and its failure fails the
// recording even if the raw payload was archived.
func (rt *Router) Record(ctx context.Context, event *models.Event, mode Mode) (*Result, error) {
	switch mode {
	case ModeRelational:
		return rt.recordRelational(ctx, event)

	case ModeObjectStore:
		if rt.archive == nil {
			return nil, errors.New("object-store mode requested but no object store configured")
		}
		object, err := rt.ArchiveRaw(ctx, event.Payload.Raw)
		if err != nil {
			return nil, fmt.Errorf("archive payload: %w", err)
		}
		return &Result{StorageMethod: MethodGCS, Object: object}, nil

	case ModeDual:
		var object string
		if rt.archive == nil {
			log.Printf("dual mode without an object store, falling back to relational only")
		} else {
			var err error
			object, err = rt.ArchiveRaw(ctx, event.Payload.Raw)
			if err != nil {
				log.Printf("archive write failed, continuing with relational write: %v", err)
			}
		}
		res, err := rt.recordRelational(ctx, event)
		if err != nil {
			return nil, err
		}
		if object != "" {
			res.StorageMethod = MethodDual
			res.Object = object
		}
		return res, nil

	default:
		return nil, fmt.Errorf("unknown persistence mode %d", int(mode))
	}
}

func (rt *Router) recordRelational(ctx context.Context, event *models.Event) (*Result, error) {
	res, err := rt.relational.Insert(ctx, event)
	if err != nil {
		if errors.Is(err, ErrUnresolvedService) {
			metrics.SinkWrites.WithLabelValues(MethodPostgrest, "unresolved").Inc()
		} else {
			metrics.SinkWrites.WithLabelValues(MethodPostgrest, "error").Inc()
		}
		return nil, err
	}
	if res.Duplicate {
		metrics.SinkWrites.WithLabelValues(MethodPostgrest, "duplicate").Inc()
	} else {
		metrics.SinkWrites.WithLabelValues(MethodPostgrest, "ok").Inc()
	}
	return res, nil
}

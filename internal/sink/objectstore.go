package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/statushook/internal/models"
)

const (
	// DefaultPrefix is the archive namespace used when none is configured.
	DefaultPrefix = "uptime-events/"

	// LegacyPrefix is the namespace older deployments archived under. It
	// is still read during listing so replay covers pre-migration objects.
	LegacyPrefix = "uptime-alerts/"
)

// ObjectInfo describes one archived object.
type ObjectInfo struct {
	Name    string
	Created time.Time
}

// ObjectStore abstracts the write-once object backend. Production uses GCS;
// local development uses the filesystem store.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// Archive wraps an object store with the archive envelope and naming scheme.
type Archive struct {
	store  ObjectStore
	prefix string
}

// NewArchive creates an archive over the given store. An empty prefix falls
// back to DefaultPrefix.
func NewArchive(store ObjectStore, prefix string) *Archive {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Archive{store: store, prefix: prefix}
}

// Prefix returns the archive's object name prefix.
func (a *Archive) Prefix() string {
	return a.prefix
}

// Archive stores one raw payload and returns the object name. The name
// embeds the receive timestamp for ordering and a UUID so concurrent writes
// in the same instant never collide.
func (a *Archive) Archive(ctx context.Context, raw []byte) (string, error) {
	now := time.Now().UTC()
	name := fmt.Sprintf("%s%s-%s.json", a.prefix, now.Format(time.RFC3339), uuid.New().String())

	data, err := json.Marshal(models.ArchivedPayload{
		Timestamp:  now,
		RawPayload: raw,
	})
	if err != nil {
		return "", fmt.Errorf("encode archive envelope: %w", err)
	}

	if err := a.store.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("write archive object %s: %w", name, err)
	}
	return name, nil
}

// List returns the archived objects under the archive prefix. When the
// archive uses the default prefix the legacy namespace is included too.
func (a *Archive) List(ctx context.Context) ([]ObjectInfo, error) {
	objects, err := a.store.List(ctx, a.prefix)
	if err != nil {
		return nil, err
	}
	if a.prefix == DefaultPrefix {
		legacy, err := a.store.List(ctx, LegacyPrefix)
		if err != nil {
			return nil, err
		}
		objects = append(objects, legacy...)
	}
	return objects, nil
}

// Get reads one archived object by name.
func (a *Archive) Get(ctx context.Context, name string) ([]byte, error) {
	return a.store.Get(ctx, name)
}

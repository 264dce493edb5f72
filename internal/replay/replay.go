// Package replay re-drives archived raw payloads through the normal
// ingestion pipeline.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/good-yellow-bee/statushook/internal/alert"
	"github.com/good-yellow-bee/statushook/internal/catalog"
	"github.com/good-yellow-bee/statushook/internal/metrics"
	"github.com/good-yellow-bee/statushook/internal/models"
	"github.com/good-yellow-bee/statushook/internal/sink"
)

// DefaultRatePerSec bounds how fast replay pushes events at the sinks.
const DefaultRatePerSec = 10

// ArchiveReader is the archive surface replay needs.
type ArchiveReader interface {
	List(ctx context.Context) ([]sink.ObjectInfo, error)
	Get(ctx context.Context, name string) ([]byte, error)
}

// Resolver maps event identities to service IDs.
type Resolver interface {
	Resolve(ctx context.Context, q catalog.Query) (string, error)
}

// Recorder persists replayed events.
type Recorder interface {
	Record(ctx context.Context, event *models.Event, mode sink.Mode) (*sink.Result, error)
}

// Options configures one replay run.
type Options struct {
	// DevReassign reassigns events to random catalog services, one stable
	// pick per source host. Development environments use it to seed a
	// fresh catalog with production-shaped history. Never enable it
	// against production data.
	DevReassign bool

	// RatePerSec overrides the default pacing. Zero means default.
	RatePerSec float64
}

// Summary reports the outcome of a replay run.
type Summary struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// Controller replays archived payloads oldest first, sequentially, so
// recorded history keeps the original event order.
type Controller struct {
	archive    ArchiveReader
	catalog    catalog.Catalog
	normalizer alert.Normalizer
	resolver   Resolver
	recorder   Recorder
	rng        *rand.Rand
}

// NewController creates a replay controller. catalog is only consulted when
// a run requests dev reassignment.
func NewController(archive ArchiveReader, cat catalog.Catalog, normalizer alert.Normalizer, resolver Resolver, recorder Recorder) *Controller {
	return &Controller{
		archive:    archive,
		catalog:    cat,
		normalizer: normalizer,
		resolver:   resolver,
		recorder:   recorder,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run replays every archived payload and returns a per-run summary. A
// corrupt or unreadable entry is skipped with a log line; it never aborts
// the run. Replayed events are recorded to the relational sink only, so a
// replay can never grow the archive it is reading.
func (c *Controller) Run(ctx context.Context, opts Options) (*Summary, error) {
	var objects []sink.ObjectInfo
	var services []models.Service

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		objects, err = c.archive.List(gctx)
		if err != nil {
			return fmt.Errorf("list archive: %w", err)
		}
		return nil
	})
	if opts.DevReassign {
		g.Go(func() error {
			var err error
			services, err = c.catalog.ListFull(gctx)
			if err != nil {
				return fmt.Errorf("list services for reassignment: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Created.Before(objects[j].Created)
	})

	perSec := opts.RatePerSec
	if perSec <= 0 {
		perSec = DefaultRatePerSec
	}
	limiter := rate.NewLimiter(rate.Limit(perSec), 1)

	hostAssignments := make(map[string]string)
	summary := &Summary{Total: len(objects)}
	log.Printf("replaying %d archived payloads (dev_reassign=%t)", len(objects), opts.DevReassign)

	for _, obj := range objects {
		if err := limiter.Wait(ctx); err != nil {
			return summary, fmt.Errorf("replay interrupted: %w", err)
		}
		if err := c.replayOne(ctx, obj, services, hostAssignments, opts, summary); err != nil {
			summary.Errors++
			log.Printf("replay %s: %v", obj.Name, err)
		}
	}

	log.Printf("replay finished: %d processed, %d skipped, %d errors of %d",
		summary.Processed, summary.Skipped, summary.Errors, summary.Total)
	return summary, nil
}

func (c *Controller) replayOne(ctx context.Context, obj sink.ObjectInfo, services []models.Service, hostAssignments map[string]string, opts Options, summary *Summary) error {
	data, err := c.archive.Get(ctx, obj.Name)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}

	var env models.ArchivedPayload
	if err := json.Unmarshal(data, &env); err != nil {
		summary.Skipped++
		metrics.ReplaySkipped.Inc()
		log.Printf("skipping corrupt archive object %s: %v", obj.Name, err)
		return nil
	}

	if alreadyReplayed(env.RawPayload) {
		summary.Skipped++
		metrics.ReplaySkipped.Inc()
		return nil
	}

	event, err := c.normalizer.Normalize(env.RawPayload)
	if err != nil {
		summary.Skipped++
		metrics.ReplaySkipped.Inc()
		log.Printf("skipping unparseable archive object %s: %v", obj.Name, err)
		return nil
	}

	serviceID, err := c.resolver.Resolve(ctx, catalog.Query{
		ResourceName: event.Payload.ResourceName,
		URL:          event.Payload.URL,
	})
	if err != nil {
		return fmt.Errorf("resolve service: %w", err)
	}
	event.ServiceID = serviceID

	if opts.DevReassign {
		if reassigned := c.assignForHost(event.Payload.URL, services, hostAssignments); reassigned != "" {
			event.Payload.OriginalServiceID = event.ServiceID
			event.ServiceID = reassigned
		}
	}

	event.Payload.Replayed = true
	event.Payload.ProcessedAt = time.Now().UTC().Format(time.RFC3339)

	if _, err := c.recorder.Record(ctx, event, sink.ModeRelational); err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	summary.Processed++
	metrics.ReplayProcessed.Inc()
	return nil
}

// assignForHost picks a random catalog service for the payload's host. The
// pick is stable within one run so all events from the same monitored host
// land on the same service.
func (c *Controller) assignForHost(rawURL string, services []models.Service, assignments map[string]string) string {
	if len(services) == 0 || rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	if id, ok := assignments[u.Host]; ok {
		return id
	}

	// Prefer services that carry a url property so reassigned history
	// still looks like real monitoring data. Bounded retries, then any
	// service will do.
	var picked *models.Service
	for i := 0; i < 10; i++ {
		s := &services[c.rng.Intn(len(services))]
		if s.URL() != "" {
			picked = s
			break
		}
	}
	if picked == nil {
		picked = &services[c.rng.Intn(len(services))]
	}
	assignments[u.Host] = picked.ServiceID
	return picked.ServiceID
}

// alreadyReplayed detects the replay annotation in an archived payload. It
// guards against archives that were themselves produced by a misconfigured
// replay writing in dual mode.
func alreadyReplayed(raw json.RawMessage) bool {
	var marker struct {
		Replayed bool `json:"replayed"`
	}
	if err := json.Unmarshal(raw, &marker); err != nil {
		return false
	}
	return marker.Replayed
}

// Package api provides the webhook ingestion HTTP server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/statushook/internal/alert"
	"github.com/good-yellow-bee/statushook/internal/api/health"
	"github.com/good-yellow-bee/statushook/internal/catalog"
	"github.com/good-yellow-bee/statushook/internal/models"
	"github.com/good-yellow-bee/statushook/internal/replay"
	"github.com/good-yellow-bee/statushook/internal/sink"
)

// MaxPayloadBytes bounds webhook request bodies. Provider incident payloads
// are a few KB; anything near the cap is not a monitoring alert.
const MaxPayloadBytes = 1 << 20

// Config contains HTTP server configuration.
type Config struct {
	Address      string
	WebhookToken string
	AuthDisabled bool

	// Provider selects the default payload normalizer.
	Provider string

	// PersistTimeout bounds the resolve-and-record phase of one webhook.
	// The phase is detached from the client connection so a caller
	// disconnect can never leave a half-recorded event.
	PersistTimeout time.Duration

	// ReplayDevReassign permits replay runs to request random service
	// reassignment. Keep it off outside development environments.
	ReplayDevReassign bool

	// ReplayRatePerSec paces replay runs. Zero means the replay default.
	ReplayRatePerSec float64

	Verbose bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.Provider == "" {
		c.Provider = alert.ProviderGoogleMonitoring
	}
	if c.PersistTimeout == 0 {
		c.PersistTimeout = 30 * time.Second
	}
}

// Resolver maps event identities to service IDs.
type Resolver interface {
	Resolve(ctx context.Context, q catalog.Query) (string, error)
}

// Recorder persists events under a persistence mode.
type Recorder interface {
	ModeFor(useGCS *bool) sink.Mode
	CanArchive() bool
	ArchiveRaw(ctx context.Context, raw []byte) (string, error)
	Record(ctx context.Context, event *models.Event, mode sink.Mode) (*sink.Result, error)
}

// Replayer re-drives archived payloads.
type Replayer interface {
	Run(ctx context.Context, opts replay.Options) (*replay.Summary, error)
}

// Server is the webhook HTTP server.
type Server struct {
	config        *Config
	normalizers   *alert.Registry
	resolver      Resolver
	sinks         Recorder
	replayer      Replayer
	server        *http.Server
	healthHandler *health.Handler
}

// New creates a new webhook server. replayer may be nil when no archive is
// configured; the replay endpoint then reports the archive as unavailable.
func New(cfg *Config, normalizers *alert.Registry, resolver Resolver, sinks Recorder, replayer Replayer) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if sinks == nil {
		return nil, fmt.Errorf("sink router is required")
	}
	if !cfg.AuthDisabled && cfg.WebhookToken == "" {
		return nil, fmt.Errorf("webhook token is required unless auth is disabled")
	}

	cfg.SetDefaults()

	if normalizers == nil {
		normalizers = alert.DefaultRegistry()
	}
	if _, ok := normalizers.Get(cfg.Provider); !ok {
		return nil, fmt.Errorf("unknown alert provider %q", cfg.Provider)
	}

	s := &Server{
		config:        cfg,
		normalizers:   normalizers,
		resolver:      resolver,
		sinks:         sinks,
		replayer:      replayer,
		healthHandler: health.NewHandler(),
	}

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.setupRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("webhook server listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down webhook server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/statushook/internal/alert"
	"github.com/good-yellow-bee/statushook/internal/api"
	"github.com/good-yellow-bee/statushook/internal/api/health"
	"github.com/good-yellow-bee/statushook/internal/catalog"
	"github.com/good-yellow-bee/statushook/internal/replay"
	"github.com/good-yellow-bee/statushook/internal/sink"
	"github.com/good-yellow-bee/statushook/pkg/config"
)

var (
	configFile   string
	httpAddr     string
	postgrestURL string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "statushook-server",
	Short: "statushook - uptime webhook ingestion server",
	Long: `statushook receives uptime-monitor webhook alerts, resolves them to
catalog services, and records them to the relational event store and the
object-storage archive.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("statushook-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().StringVar(&postgrestURL, "postgrest-url", "", "PostgREST base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	if postgrestURL != "" {
		cfg.Postgrest.URL = postgrestURL
	}
	cfg.Verbose = verbose

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	// The webhook token only ever comes from the environment.
	token := os.Getenv("STATUSHOOK_WEBHOOK_TOKEN")
	if token == "" && !cfg.Auth.Disabled {
		return fmt.Errorf("STATUSHOOK_WEBHOOK_TOKEN environment variable is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog and resolver
	catalogClient := catalog.NewClient(cfg.Postgrest.URL, cfg.Resolver.Timeout)
	resolver := catalog.NewResolver(catalogClient, cfg.Resolver.Timeout)

	// Relational sink
	relational := sink.NewPostgrestSink(cfg.Postgrest.URL, cfg.Postgrest.Timeout, cfg.Postgrest.RPCMode)

	// Object-storage archive
	var archive *sink.Archive
	var gcsStore *sink.GCSStore
	if cfg.GCS.Enabled {
		var store sink.ObjectStore
		if cfg.GCS.LocalDir != "" {
			fsStore, err := sink.NewFSStore(cfg.GCS.LocalDir)
			if err != nil {
				return fmt.Errorf("open local object store: %w", err)
			}
			store = fsStore
			log.Printf("archiving to local directory %s", cfg.GCS.LocalDir)
		} else {
			var err error
			gcsStore, err = sink.NewGCSStore(ctx, cfg.GCS.Bucket)
			if err != nil {
				return fmt.Errorf("open gcs bucket: %w", err)
			}
			defer gcsStore.Close()
			store = gcsStore
			log.Printf("archiving to gs://%s/%s", cfg.GCS.Bucket, cfg.GCS.Prefix)
		}
		archive = sink.NewArchive(store, cfg.GCS.Prefix)
	}

	defaultMode := sink.ModeRelational
	if archive != nil {
		defaultMode = sink.ModeDual
		if cfg.GCS.Exclusive {
			defaultMode = sink.ModeObjectStore
		}
	}
	router := sink.NewRouter(relational, archiverOrNil(archive), defaultMode)

	// Replay controller, only when there is an archive to read
	var replayer api.Replayer
	if archive != nil {
		replayer = replay.NewController(archive, catalogClient, alert.NewGoogleMonitoring(), resolver, router)
	}

	srv, err := api.New(&api.Config{
		Address:           cfg.Server.Address,
		WebhookToken:      token,
		AuthDisabled:      cfg.Auth.Disabled,
		ReplayDevReassign: cfg.Replay.DevReassign,
		ReplayRatePerSec:  cfg.Replay.RatePerSec,
		Verbose:           cfg.Verbose,
	}, alert.DefaultRegistry(), resolver, router, replayer)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	srv.RegisterHealthChecker(health.NewCatalogChecker(catalogClient))
	srv.RegisterHealthChecker(health.NewSinkChecker(relational))
	if gcsStore != nil {
		srv.RegisterHealthChecker(health.NewBucketChecker(gcsStore))
	}

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting statushook-server %s", config.Version)
	log.Printf("default persistence mode: %s", defaultMode)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}

// archiverOrNil avoids handing the router a non-nil interface wrapping a
// nil *sink.Archive.
func archiverOrNil(a *sink.Archive) sink.Archiver {
	if a == nil {
		return nil
	}
	return a
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewsubgraph/internal/announce"
	"reviewsubgraph/internal/graph"
	"reviewsubgraph/internal/metrics"
	"reviewsubgraph/internal/resolver"
	"reviewsubgraph/internal/rest"
	"reviewsubgraph/internal/reviews"
	"reviewsubgraph/internal/schema"
	"reviewsubgraph/internal/schema/formats"
	gqlformat "reviewsubgraph/internal/schema/formats/graphql"
	"reviewsubgraph/internal/schema/types"

	natsd "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

type server struct {
	cfg          config
	registry     *schema.Registry
	http         *http.Server
	nc           *nats.Conn
	js           nats.JetStreamContext
	kvAnnounce   nats.KeyValue
	mirror       *announce.Mirror
	natsServer   *natsd.Server
	natsStoreDir string
}

func main() {
	cfg := config{}
	cfg.load(flag.CommandLine)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(logHandler))

	slog.Info("Starting reviews subgraph", "config", cfg)

	srv, def, err := newServer(cfg)
	if err != nil {
		slog.Error("Failed to build subgraph", "error", err)
		os.Exit(1)
	}

	if cfg.usesNATS() {
		if err := srv.setupNATS(); err != nil {
			slog.Error("Failed to setup NATS", "error", err)
			slog.Warn("Continuing with limited functionality (no schema announcement)")
		} else {
			srv.startAnnouncement(def)
		}
	}

	go func() {
		slog.Info("HTTP server listening", "addr", cfg.HTTPAddr, "path", cfg.GraphQLPath)
		if err := srv.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	srv.gracefulShutdown(5 * time.Second)
}

// newServer builds the subgraph: it registers the subgraph's own schema
// definition before any request can reach the resolver.
func newServer(cfg config) (*server, types.SchemaDefinition, error) {
	registry := schema.New()

	def, err := graph.BuildDefinition(cfg.SchemaName, gqlformat.New())
	if err != nil {
		return nil, types.SchemaDefinition{}, fmt.Errorf("build schema definition: %w", err)
	}
	if err := registry.Register(def.Name, def); err != nil {
		return nil, types.SchemaDefinition{}, fmt.Errorf("register schema definition: %w", err)
	}
	slog.Debug("Registered schema definition", "name", def.Name, "extensions", len(def.ExtensionDocuments))

	res := resolver.New(reviews.NewStaticStore(reviews.Fixture()), registry)
	executor, err := graph.New(res)
	if err != nil {
		return nil, types.SchemaDefinition{}, fmt.Errorf("build executor: %w", err)
	}

	handler := rest.NewHandler(executor, registry, metrics.NewCollector("reviews_subgraph"), cfg.GraphQLPath)

	return &server{
		cfg:      cfg,
		registry: registry,
		http:     &http.Server{Addr: cfg.HTTPAddr, Handler: handler.Routes()},
	}, def, nil
}

func (s *server) startAnnouncement(def types.SchemaDefinition) {
	codec, err := formats.Codec(s.cfg.AnnounceFormat)
	if err != nil {
		slog.Error("Unsupported announcement format", "format", s.cfg.AnnounceFormat, "error", err)
		return
	}

	if s.cfg.Announce {
		if _, err := announce.NewPublisher(s.kvAnnounce, codec).Publish(def); err != nil {
			slog.Error("Failed to announce schema definition", "name", def.Name, "error", err)
		}
	}

	if s.cfg.Mirror {
		mirror := announce.NewMirror(s.kvAnnounce, codec, s.registry)
		if err := mirror.Start(); err != nil {
			slog.Error("Failed to start schema mirror", "error", err)
			return
		}
		s.mirror = mirror

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mirror.WaitReady(ctx); err != nil {
			slog.Warn("Schema mirror not ready, continuing", "error", err)
			return
		}
		slog.Info("Schema mirror ready", "schemas", s.registry.Names())
	}
}

func (s *server) gracefulShutdown(timeout time.Duration) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	slog.Info("Shutting down server...")
	if err := s.http.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}

	if s.mirror != nil {
		s.mirror.Stop()
	}

	if s.nc != nil {
		s.nc.Close()
	}

	s.stopEmbeddedNATS()
}

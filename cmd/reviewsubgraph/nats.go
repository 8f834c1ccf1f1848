package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	natsd "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func (s *server) startEmbeddedNATS() error {
	slog.Info("Starting embedded NATS server for testing")

	tmpDir, err := os.MkdirTemp("", "nats-data-*")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}

	opts := &natsd.Options{
		JetStream:  true,
		Port:       4222,
		Host:       "127.0.0.1",
		StoreDir:   tmpDir,
		MaxPayload: 8 * 1024 * 1024, // 8MB
	}

	ns, err := natsd.NewServer(opts)
	if err != nil {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("embedded NATS server failed to start")
	}

	timeout := time.Now().Add(5 * time.Second)
	for time.Now().Before(timeout) {
		if ns.JetStreamEnabled() {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	if !ns.JetStreamEnabled() {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("JetStream failed to start")
	}

	slog.Info("Embedded NATS server started successfully", "url", ns.ClientURL())
	s.natsServer = ns
	s.natsStoreDir = tmpDir

	return nil
}

func natsOptions() []nats.Option {
	return []nats.Option{
		nats.Name("Reviews Subgraph"),
		nats.Timeout(5 * time.Second),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			slog.Error("NATS error", "error", err)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Error("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	}
}

func (s *server) setupNATS() error {
	slog.Debug("Connecting to NATS", "url", s.cfg.NATSURL)

	nc, err := nats.Connect(s.cfg.NATSURL, natsOptions()...)

	// If connection fails and test mode is enabled, start embedded NATS server
	if err != nil && s.cfg.TestMode {
		slog.Info("Failed to connect to external NATS server, starting embedded server")

		if err := s.startEmbeddedNATS(); err != nil {
			return fmt.Errorf("start embedded NATS server: %w", err)
		}

		nc, err = nats.Connect(s.natsServer.ClientURL(), natsOptions()...)
		if err != nil {
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("Connected to NATS")
	s.nc = nc

	slog.Debug("Creating JetStream context")
	s.js, err = nc.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		return fmt.Errorf("JetStream context: %w", err)
	}

	s.kvAnnounce, err = announcementBucket(s.js, s.cfg.AnnounceBucket, 5, time.Second)
	if err != nil {
		return err
	}

	slog.Info("NATS setup completed successfully")
	return nil
}

// announcementBucket binds the announcement bucket, creating it when
// missing. JetStream may still be electing a leader right after connect,
// so failures are retried up to attempts times.
func announcementBucket(js nats.JetStreamContext, name string, attempts int, backoff time.Duration) (nats.KeyValue, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		kv, err := js.KeyValue(name)
		if errors.Is(err, nats.ErrBucketNotFound) {
			kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
				Bucket:      name,
				Description: "Subgraph schema definitions",
				Storage:     nats.FileStorage,
				History:     5,
			})
		}
		if err == nil {
			return kv, nil
		}

		lastErr = err
		slog.Debug("Announcement bucket unavailable", "name", name, "attempt", attempt, "error", err)
		if attempt < attempts {
			time.Sleep(backoff)
		}
	}
	return nil, fmt.Errorf("bind announcement bucket %q: %w", name, lastErr)
}

func (s *server) stopEmbeddedNATS() {
	if s.natsServer == nil {
		return
	}
	slog.Info("Shutting down embedded NATS server")
	s.natsServer.Shutdown()
	s.natsServer.WaitForShutdown()
	if err := os.RemoveAll(s.natsStoreDir); err != nil {
		slog.Warn("Failed to remove embedded NATS store", "dir", s.natsStoreDir, "error", err)
	}
	s.natsServer = nil
}

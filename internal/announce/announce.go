package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"reviewsubgraph/internal/schema/types"

	"github.com/nats-io/nats.go"
)

var (
	// ErrNotFound is returned by Fetch when the bucket has no entry for a name
	ErrNotFound = errors.New("schema definition not announced")
	// ErrInvalidKey is returned for names that cannot be used as bucket keys
	ErrInvalidKey = errors.New("invalid announcement key")
)

var validKey = regexp.MustCompile(`^[-/_=\.a-zA-Z0-9]+$`)

func checkKey(name string) error {
	if !validKey.MatchString(name) || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	return nil
}

// Publisher writes schema definitions into a JetStream key-value bucket so
// that gateways can pick them up without querying the subgraph.
type Publisher struct {
	kv    nats.KeyValue
	codec types.DefinitionCodec
}

// NewPublisher creates a publisher writing to kv with codec
func NewPublisher(kv nats.KeyValue, codec types.DefinitionCodec) *Publisher {
	return &Publisher{kv: kv, codec: codec}
}

// Publish stores def under its name and returns the bucket revision
func (p *Publisher) Publish(def types.SchemaDefinition) (uint64, error) {
	if err := checkKey(def.Name); err != nil {
		return 0, err
	}

	data, err := p.codec.Encode(def)
	if err != nil {
		return 0, fmt.Errorf("encode definition: %w", err)
	}

	rev, err := p.kv.Put(def.Name, data)
	if err != nil {
		return 0, fmt.Errorf("store definition: %w", err)
	}

	slog.Info("Announced schema definition", "name", def.Name, "bucket", p.kv.Bucket(), "codec", p.codec.Name(), "revision", rev)
	return rev, nil
}

// Fetch reads back the definition announced under name
func (p *Publisher) Fetch(name string) (types.SchemaDefinition, error) {
	if err := checkKey(name); err != nil {
		return types.SchemaDefinition{}, err
	}

	entry, err := p.kv.Get(name)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return types.SchemaDefinition{}, ErrNotFound
	}
	if err != nil {
		return types.SchemaDefinition{}, fmt.Errorf("get definition: %w", err)
	}

	def, err := p.codec.Decode(entry.Value())
	if err != nil {
		return types.SchemaDefinition{}, fmt.Errorf("decode definition: %w", err)
	}
	return def, nil
}

// Registrar is the write side of the schema registry
type Registrar interface {
	Register(name string, def types.SchemaDefinition) error
}

// Mirror keeps a registry in step with a bucket, registering every
// definition written to it.
type Mirror struct {
	kv       nats.KeyValue
	codec    types.DefinitionCodec
	registry Registrar
	ready    chan struct{}
	done     chan struct{}
	stop     chan struct{}
}

// NewMirror creates a mirror from kv into registry. Call Start to begin.
func NewMirror(kv nats.KeyValue, codec types.DefinitionCodec, registry Registrar) *Mirror {
	return &Mirror{
		kv:       kv,
		codec:    codec,
		registry: registry,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// Start subscribes to the bucket and applies updates in the background
func (m *Mirror) Start() error {
	watcher, err := m.kv.WatchAll()
	if err != nil {
		return fmt.Errorf("watch bucket: %w", err)
	}

	go m.run(watcher)
	return nil
}

// WaitReady blocks until the entries present at Start have been applied
func (m *Mirror) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends the watch and waits for the background loop to exit. It must
// only be called after a successful Start.
func (m *Mirror) Stop() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	<-m.done
}

func (m *Mirror) run(watcher nats.KeyWatcher) {
	defer close(m.done)
	defer func() {
		if err := watcher.Stop(); err != nil {
			slog.Debug("Stopping bucket watcher", "error", err)
		}
	}()

	readySignalled := false
	for {
		select {
		case <-m.stop:
			return
		case update, ok := <-watcher.Updates():
			if !ok {
				return
			}
			// nil marks the end of the initial values
			if update == nil {
				if !readySignalled {
					close(m.ready)
					readySignalled = true
				}
				continue
			}
			m.apply(update)
		}
	}
}

func (m *Mirror) apply(update nats.KeyValueEntry) {
	if update.Operation() != nats.KeyValuePut {
		slog.Debug("Ignoring bucket operation", "key", update.Key(), "op", update.Operation().String())
		return
	}

	def, err := m.codec.Decode(update.Value())
	if err != nil {
		slog.Error("Failed to decode announced definition", "key", update.Key(), "error", err)
		return
	}

	if err := m.registry.Register(update.Key(), def); err != nil {
		slog.Error("Failed to register mirrored definition", "key", update.Key(), "error", err)
		return
	}
	slog.Debug("Mirrored schema definition", "key", update.Key(), "revision", update.Revision())
}

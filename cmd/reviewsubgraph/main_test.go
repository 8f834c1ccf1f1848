package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"reviewsubgraph/internal/announce"
	"reviewsubgraph/internal/graph"
	"reviewsubgraph/internal/schema/formats"

	natsd "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, args ...string) config {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := config{}
	cfg.load(fs)
	require.NoError(t, fs.Parse(args))
	return cfg
}

func TestConfig_Defaults(t *testing.T) {
	cfg := loadConfig(t)

	assert.Equal(t, ":5054", cfg.HTTPAddr)
	assert.Equal(t, "/graphql", cfg.GraphQLPath)
	assert.Equal(t, "reviews", cfg.SchemaName)
	assert.Equal(t, "SUBGRAPHS", cfg.AnnounceBucket)
	assert.Equal(t, "json", cfg.AnnounceFormat)
	assert.False(t, cfg.usesNATS())
}

func TestConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("ANNOUNCE", "yes")
	t.Setenv("ANNOUNCE_FORMAT", "avro")

	cfg := loadConfig(t, "-schema-name", "reviews-v2", "-announce-format", "protobuf")

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.True(t, cfg.Announce)
	assert.True(t, cfg.usesNATS())
	assert.Equal(t, "reviews-v2", cfg.SchemaName)
	assert.Equal(t, "protobuf", cfg.AnnounceFormat)
}

func TestNewServer_RegistersOwnSchema(t *testing.T) {
	srv, def, err := newServer(loadConfig(t))
	require.NoError(t, err)

	stored, ok := srv.registry.Lookup("reviews")
	require.True(t, ok)
	assert.Equal(t, def, stored)
	assert.Equal(t, graph.ExtensionDocuments(), def.ExtensionDocuments)

	body := `{"query": "{ _schemaDefinition(configuration: \"reviews\") { name document extensionDocuments } missing: _schemaDefinition(configuration: \"unknown\") { name } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			SchemaDefinition struct {
				Name               string   `json:"name"`
				Document           string   `json:"document"`
				ExtensionDocuments []string `json:"extensionDocuments"`
			} `json:"_schemaDefinition"`
			Missing *json.RawMessage `json:"missing"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, def.Name, resp.Data.SchemaDefinition.Name)
	assert.Equal(t, def.Document, resp.Data.SchemaDefinition.Document)
	assert.Equal(t, def.ExtensionDocuments, resp.Data.SchemaDefinition.ExtensionDocuments)
	assert.Nil(t, resp.Data.Missing)
}

func TestStartAnnouncement(t *testing.T) {
	ns, err := natsd.NewServer(&natsd.Options{Port: -1, JetStream: true, StoreDir: t.TempDir()})
	require.NoError(t, err)
	go ns.Start()
	t.Cleanup(ns.Shutdown)
	require.True(t, ns.ReadyForConnections(10*time.Second))

	cfg := loadConfig(t, "-announce", "-mirror", "-nats-url", ns.ClientURL(), "-announce-format", "avro")
	srv, def, err := newServer(cfg)
	require.NoError(t, err)

	require.NoError(t, srv.setupNATS())
	t.Cleanup(srv.nc.Close)

	srv.startAnnouncement(def)
	require.NotNil(t, srv.mirror)
	t.Cleanup(srv.mirror.Stop)

	codec, err := formats.Codec("avro")
	require.NoError(t, err)
	got, err := announce.NewPublisher(srv.kvAnnounce, codec).Fetch("reviews")
	require.NoError(t, err)
	assert.Equal(t, def, got)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.mirror.WaitReady(ctx))

	other := def
	other.Name = "accounts"
	other.ExtensionDocuments = []string{"extend type User { id: ID! }"}
	_, err = announce.NewPublisher(srv.kvAnnounce, codec).Publish(other)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mirrored, ok := srv.registry.Lookup("accounts")
		return ok && mirrored.ExtensionDocuments[0] == other.ExtensionDocuments[0]
	}, 5*time.Second, 20*time.Millisecond)
}

func startTestServer(t *testing.T, jetStream bool, storeDir string) *natsd.Server {
	t.Helper()
	ns, err := natsd.NewServer(&natsd.Options{Port: -1, JetStream: jetStream, StoreDir: storeDir})
	require.NoError(t, err)
	go ns.Start()
	require.True(t, ns.ReadyForConnections(10*time.Second))
	return ns
}

func TestAnnouncementBucket(t *testing.T) {
	t.Run("Creates Then Binds", func(t *testing.T) {
		ns := startTestServer(t, true, t.TempDir())
		t.Cleanup(ns.Shutdown)
		nc, err := nats.Connect(ns.ClientURL())
		require.NoError(t, err)
		t.Cleanup(nc.Close)
		js, err := nc.JetStream()
		require.NoError(t, err)

		created, err := announcementBucket(js, "SUBGRAPHS", 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "SUBGRAPHS", created.Bucket())

		_, err = created.Put("reviews", []byte("{}"))
		require.NoError(t, err)

		bound, err := announcementBucket(js, "SUBGRAPHS", 3, time.Millisecond)
		require.NoError(t, err)
		entry, err := bound.Get("reviews")
		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), entry.Value())
	})

	t.Run("Gives Up Without JetStream", func(t *testing.T) {
		ns := startTestServer(t, false, "")
		t.Cleanup(ns.Shutdown)
		nc, err := nats.Connect(ns.ClientURL(), nats.Timeout(time.Second))
		require.NoError(t, err)
		t.Cleanup(nc.Close)
		js, err := nc.JetStream(nats.MaxWait(200 * time.Millisecond))
		require.NoError(t, err)

		_, err = announcementBucket(js, "SUBGRAPHS", 2, time.Millisecond)
		assert.ErrorContains(t, err, "SUBGRAPHS")
	})
}

func TestStopEmbeddedNATS_RemovesStore(t *testing.T) {
	storeDir, err := os.MkdirTemp("", "nats-data-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(storeDir) })

	srv := &server{natsServer: startTestServer(t, true, storeDir), natsStoreDir: storeDir}
	require.DirExists(t, storeDir)

	srv.stopEmbeddedNATS()

	assert.NoDirExists(t, storeDir)
	assert.Nil(t, srv.natsServer)

	// Second call is a no-op.
	srv.stopEmbeddedNATS()
}

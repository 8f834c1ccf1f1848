package main

import (
	"flag"
	"os"

	"reviewsubgraph/internal/rest"

	"github.com/nats-io/nats.go"
)

type config struct {
	HTTPAddr       string
	GraphQLPath    string
	SchemaName     string
	Announce       bool
	Mirror         bool
	NATSURL        string
	AnnounceBucket string
	AnnounceFormat string
	Debug          bool
	TestMode       bool
}

func (c *config) load(fs *flag.FlagSet) {
	fs.StringVar(&c.HTTPAddr, "http-addr", getEnv("HTTP_ADDR", ":5054"), "HTTP server address")
	fs.StringVar(&c.GraphQLPath, "graphql-path", getEnv("GRAPHQL_PATH", rest.DefaultGraphQLPath), "Path GraphQL operations are served on")
	fs.StringVar(&c.SchemaName, "schema-name", getEnv("SCHEMA_NAME", "reviews"), "Name the subgraph schema is registered under")
	fs.BoolVar(&c.Announce, "announce", getEnvBool("ANNOUNCE", false), "Publish the schema definition to a JetStream KV bucket")
	fs.BoolVar(&c.Mirror, "mirror", getEnvBool("MIRROR", false), "Register definitions announced by other subgraphs")
	fs.StringVar(&c.NATSURL, "nats-url", getEnv("NATS_URL", nats.DefaultURL), "NATS server URL")
	fs.StringVar(&c.AnnounceBucket, "announce-bucket", getEnv("ANNOUNCE_BUCKET", "SUBGRAPHS"), "JetStream KV bucket for schema announcements")
	fs.StringVar(&c.AnnounceFormat, "announce-format", getEnv("ANNOUNCE_FORMAT", "json"), "Announcement encoding: json, avro or protobuf")
	fs.BoolVar(&c.Debug, "debug", getEnvBool("DEBUG", false), "Enable debug logging")
	fs.BoolVar(&c.TestMode, "test", getEnvBool("TEST_MODE", false), "Enable test mode with embedded NATS server")
}

func (c *config) usesNATS() bool {
	return c.Announce || c.Mirror
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1" || v == "yes"
	}
	return def
}

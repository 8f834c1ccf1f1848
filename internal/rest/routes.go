package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"reviewsubgraph/internal/graph"
	"reviewsubgraph/internal/metrics"
	gqlformat "reviewsubgraph/internal/schema/formats/graphql"
	"reviewsubgraph/internal/schema/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultGraphQLPath is where GraphQL operations are accepted
const DefaultGraphQLPath = "/graphql"

const requestIDHeader = "X-Request-ID"

const graphQLRequestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "minLength": 1},
    "operationName": {"type": ["string", "null"]},
    "variables": {"type": ["object", "null"]}
  }
}`

var graphQLRequestValidator = jsonschema.MustCompileString("graphql-request.json", graphQLRequestSchema)

// SchemaLookup is the read side of the schema registry
type SchemaLookup interface {
	Lookup(name string) (types.SchemaDefinition, bool)
}

// GraphQLRequest is the body of a GraphQL-over-HTTP POST
type GraphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// ErrorResponse represents an error message
type ErrorResponse struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status string `json:"status"`
}

// Handler serves the subgraph over HTTP
type Handler struct {
	executor *graph.Executor
	schemas  SchemaLookup
	metrics  *metrics.Collector
	path     string
}

// NewHandler creates the HTTP handler. An empty path uses DefaultGraphQLPath.
func NewHandler(executor *graph.Executor, schemas SchemaLookup, collector *metrics.Collector, path string) *Handler {
	if path == "" {
		path = DefaultGraphQLPath
	}
	return &Handler{
		executor: executor,
		schemas:  schemas,
		metrics:  collector,
		path:     path,
	}
}

// SetupRouter creates and configures a Gin router with all subgraph routes
func (h *Handler) SetupRouter() *gin.Engine {
	// Set Gin to release mode in production
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog())
	r.Use(h.metrics.Middleware())

	r.POST(h.path, h.postGraphQL)
	r.GET(h.path, h.getGraphQL)

	r.GET("/schemas/:name", h.getSchemaDefinition)
	r.GET("/healthz", health)
	r.GET("/metrics", h.metrics.Handler())

	return r
}

// Routes returns the router as an http.Handler
func (h *Handler) Routes() http.Handler {
	return h.SetupRouter()
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Handled request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
		)
	}
}

func (h *Handler) postGraphQL(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorCode: 40001,
			Message:   "failed to read request body",
		})
		return
	}

	req, err := decodeGraphQLRequest(body)
	if err != nil {
		slog.Debug("Rejected GraphQL request", "error", err, "request_id", c.GetString("request_id"))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorCode: 42201,
			Message:   err.Error(),
		})
		return
	}

	h.execute(c, req)
}

func (h *Handler) getGraphQL(c *gin.Context) {
	req := GraphQLRequest{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorCode: 42201,
			Message:   "missing query parameter",
		})
		return
	}

	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				ErrorCode: 42201,
				Message:   "invalid variables",
			})
			return
		}
	}

	h.execute(c, req)
}

func decodeGraphQLRequest(body []byte) (GraphQLRequest, error) {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return GraphQLRequest{}, fmt.Errorf("invalid JSON")
	}
	if err := graphQLRequestValidator.Validate(raw); err != nil {
		return GraphQLRequest{}, fmt.Errorf("invalid GraphQL request: %w", err)
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return GraphQLRequest{}, fmt.Errorf("invalid JSON")
	}
	return req, nil
}

func (h *Handler) execute(c *gin.Context, req GraphQLRequest) {
	resp := h.executor.Exec(c.Request.Context(), req.Query, req.OperationName, req.Variables)

	if fields, err := gqlformat.RootFields(req.Query, req.OperationName); err == nil {
		h.metrics.ObserveFields(fields, len(resp.Errors) > 0)
	}
	if len(resp.Errors) > 0 {
		slog.Debug("GraphQL operation returned errors",
			"operation", req.OperationName,
			"errors", len(resp.Errors),
			"request_id", c.GetString("request_id"),
		)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getSchemaDefinition(c *gin.Context) {
	name := c.Param("name")

	def, ok := h.schemas.Lookup(name)
	h.metrics.ObserveSchemaLookup(ok)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			ErrorCode: 40401,
			Message:   "schema not found",
		})
		return
	}

	if def.ExtensionDocuments == nil {
		def.ExtensionDocuments = []string{}
	}
	c.JSON(http.StatusOK, def)
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

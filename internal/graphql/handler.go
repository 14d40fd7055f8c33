package graphql

import (
	"net/http"

	graphqlgo "github.com/graph-gophers/graphql-go"
	gqlrelay "github.com/graph-gophers/graphql-go/relay"

	"github.com/assembly-hq/assembly/internal/observability"
)

const defaultMaxDepth = 12

// HandlerConfig groups what the GraphQL endpoint needs besides the schema
// itself. Metrics and Snapshots are optional; a nil value disables that sink.
type HandlerConfig struct {
	Services  Services
	Metrics   *observability.Metrics
	Snapshots *observability.SnapshotRing
	// MaxDepth bounds query nesting. Zero means defaultMaxDepth.
	MaxDepth int
}

// ParseSchema compiles the SDL against the root resolver. Schema errors are
// programming mistakes, so callers typically wrap this in a start-up check.
func ParseSchema(cfg HandlerConfig) (*graphqlgo.Schema, error) {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	opts := []graphqlgo.SchemaOpt{
		graphqlgo.MaxDepth(maxDepth),
		graphqlgo.Tracer(&opsTracer{metrics: cfg.Metrics, snapshots: cfg.Snapshots}),
	}
	return graphqlgo.ParseSchema(Schema, NewResolver(cfg.Services), opts...)
}

// NewHandler wraps the schema in the standard POST transport. Authentication
// happens upstream in the router middleware; by the time a request lands here
// the principal, if any, is already in the context.
func NewHandler(schema *graphqlgo.Schema) http.Handler {
	return &gqlrelay.Handler{Schema: schema}
}

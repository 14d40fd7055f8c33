package graphql

import (
	"github.com/google/uuid"
	graphqlgo "github.com/graph-gophers/graphql-go"

	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/relay"
)

// connectionArgs is the shared argument set of every connection field.
type connectionArgs struct {
	First  *int32
	After  *string
	Last   *int32
	Before *string
}

func (a connectionArgs) pageArgs() relay.PageArgs {
	return relay.PageArgs{First: a.First, After: a.After, Last: a.Last, Before: a.Before}
}

// connectionResolver adapts a relay.Connection to the GraphQL connection
// shape. One generic implementation backs every *Connection type in the
// schema; wrap converts a domain row to its field resolver.
type connectionResolver[T any, R any] struct {
	conn *relay.Connection[T]
	wrap func(T) R
}

func newConnection[T any, R any](conn *relay.Connection[T], wrap func(T) R) *connectionResolver[T, R] {
	return &connectionResolver[T, R]{conn: conn, wrap: wrap}
}

func (r *connectionResolver[T, R]) Edges() []*edgeResolver[T, R] {
	out := make([]*edgeResolver[T, R], 0, len(r.conn.Edges))
	for _, e := range r.conn.Edges {
		out = append(out, &edgeResolver[T, R]{edge: e, wrap: r.wrap})
	}
	return out
}

func (r *connectionResolver[T, R]) PageInfo() *pageInfoResolver {
	return &pageInfoResolver{info: r.conn.PageInfo}
}

type edgeResolver[T any, R any] struct {
	edge relay.Edge[T]
	wrap func(T) R
}

func (e *edgeResolver[T, R]) Node() R        { return e.wrap(e.edge.Node) }
func (e *edgeResolver[T, R]) Cursor() string { return e.edge.Cursor }

type pageInfoResolver struct {
	info relay.PageInfo
}

func (p *pageInfoResolver) HasNextPage() bool     { return p.info.HasNextPage }
func (p *pageInfoResolver) HasPreviousPage() bool { return p.info.HasPreviousPage }
func (p *pageInfoResolver) StartCursor() *string  { return p.info.StartCursor }
func (p *pageInfoResolver) EndCursor() *string    { return p.info.EndCursor }

// parseID converts a GraphQL ID argument to a UUID, mapping failures to
// the invalid-arguments code with the argument's path.
func parseID(id graphqlgo.ID, path ...string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(string(id))
	if err != nil {
		return uuid.Nil, gqlerr.InvalidArgument("Not a valid id.", path...)
	}
	return parsed, nil
}

func parseOptionalID(id *graphqlgo.ID, path ...string) (*uuid.UUID, error) {
	if id == nil {
		return nil, nil
	}
	parsed, err := parseID(*id, path...)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

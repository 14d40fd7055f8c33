package relay

import (
	"context"
	"errors"
	"fmt"
)

// MaxLimit caps the page size a client can request in either direction.
const MaxLimit = 100

var (
	// ErrCursorNotFound is returned when a supplied cursor no longer matches
	// any row, i.e. the row it pointed at was deleted since it was issued.
	ErrCursorNotFound = errors.New("relay: cursor position no longer exists")
	// ErrInvalidLimit is returned for a missing, negative or oversized
	// first/last value.
	ErrInvalidLimit = errors.New("relay: invalid pagination limit")
	// ErrConflictingArguments is returned when both direction pairs are
	// supplied at once.
	ErrConflictingArguments = errors.New("relay: cannot paginate forward and backward at once")
)

// Direction identifies which argument pair drives a pagination call.
type Direction int8

const (
	Forward Direction = iota
	Backward
)

// CursorArgument names the cursor argument for the direction, for error
// argumentPath reporting.
func (d Direction) CursorArgument() string {
	if d == Backward {
		return "before"
	}
	return "after"
}

// LimitArgument names the limit argument for the direction.
func (d Direction) LimitArgument() string {
	if d == Backward {
		return "last"
	}
	return "first"
}

// ArgError ties a pagination failure to the GraphQL argument that caused it.
type ArgError struct {
	Arg string
	Err error
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("argument %q: %v", e.Arg, e.Err)
}

func (e *ArgError) Unwrap() error { return e.Err }

// PageArgs carries the relay connection arguments of a field.
type PageArgs struct {
	First  *int32
	After  *string
	Last   *int32
	Before *string
}

// Resolve validates the argument pairs and returns the traversal direction,
// the page limit and the raw cursor, if one was supplied.
func (a PageArgs) Resolve() (Direction, int32, *string, error) {
	forward := a.First != nil || a.After != nil
	backward := a.Last != nil || a.Before != nil
	if forward && backward {
		arg := "last"
		if a.Last == nil {
			arg = "before"
		}
		return Forward, 0, nil, &ArgError{Arg: arg, Err: ErrConflictingArguments}
	}
	if backward {
		if a.Last == nil || *a.Last < 0 || *a.Last > MaxLimit {
			return Backward, 0, nil, &ArgError{Arg: "last", Err: ErrInvalidLimit}
		}
		return Backward, *a.Last, a.Before, nil
	}
	if a.First == nil || *a.First < 0 || *a.First > MaxLimit {
		return Forward, 0, nil, &ArgError{Arg: "first", Err: ErrInvalidLimit}
	}
	return Forward, *a.First, a.After, nil
}

// Edge pairs a node with the cursor that resumes after it.
type Edge[T any] struct {
	Node   T
	Cursor string
}

// PageInfo reports whether rows exist beyond the returned slice.
type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
	StartCursor     *string
	EndCursor       *string
}

// Connection is a relay-style page of results in canonical sort order.
type Connection[T any] struct {
	Edges    []Edge[T]
	PageInfo PageInfo
}

// FetchFunc loads up to limit rows strictly beyond the cursor key in the
// field's declared sort order. When inverted is true the comparison and the
// ordering are reversed; the paginator restores canonical order afterwards.
// A nil cursor starts from the relevant end of the set.
type FetchFunc[T, K any] func(ctx context.Context, limit int32, cursor *K, inverted bool) ([]T, error)

// Paginate drives one connection field resolution: it validates the
// arguments, decodes the cursor, over-fetches by one row to learn whether
// more data exists, and maps the slice to edges whose cursors are the
// encoded sort keys of their nodes.
//
// A supplied cursor that yields zero rows means the position it referenced
// is gone; that surfaces as ErrCursorNotFound tied to the cursor argument,
// not as an empty connection. Without a cursor an empty result is a normal
// empty connection.
func Paginate[T, K any](ctx context.Context, args PageArgs, fetch FetchFunc[T, K], sortKey func(T) K) (*Connection[T], error) {
	dir, limit, rawCursor, err := args.Resolve()
	if err != nil {
		return nil, err
	}

	var cursor *K
	if rawCursor != nil {
		key, err := DecodeCursor[K](*rawCursor)
		if err != nil {
			return nil, &ArgError{Arg: dir.CursorArgument(), Err: err}
		}
		cursor = &key
	}

	inverted := dir == Backward
	rows, err := fetch(ctx, limit+1, cursor, inverted)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 && cursor != nil {
		return nil, &ArgError{Arg: dir.CursorArgument(), Err: ErrCursorNotFound}
	}

	hasMore := int32(len(rows)) > limit
	if hasMore {
		rows = rows[:limit]
	}
	if inverted {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	conn := &Connection[T]{Edges: make([]Edge[T], len(rows))}
	for i, row := range rows {
		conn.Edges[i] = Edge[T]{Node: row, Cursor: EncodeCursor(sortKey(row))}
	}
	if inverted {
		conn.PageInfo.HasPreviousPage = hasMore
		conn.PageInfo.HasNextPage = rawCursor != nil
	} else {
		conn.PageInfo.HasNextPage = hasMore
		conn.PageInfo.HasPreviousPage = rawCursor != nil
	}
	if len(conn.Edges) > 0 {
		conn.PageInfo.StartCursor = &conn.Edges[0].Cursor
		conn.PageInfo.EndCursor = &conn.Edges[len(conn.Edges)-1].Cursor
	}
	return conn, nil
}

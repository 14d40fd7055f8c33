// Package relay implements the opaque-cursor connection protocol used by
// every paginated GraphQL field: a base64url cursor wrapping the sort key of
// the last seen edge, and a paginator that turns a keyset query into a
// relay connection in either direction.
package relay

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidCursor is returned when a cursor cannot be decoded into the
// field's sort key. Decoding fails closed: any base64, JSON or shape error
// rejects the whole cursor rather than yielding a partial key.
var ErrInvalidCursor = errors.New("relay: not a valid cursor")

// EncodeCursor serializes a sort key into an opaque cursor.
//
// Cursors are deliberately unsigned. They are resume points inside a query
// that the resolver has already authorization-scoped, not capability tokens;
// a forged but well-formed cursor can only reposition within rows the query
// would have returned anyway. Resolvers must run the access gate before
// building the base query for this to hold.
func EncodeCursor(key any) string {
	data, err := json.Marshal(key)
	if err != nil {
		// Sort keys are plain structs of strings, times and ids; marshal
		// cannot fail for any key the paginator produces.
		panic(fmt.Sprintf("relay: encode cursor: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses an opaque cursor back into the sort key type K. Only a
// single JSON object with exactly K's fields is accepted.
func DecodeCursor[K any](cursor string) (K, error) {
	var key K
	if cursor == "" {
		return key, ErrInvalidCursor
	}
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		// Tolerate padded input from older clients.
		data, err = base64.URLEncoding.DecodeString(cursor)
		if err != nil {
			return key, ErrInvalidCursor
		}
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return key, ErrInvalidCursor
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&key); err != nil {
		return key, ErrInvalidCursor
	}
	if dec.More() {
		return key, ErrInvalidCursor
	}
	return key, nil
}

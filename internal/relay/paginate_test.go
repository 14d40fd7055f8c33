package relay

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string
}

// sliceFetcher implements keyset pagination over an in-memory, name-sorted
// slice, the way the repositories do it in SQL.
func sliceFetcher(items []item) FetchFunc[item, nameKey] {
	sorted := make([]item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return func(_ context.Context, limit int32, cursor *nameKey, inverted bool) ([]item, error) {
		working := make([]item, len(sorted))
		copy(working, sorted)
		if inverted {
			for i, j := 0, len(working)-1; i < j; i, j = i+1, j-1 {
				working[i], working[j] = working[j], working[i]
			}
		}
		var out []item
		for _, it := range working {
			if cursor != nil {
				if !inverted && it.Name <= cursor.Name {
					continue
				}
				if inverted && it.Name >= cursor.Name {
					continue
				}
			}
			out = append(out, it)
			if int32(len(out)) == limit {
				break
			}
		}
		return out, nil
	}
}

func names(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{Name: fmt.Sprintf("item-%02d", i)}
	}
	return out
}

func int32p(v int32) *int32 { return &v }

func strp(s string) *string { return &s }

func TestPaginateExactPageHasNoNext(t *testing.T) {
	conn, err := Paginate(context.Background(), PageArgs{First: int32p(4)}, sliceFetcher(names(4)), func(it item) nameKey {
		return nameKey{Name: it.Name}
	})
	require.NoError(t, err)
	assert.Len(t, conn.Edges, 4)
	assert.False(t, conn.PageInfo.HasNextPage)
	assert.False(t, conn.PageInfo.HasPreviousPage)
}

func TestPaginateOverfullPageHasNext(t *testing.T) {
	conn, err := Paginate(context.Background(), PageArgs{First: int32p(4)}, sliceFetcher(names(5)), func(it item) nameKey {
		return nameKey{Name: it.Name}
	})
	require.NoError(t, err)
	assert.Len(t, conn.Edges, 4)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.Equal(t, "item-00", conn.Edges[0].Node.Name)
	require.NotNil(t, conn.PageInfo.StartCursor)
	assert.Equal(t, conn.Edges[0].Cursor, *conn.PageInfo.StartCursor)
	require.NotNil(t, conn.PageInfo.EndCursor)
	assert.Equal(t, conn.Edges[3].Cursor, *conn.PageInfo.EndCursor)
}

func TestPaginateResumeFromEdgeCursor(t *testing.T) {
	fetch := sliceFetcher(names(5))
	key := func(it item) nameKey { return nameKey{Name: it.Name} }

	first, err := Paginate(context.Background(), PageArgs{First: int32p(3)}, fetch, key)
	require.NoError(t, err)
	require.Len(t, first.Edges, 3)
	require.True(t, first.PageInfo.HasNextPage)

	rest, err := Paginate(context.Background(), PageArgs{
		First: int32p(3),
		After: strp(first.Edges[2].Cursor),
	}, fetch, key)
	require.NoError(t, err)
	assert.Len(t, rest.Edges, 2)
	assert.False(t, rest.PageInfo.HasNextPage)
	assert.True(t, rest.PageInfo.HasPreviousPage)
	assert.Equal(t, "item-03", rest.Edges[0].Node.Name)
	assert.Equal(t, "item-04", rest.Edges[1].Node.Name)
}

func TestPaginateBackwardRestoresCanonicalOrder(t *testing.T) {
	conn, err := Paginate(context.Background(), PageArgs{Last: int32p(2)}, sliceFetcher(names(5)), func(it item) nameKey {
		return nameKey{Name: it.Name}
	})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 2)
	assert.Equal(t, "item-03", conn.Edges[0].Node.Name)
	assert.Equal(t, "item-04", conn.Edges[1].Node.Name)
	assert.True(t, conn.PageInfo.HasPreviousPage)
	assert.False(t, conn.PageInfo.HasNextPage)
}

func TestPaginateBackwardBeforeCursor(t *testing.T) {
	fetch := sliceFetcher(names(5))
	key := func(it item) nameKey { return nameKey{Name: it.Name} }

	conn, err := Paginate(context.Background(), PageArgs{
		Last:   int32p(2),
		Before: strp(EncodeCursor(nameKey{Name: "item-03"})),
	}, fetch, key)
	require.NoError(t, err)
	require.Len(t, conn.Edges, 2)
	assert.Equal(t, "item-01", conn.Edges[0].Node.Name)
	assert.Equal(t, "item-02", conn.Edges[1].Node.Name)
	assert.True(t, conn.PageInfo.HasPreviousPage)
	assert.True(t, conn.PageInfo.HasNextPage)
}

func TestPaginateStaleCursor(t *testing.T) {
	// The cursor points past every remaining row, as if the referenced row
	// and everything after it were deleted.
	fetch := sliceFetcher(names(3))
	key := func(it item) nameKey { return nameKey{Name: it.Name} }

	_, err := Paginate(context.Background(), PageArgs{
		First: int32p(2),
		After: strp(EncodeCursor(nameKey{Name: "item-99"})),
	}, fetch, key)
	var argErr *ArgError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "after", argErr.Arg)
	assert.ErrorIs(t, err, ErrCursorNotFound)

	_, err = Paginate(context.Background(), PageArgs{
		Last:   int32p(2),
		Before: strp(EncodeCursor(nameKey{Name: "item-00"})),
	}, fetch, key)
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "before", argErr.Arg)
	assert.ErrorIs(t, err, ErrCursorNotFound)
}

func TestPaginateEmptySetWithoutCursor(t *testing.T) {
	conn, err := Paginate(context.Background(), PageArgs{First: int32p(10)}, sliceFetcher(nil), func(it item) nameKey {
		return nameKey{Name: it.Name}
	})
	require.NoError(t, err)
	assert.Empty(t, conn.Edges)
	assert.False(t, conn.PageInfo.HasNextPage)
	assert.Nil(t, conn.PageInfo.StartCursor)
}

func TestPaginateMalformedCursor(t *testing.T) {
	_, err := Paginate(context.Background(), PageArgs{
		First: int32p(2),
		After: strp("not-a-cursor"),
	}, sliceFetcher(names(3)), func(it item) nameKey { return nameKey{Name: it.Name} })
	var argErr *ArgError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "after", argErr.Arg)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestPageArgsResolve(t *testing.T) {
	tests := []struct {
		name    string
		args    PageArgs
		wantErr error
		wantArg string
	}{
		{"negative first", PageArgs{First: int32p(-1)}, ErrInvalidLimit, "first"},
		{"negative last", PageArgs{Last: int32p(-3)}, ErrInvalidLimit, "last"},
		{"oversized first", PageArgs{First: int32p(MaxLimit + 1)}, ErrInvalidLimit, "first"},
		{"no limit at all", PageArgs{}, ErrInvalidLimit, "first"},
		{"after without first", PageArgs{After: strp("abc")}, ErrInvalidLimit, "first"},
		{"before without last", PageArgs{Before: strp("abc")}, ErrInvalidLimit, "last"},
		{"first with last", PageArgs{First: int32p(1), Last: int32p(1)}, ErrConflictingArguments, "last"},
		{"first with before", PageArgs{First: int32p(1), Before: strp("abc")}, ErrConflictingArguments, "before"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := tt.args.Resolve()
			var argErr *ArgError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.wantArg, argErr.Arg)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}

	dir, limit, cursor, err := PageArgs{First: int32p(7)}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Forward, dir)
	assert.Equal(t, int32(7), limit)
	assert.Nil(t, cursor)

	dir, limit, _, err = PageArgs{Last: int32p(0)}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Backward, dir)
	assert.Equal(t, int32(0), limit)
}

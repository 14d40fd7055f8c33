package graphql

import (
	"context"
	"sync/atomic"
	"time"

	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/graph-gophers/graphql-go/introspection"

	"github.com/assembly-hq/assembly/internal/observability"
)

type traceKey struct{}

type queryTrace struct {
	fields atomic.Int64
}

// opsTracer reports per-field latency to Prometheus and records one snapshot
// per completed request in the ring that backs the runtime summary endpoint.
type opsTracer struct {
	metrics   *observability.Metrics
	snapshots *observability.SnapshotRing
}

func (t *opsTracer) TraceQuery(ctx context.Context, queryString, operationName string, variables map[string]interface{}, varTypes map[string]*introspection.Type) (context.Context, func([]*gqlerrors.QueryError)) {
	qt := &queryTrace{}
	ctx = context.WithValue(ctx, traceKey{}, qt)
	start := time.Now()
	op := operationName
	if op == "" {
		op = "(anonymous)"
	}
	return ctx, func([]*gqlerrors.QueryError) {
		if t.snapshots == nil {
			return
		}
		t.snapshots.Record(observability.Snapshot{
			Operation:  op,
			Duration:   time.Since(start),
			FieldCount: int(qt.fields.Load()),
			At:         start,
		})
	}
}

func (t *opsTracer) TraceField(ctx context.Context, label, typeName, fieldName string, trivial bool, args map[string]interface{}) (context.Context, func(*gqlerrors.QueryError)) {
	if qt, ok := ctx.Value(traceKey{}).(*queryTrace); ok {
		qt.fields.Add(1)
	}
	if trivial || t.metrics == nil {
		return ctx, func(*gqlerrors.QueryError) {}
	}
	start := time.Now()
	return ctx, func(*gqlerrors.QueryError) {
		t.metrics.ObserveField(typeName, fieldName, time.Since(start))
	}
}

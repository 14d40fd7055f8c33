// Package overlay merges base entities that belong to a recurring series
// with sparse per-instance exception records. An exception either suppresses
// its base entity for one instance or overrides a subset of its fields;
// entities without an exception pass through untouched, and an exception can
// never introduce an entity that has no base.
package overlay

// Patch is one exception record targeting a base entity by id. A patch is
// either suppressing or an override; Apply is only called on non-suppressing
// patches and must leave every field it does not carry unchanged.
type Patch[T any] interface {
	TargetID() string
	Suppressed() bool
	Apply(T) T
}

// Result wraps an effective entity together with whether an exception
// matched it at all, including exceptions that changed nothing. The flag is
// informational; no downstream decision keys off it.
type Result[T any] struct {
	Entity        T
	FromException bool
}

// Merge produces the effective entities for one recurring instance. At most
// one patch per target id is honored; if duplicates slip in, the first one
// wins deterministically. Output preserves the order of base.
func Merge[T any, P Patch[T]](base []T, id func(T) string, patches []P) []Result[T] {
	byTarget := make(map[string]P, len(patches))
	for _, p := range patches {
		if _, dup := byTarget[p.TargetID()]; dup {
			continue
		}
		byTarget[p.TargetID()] = p
	}

	out := make([]Result[T], 0, len(base))
	for _, entity := range base {
		patch, ok := byTarget[id(entity)]
		if !ok {
			out = append(out, Result[T]{Entity: entity})
			continue
		}
		if patch.Suppressed() {
			continue
		}
		out = append(out, Result[T]{Entity: patch.Apply(entity), FromException: true})
	}
	return out
}

package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type task struct {
	ID        string
	Assignee  string
	Completed bool
	Notes     string
}

type taskPatch struct {
	Target    string
	Suppress  bool
	Completed *bool
	Assignee  *string
}

func (p taskPatch) TargetID() string { return p.Target }

func (p taskPatch) Suppressed() bool { return p.Suppress }

func (p taskPatch) Apply(t task) task {
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	return t
}

func boolP(v bool) *bool { return &v }

func strP(s string) *string { return &s }

func TestMergeNoExceptionsIsIdentity(t *testing.T) {
	base := []task{
		{ID: "a", Assignee: "alice", Notes: "setup"},
		{ID: "b", Assignee: "bob"},
	}
	out := Merge(base, func(t task) string { return t.ID }, []taskPatch(nil))
	require.Len(t, out, 2)
	for i, res := range out {
		assert.Equal(t, base[i], res.Entity)
		assert.False(t, res.FromException)
	}
}

func TestMergeSuppression(t *testing.T) {
	base := []task{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out := Merge(base, func(t task) string { return t.ID }, []taskPatch{
		{Target: "b", Suppress: true},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Entity.ID)
	assert.Equal(t, "c", out[1].Entity.ID)
}

func TestMergePartialOverride(t *testing.T) {
	base := []task{{ID: "a", Assignee: "alice", Completed: false, Notes: "bring chairs"}}
	out := Merge(base, func(t task) string { return t.ID }, []taskPatch{
		{Target: "a", Completed: boolP(true)},
	})
	require.Len(t, out, 1)
	assert.True(t, out[0].Entity.Completed)
	assert.Equal(t, "alice", out[0].Entity.Assignee, "unpatched fields inherit from base")
	assert.Equal(t, "bring chairs", out[0].Entity.Notes)
	assert.True(t, out[0].FromException)
}

func TestMergeEmptyOverrideStillTagged(t *testing.T) {
	base := []task{{ID: "a", Assignee: "alice"}}
	out := Merge(base, func(t task) string { return t.ID }, []taskPatch{
		{Target: "a"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, base[0], out[0].Entity)
	assert.True(t, out[0].FromException, "a matching patch tags the entity even when it changes nothing")
}

func TestMergeNeverFabricatesEntities(t *testing.T) {
	base := []task{{ID: "a"}}
	out := Merge(base, func(t task) string { return t.ID }, []taskPatch{
		{Target: "ghost", Assignee: strP("nobody")},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Entity.ID)
	assert.False(t, out[0].FromException)
}

func TestMergeDuplicatePatchFirstWins(t *testing.T) {
	base := []task{{ID: "a", Assignee: "alice"}}
	out := Merge(base, func(t task) string { return t.ID }, []taskPatch{
		{Target: "a", Assignee: strP("bob")},
		{Target: "a", Assignee: strP("carol")},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "bob", out[0].Entity.Assignee)
}

func TestMergePreservesBaseOrder(t *testing.T) {
	base := []task{{ID: "c"}, {ID: "a"}, {ID: "b"}}
	out := Merge(base, func(t task) string { return t.ID }, []taskPatch{
		{Target: "a", Completed: boolP(true)},
	})
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].Entity.ID)
	assert.Equal(t, "a", out[1].Entity.ID)
	assert.Equal(t, "b", out[2].Entity.ID)
}

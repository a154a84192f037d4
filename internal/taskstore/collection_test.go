package taskstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go-todo-client/internal/model"
)

func TestCollectionRestoreClampsIndex(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	c.Replace([]model.Task{{ID: 1}, {ID: 2}, {ID: 3}})

	removed, index, ok := c.Remove(3)
	require.True(t, ok)
	require.Equal(t, 2, index)

	_, _, ok = c.Remove(2)
	require.True(t, ok)

	c.Restore(index, removed)
	require.Equal(t, []model.Task{{ID: 1}, {ID: 3}}, c.Snapshot())
}

func TestCollectionRestoreOverwritesReappearedRecord(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	c.Replace([]model.Task{{ID: 1}, {ID: 2, Title: "new"}})

	c.Restore(0, model.Task{ID: 2, Title: "old"})
	require.Equal(t, []model.Task{{ID: 1}, {ID: 2, Title: "old"}}, c.Snapshot())
}

func TestCollectionSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	c.Append(model.Task{ID: 1, Title: "a"})

	snapshot := c.Snapshot()
	snapshot[0].Title = "changed"

	got, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "a", got.Title)
	require.False(t, c.Put(model.Task{ID: 9}))
}

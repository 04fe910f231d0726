package backend

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func TestMemoryProvider_CRUD(t *testing.T) {
	c := require.New(t)

	provider := NewMemoryProvider()
	ctx := context.Background()
	md := metadata.MD{}

	// Create assigns an ID when none is given.
	obj, err := provider.Create(ctx, md, Object{"name": "alice"})
	c.NoError(err)
	id, ok := obj["id"].(string)
	c.True(ok)
	c.NotEmpty(id)

	// FindByID returns the stored object.
	got, err := provider.FindByID(ctx, md, id)
	c.NoError(err)
	c.Equal("alice", got["name"])

	// Update merges fields but never the ID.
	updated, err := provider.Update(ctx, md, id, Object{"name": "bob", "id": "hijacked"})
	c.NoError(err)
	c.Equal("bob", updated["name"])
	c.Equal(id, updated["id"])

	// Count and Find respect the filter.
	_, err = provider.Create(ctx, md, Object{"name": "carol"})
	c.NoError(err)

	count, err := provider.Count(ctx, md, Filter{"name": "bob"})
	c.NoError(err)
	c.Equal(int64(1), count)

	items, err := provider.Find(ctx, md, Filter{"name": "bob"})
	c.NoError(err)
	c.Len(items, 1)
	c.Equal(id, items[0]["id"])

	// Unknown IDs yield ErrNotFound.
	_, err = provider.FindByID(ctx, md, "missing")
	c.ErrorIs(err, ErrNotFound)
}

func TestMemoryProvider_SoftDeleteLifecycle(t *testing.T) {
	c := require.New(t)

	provider := NewMemoryProvider()
	ctx := context.Background()
	md := metadata.MD{}

	obj, err := provider.Create(ctx, md, Object{"id": "s1", "name": "session"})
	c.NoError(err)
	c.Equal("s1", obj["id"])

	// Delete hides the object from reads.
	_, err = provider.Delete(ctx, md, "s1")
	c.NoError(err)
	_, err = provider.FindByID(ctx, md, "s1")
	c.ErrorIs(err, ErrNotFound)

	// Restore brings it back.
	restored, err := provider.Restore(ctx, md, "s1")
	c.NoError(err)
	c.Equal("session", restored["name"])
	_, err = provider.FindByID(ctx, md, "s1")
	c.NoError(err)

	// Destroy removes it for good; Restore can no longer help.
	_, err = provider.Destroy(ctx, md, "s1")
	c.NoError(err)
	_, err = provider.Restore(ctx, md, "s1")
	c.ErrorIs(err, ErrNotFound)
}

func TestMemoryProvider_UpdateBulk(t *testing.T) {
	c := require.New(t)

	provider := NewMemoryProvider()
	ctx := context.Background()
	md := metadata.MD{}

	for _, name := range []string{"a", "a", "b"} {
		_, err := provider.Create(ctx, md, Object{"group": name})
		c.NoError(err)
	}

	updated, err := provider.UpdateBulk(ctx, md, Filter{"group": "a"}, Object{"flag": "on"})
	c.NoError(err)
	c.Equal(int64(2), updated)

	items, err := provider.Find(ctx, md, Filter{"flag": "on"})
	c.NoError(err)
	c.Len(items, 2)
}

func TestMemoryProvider_Cursor(t *testing.T) {
	c := require.New(t)

	provider := NewMemoryProvider()
	md := metadata.MD{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cursor, err := provider.Cursor(ctx, md, nil)
	c.NoError(err)

	// Objects created after registration reach the cursor.
	_, err = provider.Create(ctx, md, Object{"id": "c1"})
	c.NoError(err)

	item, err := cursor.Recv()
	c.NoError(err)
	c.Equal("c1", item["id"])

	// Close ends the stream with io.EOF.
	c.NoError(cursor.Close())
	_, err = cursor.Recv()
	c.ErrorIs(err, io.EOF)
}

func TestMemoryProvider_Cursor_ContextCancel(t *testing.T) {
	c := require.New(t)

	provider := NewMemoryProvider()
	ctx, cancel := context.WithCancel(context.Background())

	cursor, err := provider.Cursor(ctx, metadata.MD{}, nil)
	c.NoError(err)

	cancel()

	// The cursor is torn down shortly after cancellation; Recv drains to
	// io.EOF instead of blocking forever.
	deadline := time.After(time.Second)
	for {
		_, err := cursor.Recv()
		if err == io.EOF {
			return
		}
		select {
		case <-deadline:
			t.Fatal("cursor was not torn down after context cancellation")
		default:
		}
	}
}

func TestRegistry(t *testing.T) {
	c := require.New(t)

	registry := NewRegistry()
	provider := NewMemoryProvider()

	registry.Register("identity.users", provider)

	got, ok := registry.Get("identity.users")
	c.True(ok)
	c.Same(provider, got.(*MemoryProvider))

	_, ok = registry.Get("identity.profiles")
	c.False(ok)
}

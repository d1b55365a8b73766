package presence

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandle struct{ name string }

func (s *stubHandle) Deliver([]byte) bool { return true }

func TestRegisterLookupUnregister(t *testing.T) {
	r := NewRegistry()
	u := uuid.New()
	h := &stubHandle{name: "h"}

	_, ok := r.Lookup(u)
	assert.False(t, ok)

	assert.True(t, r.Register(u, h))
	got, ok := r.Lookup(u)
	require.True(t, ok)
	assert.Same(t, h, got)

	assert.True(t, r.Unregister(u))
	_, ok = r.Lookup(u)
	assert.False(t, ok)
	assert.False(t, r.Unregister(u), "second unregister is a no-op")
}

func TestRegister_LastConnectionWins(t *testing.T) {
	r := NewRegistry()
	u := uuid.New()
	first, second := &stubHandle{name: "first"}, &stubHandle{name: "second"}

	assert.True(t, r.Register(u, first))
	assert.False(t, r.Register(u, second), "overwrite does not change the key set")

	got, ok := r.Lookup(u)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, r.Len())
}

func TestUnregisterHandle_IgnoresReplacedHandle(t *testing.T) {
	r := NewRegistry()
	u := uuid.New()
	old, current := &stubHandle{name: "old"}, &stubHandle{name: "current"}

	r.Register(u, old)
	r.Register(u, current)

	assert.False(t, r.UnregisterHandle(u, old))
	got, ok := r.Lookup(u)
	require.True(t, ok)
	assert.Same(t, current, got)

	assert.True(t, r.UnregisterHandle(u, current))
	_, ok = r.Lookup(u)
	assert.False(t, ok)
}

func TestOnlineAndHandles(t *testing.T) {
	r := NewRegistry()
	a, b := uuid.New(), uuid.New()
	r.Register(a, &stubHandle{})
	r.Register(b, &stubHandle{})

	assert.ElementsMatch(t, []uuid.UUID{a, b}, r.Online())
	assert.Len(t, r.Handles(), 2)

	r.Unregister(a)
	assert.Equal(t, []uuid.UUID{b}, r.Online())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := uuid.New()
			h := &stubHandle{}
			r.Register(u, h)
			r.Lookup(u)
			r.Online()
			r.UnregisterHandle(u, h)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}

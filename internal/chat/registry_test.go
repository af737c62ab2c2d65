package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterDistinctNames(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When two connections register distinct names
	req.NoError(registry.Register("alice", "c1"))
	req.NoError(registry.Register("bob", "c2"))

	// Then both resolve
	req.Equal(2, registry.Len())
	name, ok := registry.ResolveName("c1")
	req.True(ok)
	req.Equal("alice", name)
	conn, ok := registry.Lookup("bob")
	req.True(ok)
	req.Equal(ConnID("c2"), conn)
}

func TestRegistryRegisterNameTaken(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.NoError(registry.Register("alice", "c1"))

	// When another connection claims the same name
	err := registry.Register("alice", "c2")

	// Then it is rejected and the first holder keeps it
	req.ErrorIs(err, ErrNameTaken)
	conn, _ := registry.Lookup("alice")
	req.Equal(ConnID("c1"), conn)
	_, ok := registry.ResolveName("c2")
	req.False(ok)
}

func TestRegistryRegisterIsCaseSensitive(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.NoError(registry.Register("alice", "c1"))
	req.NoError(registry.Register("Alice", "c2"))
	req.Equal(2, registry.Len())
}

func TestRegistryRegisterSameNameTwiceIsNoop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.NoError(registry.Register("alice", "c1"))
	req.NoError(registry.Register("alice", "c1"))
	req.Equal(1, registry.Len())
}

func TestRegistryRegisterNewNameReleasesOld(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.NoError(registry.Register("alice", "c1"))

	// When the connection registers another name
	req.NoError(registry.Register("alicia", "c1"))

	// Then the old name is free again
	req.Equal(1, registry.Len())
	_, ok := registry.Lookup("alice")
	req.False(ok)
	req.NoError(registry.Register("alice", "c2"))
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.NoError(registry.Register("alice", "c1"))

	name, ok := registry.Unregister("c1")
	req.True(ok)
	req.Equal("alice", name)

	// Second call and unknown connections are silently ignored
	_, ok = registry.Unregister("c1")
	req.False(ok)
	_, ok = registry.Unregister("never-registered")
	req.False(ok)

	req.Zero(registry.Len())
	req.NoError(registry.Register("alice", "c2"))
}

func TestRegistryConcurrentRegisterSingleWinner(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	const attempts = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := ConnID(fmt.Sprintf("c%d", i))
			if err := registry.Register("alice", conn); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	req.Equal(1, winners)
	req.Equal(1, registry.Len())
}

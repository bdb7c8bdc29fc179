package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet(name string) string
}

type englishGreeter struct{}

func (englishGreeter) Greet(name string) string { return "hello " + name }

func TestRegistryLookupTyped(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register("greeter", englishGreeter{})
	reg.Register("counter", 42)

	g, ok := Lookup[greeter](reg, "greeter")
	require.True(t, ok)
	assert.Equal(t, "hello ada", g.Greet("ada"))

	_, ok = Lookup[greeter](reg, "counter")
	assert.False(t, ok, "wrong shape must not match")

	_, ok = Lookup[greeter](reg, "missing")
	assert.False(t, ok)

	_, ok = Lookup[greeter](nil, "greeter")
	assert.False(t, ok)
}

func TestRegistryLastWriterWins(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register("clock", "first")
	reg.Register("clock", "second")

	v, ok := Lookup[string](reg, "clock")
	require.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, []string{"clock"}, reg.Names())
}

func TestRegistryClear(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register("a", 1)
	reg.Register("b", 2)
	assert.Equal(t, []string{"a", "b"}, reg.Names())

	reg.Clear()
	assert.False(t, reg.IsRegistered("a"))
	assert.Empty(t, reg.Names())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Parallel()

	reg := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("svc-%d", i%4)
			reg.Register(name, i)
			_, _ = Lookup[int](reg, name)
			_ = reg.Names()
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.Names(), 4)
}

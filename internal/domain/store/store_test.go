package store

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateSingleFlight(t *testing.T) {
	s := New[int]()
	var calls atomic.Int32

	const goroutines = 32
	var wg sync.WaitGroup
	results := make([]int, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.GetOrCreate("k", func() int {
				return int(calls.Add(1))
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "factory must run exactly once per key")
	for _, r := range results {
		assert.Equal(t, 1, r)
	}
}

func TestUpdateMissingKey(t *testing.T) {
	s := New[int]()
	called := false
	ok := s.Update("absent", func(*int) { called = true })
	assert.False(t, ok)
	assert.False(t, called)
}

func TestUpdateMutatesSingleEntry(t *testing.T) {
	s := New[[]string]()
	s.Set("a", []string{"x"})
	s.Set("b", []string{"y"})

	ok := s.Update("a", func(v *[]string) { *v = append(*v, "z") })
	require.True(t, ok)

	a, _ := s.Get("a")
	b, _ := s.Get("b")
	assert.Equal(t, []string{"x", "z"}, a)
	assert.Equal(t, []string{"y"}, b)
}

func TestDeleteAndCount(t *testing.T) {
	s := New[string]()
	s.Set("a", "1")
	s.Set("b", "2")
	assert.Equal(t, 2, s.Count())

	v, ok := s.Delete("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, s.Count())

	_, ok = s.Delete("a")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"b"}, s.Keys())
	assert.ElementsMatch(t, []string{"2"}, s.Values())
}

func TestConcurrentUpdates(t *testing.T) {
	s := New[int]()
	s.Set("n", 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("n", func(v *int) { *v++ })
		}()
	}
	wg.Wait()

	n, _ := s.Get("n")
	assert.Equal(t, 100, n)
}

package pipecache

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestGetOrCreate(t *testing.T) {
	c := New[string, int](10, nil)
	created := 0

	val, err := c.GetOrCreate("key1", func() (int, error) {
		created++
		return 100, nil
	})
	if err != nil || val != 100 {
		t.Fatalf("GetOrCreate = %d, %v", val, err)
	}

	// Second call returns the cached value.
	val, err = c.GetOrCreate("key1", func() (int, error) {
		created++
		return 200, nil
	})
	if err != nil || val != 100 {
		t.Errorf("expected cached 100, got %d, %v", val, err)
	}
	if created != 1 {
		t.Errorf("expected create called once, got %d", created)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", s)
	}
	if s.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", s.HitRate)
	}
}

func TestGetOrCreateErrorCachesNothing(t *testing.T) {
	c := New[string, int](10, nil)
	boom := errors.New("boom")

	if _, err := c.GetOrCreate("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed create must not be cached, len = %d", c.Len())
	}
}

func TestEvictionOrder(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })

	for _, k := range []string{"a", "b"} {
		if _, err := c.GetOrCreate(k, func() (int, error) { return 0, nil }); err != nil {
			t.Fatal(err)
		}
	}
	// Touch "a" so "b" becomes least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing")
	}
	if _, err := c.GetOrCreate("c", func() (int, error) { return 0, nil }); err != nil {
		t.Fatal(err)
	}

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should be gone")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestDeleteRunsCallback(t *testing.T) {
	var got []int
	c := New[string, int](0, func(_ string, v int) { got = append(got, v) })
	_, _ = c.GetOrCreate("x", func() (int, error) { return 7, nil })

	if !c.Delete("x") {
		t.Error("Delete should report found")
	}
	if c.Delete("x") {
		t.Error("second Delete should report missing")
	}
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("callback values = %v", got)
	}
}

func TestDeleteFunc(t *testing.T) {
	c := New[int, string](0, nil)
	for i := range 6 {
		_, _ = c.GetOrCreate(i, func() (string, error) { return strconv.Itoa(i), nil })
	}

	removed := c.DeleteFunc(func(k int, _ string) bool { return k%2 == 0 })
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	for i := range 6 {
		_, ok := c.Get(i)
		if want := i%2 == 1; ok != want {
			t.Errorf("key %d present = %v, want %v", i, ok, want)
		}
	}
}

func TestClear(t *testing.T) {
	count := 0
	c := New[int, int](0, func(int, int) { count++ })
	for i := range 5 {
		_, _ = c.GetOrCreate(i, func() (int, error) { return i, nil })
	}
	c.Clear()
	if c.Len() != 0 || count != 5 {
		t.Errorf("after Clear len=%d callbacks=%d", c.Len(), count)
	}
	if c.Stats().Evictions != 5 {
		t.Errorf("Evictions = %d", c.Stats().Evictions)
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	c := New[int, int](0, nil)
	var (
		mu      sync.Mutex
		created = map[int]int{}
		wg      sync.WaitGroup
	)
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				_, _ = c.GetOrCreate(i, func() (int, error) {
					mu.Lock()
					created[i]++
					mu.Unlock()
					return i * g, nil
				})
			}
		}()
	}
	wg.Wait()

	for k, n := range created {
		if n != 1 {
			t.Errorf("key %d created %d times", k, n)
		}
	}
	if c.Len() != 50 {
		t.Errorf("Len = %d, want 50", c.Len())
	}
}

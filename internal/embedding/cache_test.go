package embedding

import (
	"context"
	"sync"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
}

func TestEmbeddingCache_GetRefreshesRecency(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a")
	c.Set("c", []float32{3}) // evicts b, not a
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive after being read")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
}

func TestEmbeddingCache_ConcurrentGet(t *testing.T) {
	c := NewEmbeddingCache(8)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, []float32{1})
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Get([]string{"a", "b", "c", "d"}[(i+j)%4])
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 4 {
		t.Errorf("Len=%d, want 4", c.Len())
	}
}

type countingEmbedder struct {
	*HashEmbedder
	mu    sync.Mutex
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.HashEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder_Embed(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(16)}
	e := NewCachedEmbedder(inner, 4)
	ctx := context.Background()

	first, err := e.Embed(ctx, "goroutines")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := e.Embed(ctx, "goroutines")
	if inner.calls != 1 {
		t.Errorf("expected one underlying call, got %d", inner.calls)
	}
	if dot(first, second) < 0.99 {
		t.Error("cached embedding differs from original")
	}
	if e.Model() != inner.Model() || e.Dimensions() != 16 {
		t.Errorf("wrapper should report inner model, got %s/%d", e.Model(), e.Dimensions())
	}
}

func TestNewCachedEmbedder_ZeroCapacity(t *testing.T) {
	inner := NewHashEmbedder(8)
	if got := NewCachedEmbedder(inner, 0); got != Embedder(inner) {
		t.Error("zero capacity should return the inner embedder")
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i] * b[i])
	}
	return sum
}

package queryworker

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// queryEmbedCache avoids re-embedding an identical query text seen earlier
// in this worker process's lifetime.
type queryEmbedCache struct {
	inner *lru.Cache[string, []float32]
}

func newQueryEmbedCache(size int) *queryEmbedCache {
	c, _ := lru.New[string, []float32](size)
	return &queryEmbedCache{inner: c}
}

func (c *queryEmbedCache) get(text string) ([]float32, bool) {
	return c.inner.Get(text)
}

func (c *queryEmbedCache) put(text string, vec []float32) {
	c.inner.Add(text, vec)
}

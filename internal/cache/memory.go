package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre patrickmn/go-cache.
// Útil para desarrollo y testing.
type memoryClient struct {
	prefix string
	data   *gocache.Cache

	// mu serializa Take: go-cache no tiene get-and-delete atómico.
	mu sync.Mutex
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string) *memoryClient {
	return &memoryClient{
		prefix: prefix,
		data:   gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (c *memoryClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := c.data.Get(c.key(key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	exp := ttl
	if ttl == 0 {
		exp = gocache.NoExpiration
	}
	c.data.Set(c.key(key), value, exp)
	return nil
}

func (c *memoryClient) Delete(ctx context.Context, key string) error {
	c.data.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Take(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.key(key)
	v, ok := c.data.Get(k)
	if !ok {
		return "", ErrNotFound
	}
	c.data.Delete(k)
	s, _ := v.(string)
	return s, nil
}

func (c *memoryClient) Ping(ctx context.Context) error { return nil }

func (c *memoryClient) Close() error {
	c.data.Flush()
	return nil
}

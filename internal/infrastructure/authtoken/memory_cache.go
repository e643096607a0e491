package authtoken

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process token cache for single-instance deployments.
type MemoryCache struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

// NewMemoryCache creates an empty in-memory token cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{tokens: make(map[string]*Token)}
}

// Get returns the cached token, dropping expired entries on read.
func (c *MemoryCache) Get(ctx context.Context, key string) (*Token, error) {
	c.mu.RLock()
	tok, ok := c.tokens[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(tok.ExpiresAt) {
		c.mu.Lock()
		delete(c.tokens, key)
		c.mu.Unlock()
		return nil, nil
	}
	copied := *tok
	return &copied, nil
}

// Put stores a token.
func (c *MemoryCache) Put(ctx context.Context, key string, token *Token) error {
	copied := *token
	c.mu.Lock()
	c.tokens[key] = &copied
	c.mu.Unlock()
	return nil
}

// Delete drops a cached token.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.tokens, key)
	c.mu.Unlock()
	return nil
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)

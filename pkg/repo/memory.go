package repo

import (
	"context"
	"time"

	"github.com/ksysoev/wikiview/pkg/prov"
	"github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// MemoryTokens keeps the access token in process memory.
type MemoryTokens struct {
	c *cache.Cache
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{
		c: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (m *MemoryTokens) Load(_ context.Context) (prov.Token, bool, error) {
	v, ok := m.c.Get(tokenKey)
	if !ok {
		return prov.Token{}, false, nil
	}

	tkn, ok := v.(prov.Token)

	return tkn, ok, nil
}

func (m *MemoryTokens) Save(_ context.Context, tkn prov.Token) error {
	ttl := time.Until(tkn.ExpiresAt)
	if ttl <= 0 {
		m.c.Delete(tokenKey)
		return nil
	}

	m.c.Set(tokenKey, tkn, ttl)

	return nil
}

func (m *MemoryTokens) Delete(_ context.Context) error {
	m.c.Delete(tokenKey)
	return nil
}

package prov

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// memStore is a TokenStore keeping the token in a struct field.
type memStore struct {
	err   error
	tkn   Token
	mu    sync.Mutex
	saved int
	has   bool
}

func (s *memStore) Load(_ context.Context) (Token, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return Token{}, false, s.err
	}

	return s.tkn, s.has, nil
}

func (s *memStore) Save(_ context.Context, tkn Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tkn = tkn
	s.has = true
	s.saved++

	return nil
}

func (s *memStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tkn = Token{}
	s.has = false

	return nil
}

func TestNew(t *testing.T) {
	cfg := Config{
		APIURL:     "https://example.com/open-apis/",
		AppID:      "app",
		AppSecret:  "secret",
		BaseID:     "base",
		TableID:    "table",
		Timeout:    5 * time.Second,
		MaxRetries: 5,
		TokenTTL:   10 * time.Minute,
	}

	f := New(cfg, &memStore{})

	assert.NotNil(t, f)
	assert.Equal(t, "https://example.com/open-apis", f.apiURL)
	assert.Equal(t, cfg.AppID, f.appID)
	assert.Equal(t, cfg.AppSecret, f.appSecret)
	assert.Equal(t, cfg.BaseID, f.baseID)
	assert.Equal(t, cfg.TableID, f.tableID)
	assert.Equal(t, cfg.Timeout, f.timeout)
	assert.Equal(t, cfg.MaxRetries, f.maxRetries)
	assert.Equal(t, cfg.TokenTTL, f.tokens.ttl)
	assert.NotNil(t, f.cl)
}

func TestNew_Defaults(t *testing.T) {
	f := New(Config{}, &memStore{})

	assert.Equal(t, defaultAPIURL, f.apiURL)
	assert.Equal(t, defaultTimeout, f.timeout)
	assert.Equal(t, defaultMaxRetries, f.maxRetries)
	assert.Equal(t, defaultTokenTTL, f.tokens.ttl)
}

func TestBearer(t *testing.T) {
	h := bearer("abc")

	assert.Equal(t, "Bearer abc", h.Get("Authorization"))
}

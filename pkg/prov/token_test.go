package prov

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestCache(store TokenStore, issue IssueFunc) (*TokenCache, *fakeClock) {
	clock := &fakeClock{now: time.Now()}
	c := NewTokenCache(store, time.Hour, issue)
	c.now = clock.Now

	return c, clock
}

func countingIssuer(calls *atomic.Int32) IssueFunc {
	return func(_ context.Context) (string, error) {
		n := calls.Add(1)
		return "token-" + string(rune('0'+n)), nil
	}
}

func TestTokenCache_Hit(t *testing.T) {
	var calls atomic.Int32

	store := &memStore{}
	c, clock := newTestCache(store, countingIssuer(&calls))

	first, err := c.Token(context.Background())
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)

	second, err := c.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-1", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, clock.Now().Add(time.Minute).Equal(store.tkn.ExpiresAt))
}

func TestTokenCache_Expired(t *testing.T) {
	var calls atomic.Int32

	c, clock := newTestCache(&memStore{}, countingIssuer(&calls))

	_, err := c.Token(context.Background())
	require.NoError(t, err)

	clock.Advance(time.Hour)

	tkn, err := c.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-2", tkn)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenCache_IssueFailure(t *testing.T) {
	store := &memStore{}
	fail := true

	c, _ := newTestCache(store, func(_ context.Context) (string, error) {
		if fail {
			return "", errors.New("auth down")
		}

		return "fresh", nil
	})

	tkn, err := c.Token(context.Background())

	assert.Empty(t, tkn)
	assert.EqualError(t, err, "failed to get access token: auth down")
	assert.False(t, store.has)

	fail = false

	tkn, err = c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tkn)
}

func TestTokenCache_Invalidate(t *testing.T) {
	var calls atomic.Int32

	store := &memStore{}
	c, _ := newTestCache(store, countingIssuer(&calls))

	_, err := c.Token(context.Background())
	require.NoError(t, err)

	c.Invalidate(context.Background())
	assert.False(t, store.has)

	tkn, err := c.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-2", tkn)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenCache_StoreLoadError(t *testing.T) {
	var calls atomic.Int32

	store := &memStore{err: errors.New("redis down")}
	c, _ := newTestCache(store, countingIssuer(&calls))

	tkn, err := c.Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "token-1", tkn)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenCache_ConcurrentMiss(t *testing.T) {
	var calls atomic.Int32

	c, _ := newTestCache(&memStore{}, func(_ context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)

		return "shared", nil
	})

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			tkn, err := c.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "shared", tkn)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenCache_CanceledCallerDoesNotFailOthers(t *testing.T) {
	var (
		calls   atomic.Int32
		once    sync.Once
		started = make(chan struct{})
		release = make(chan struct{})
	)

	c, _ := newTestCache(&memStore{}, func(ctx context.Context) (string, error) {
		calls.Add(1)
		once.Do(func() { close(started) })

		select {
		case <-release:
			return "shared", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)

	go func() {
		_, err := c.Token(firstCtx)
		firstErr <- err
	}()

	<-started

	type result struct {
		err error
		tkn string
	}

	second := make(chan result, 1)

	go func() {
		tkn, err := c.Token(context.Background())
		second <- result{tkn: tkn, err: err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	err := <-firstErr
	assert.ErrorIs(t, err, context.Canceled)

	close(release)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "shared", res.tkn)
	assert.Equal(t, int32(1), calls.Load())
}

func TestIssueToken(t *testing.T) {
	tests := []struct {
		serverResponse func(w http.ResponseWriter, r *http.Request)
		name           string
		expectedToken  string
		expectedError  string
	}{
		{
			name: "success",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/auth/v3/tenant_access_token/internal", r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"))

				var req issueTokenRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "app-id", req.AppID)
				assert.Equal(t, "app-secret", req.AppSecret)

				_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-123","expire":7200}`))
			},
			expectedToken: "t-123",
		},
		{
			name: "missing token",
			serverResponse: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"code":0,"msg":"ok"}`))
			},
			expectedError: "get tenant access token: response does not contain tenant_access_token",
		},
		{
			name: "invalid credentials",
			serverResponse: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"code":10003,"msg":"invalid param"}`))
			},
			expectedError: "get tenant access token: invalid param (code 10003)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			f := newTestClient(server.URL)

			tkn, err := f.issueToken(context.Background())

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Empty(t, tkn)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedToken, tkn)
		})
	}
}

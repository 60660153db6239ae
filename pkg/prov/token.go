package prov

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

const opIssueToken = "get tenant access token"

// Token is a cached tenant access token. ExpiresAt is an optimistic estimate computed from the
// moment the token was issued, not a lifetime reported by the server.
type Token struct {
	ExpiresAt time.Time `json:"expires_at"`
	Value     string    `json:"value"`
}

// TokenStore keeps the current access token. Implementations must be safe for concurrent use.
type TokenStore interface {
	Load(ctx context.Context) (Token, bool, error)
	Save(ctx context.Context, tkn Token) error
	Delete(ctx context.Context) error
}

// IssueFunc obtains a fresh access token from the authentication endpoint.
type IssueFunc func(ctx context.Context) (string, error)

// TokenCache hands out a bearer token, refreshing it through issue once the cached one is older
// than ttl. Concurrent refreshes are collapsed into a single call.
type TokenCache struct {
	store TokenStore
	issue IssueFunc
	now   func() time.Time
	group singleflight.Group
	ttl   time.Duration
}

// NewTokenCache creates a token cache backed by store.
func NewTokenCache(store TokenStore, ttl time.Duration, issue IssueFunc) *TokenCache {
	return &TokenCache{
		store: store,
		issue: issue,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Token returns the cached access token while it is still fresh, otherwise it requests a new one.
// The refresh shared by concurrent callers is detached from the caller that started it, so a
// canceled caller only abandons its own wait.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if tkn, ok := c.cached(ctx); ok {
		slog.DebugContext(ctx, "Using cached access token")
		return tkn.Value, nil
	}

	ch := c.group.DoChan("token", func() (any, error) {
		refreshCtx := context.WithoutCancel(ctx)

		if tkn, ok := c.cached(refreshCtx); ok {
			return tkn.Value, nil
		}

		return c.refresh(refreshCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}

		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("failed to get access token: %w", ctx.Err())
	}
}

// Invalidate drops the cached token so that the next call to Token requests a new one.
func (c *TokenCache) Invalidate(ctx context.Context) {
	if err := c.store.Delete(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to drop cached access token", slog.Any("error", err))
		return
	}

	slog.InfoContext(ctx, "Cached access token invalidated")
}

func (c *TokenCache) cached(ctx context.Context) (Token, bool) {
	tkn, ok, err := c.store.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load cached access token", slog.Any("error", err))
		return Token{}, false
	}

	if !ok || tkn.Value == "" || !c.now().Before(tkn.ExpiresAt) {
		return Token{}, false
	}

	return tkn, true
}

func (c *TokenCache) refresh(ctx context.Context) (string, error) {
	value, err := c.issue(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to obtain access token", slog.Any("error", err))
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	tkn := Token{
		Value:     value,
		ExpiresAt: c.now().Add(c.ttl),
	}

	if err := c.store.Save(ctx, tkn); err != nil {
		slog.WarnContext(ctx, "Failed to cache access token", slog.Any("error", err))
	}

	slog.InfoContext(ctx, "Obtained new access token", slog.Time("expires_at", tkn.ExpiresAt))

	return value, nil
}

type issueTokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

type issueTokenResponse struct {
	TenantAccessToken string `json:"tenant_access_token"`
}

// issueToken requests a tenant access token with the application credentials.
func (f *Feishu) issueToken(ctx context.Context) (string, error) {
	slog.InfoContext(ctx, "Requesting tenant access token", slog.String("app_id", f.appID))

	data, err := f.do(ctx, request{
		op:     opIssueToken,
		method: http.MethodPost,
		url:    f.apiURL + "/auth/v3/tenant_access_token/internal",
		body: issueTokenRequest{
			AppID:     f.appID,
			AppSecret: f.appSecret,
		},
	})
	if err != nil {
		return "", err
	}

	var resp issueTokenResponse
	if err := decode(opIssueToken, data, &resp); err != nil {
		return "", err
	}

	if resp.TenantAccessToken == "" {
		return "", opError(opIssueToken, "response does not contain tenant_access_token")
	}

	return resp.TenantAccessToken, nil
}

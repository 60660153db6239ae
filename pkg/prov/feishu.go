package prov

import (
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIURL     = "https://open.feishu.cn/open-apis"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultTokenTTL   = time.Hour
)

type Config struct {
	APIURL     string        `mapstructure:"api_url"`
	AppID      string        `mapstructure:"app_id"`
	AppSecret  string        `mapstructure:"app_secret"`
	BaseID     string        `mapstructure:"base_id"`
	TableID    string        `mapstructure:"table_id"`
	Timeout    time.Duration `mapstructure:"timeout"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// Feishu is a client for the Feishu open platform: tenant token issuance, wiki node resolution
// and bitable record listing.
type Feishu struct {
	cl         *http.Client
	tokens     *TokenCache
	apiURL     string
	appID      string
	appSecret  string
	baseID     string
	tableID    string
	timeout    time.Duration
	maxRetries int
}

// New creates a Feishu client from the provided configuration. Access tokens are kept in store.
func New(cfg Config, store TokenStore) *Feishu {
	f := &Feishu{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		baseID:     cfg.BaseID,
		tableID:    cfg.TableID,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		cl:         &http.Client{},
	}

	if f.apiURL == "" {
		f.apiURL = defaultAPIURL
	}

	if f.timeout <= 0 {
		f.timeout = defaultTimeout
	}

	if f.maxRetries <= 0 {
		f.maxRetries = defaultMaxRetries
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	f.tokens = NewTokenCache(store, ttl, f.issueToken)

	return f
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)

	return h
}

package render

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"
)

const (
	defaultImportTimeout = 30 * time.Second
	maxPageSize          = 5 << 20
	userAgent            = "wikiview/1.0"
)

type Config struct {
	ImportTimeout time.Duration `mapstructure:"import_timeout"`
	Disabled      bool          `mapstructure:"import_disabled"`
}

// Importer fetches external article pages and renders their readable part as sanitized HTML.
type Importer struct {
	cl       *http.Client
	disabled bool
}

// NewImporter creates an Importer from the provided configuration.
func NewImporter(cfg Config) *Importer {
	timeout := cfg.ImportTimeout
	if timeout <= 0 {
		timeout = defaultImportTimeout
	}

	return &Importer{
		cl:       &http.Client{Timeout: timeout},
		disabled: cfg.Disabled,
	}
}

// ErrImportDisabled is returned by Import when page import is switched off.
var ErrImportDisabled = fmt.Errorf("external page import is disabled")

// Import downloads pageURL, extracts its main content and converts it to markdown, which is then
// rendered through the same sanitizing pipeline as article bodies.
func (i *Importer) Import(ctx context.Context, pageURL string) (template.HTML, error) {
	if i.disabled {
		return "", ErrImportDisabled
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported page url scheme %q", u.Scheme)
	}

	slog.InfoContext(ctx, "Importing external page", slog.String("url", pageURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := i.cl.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageSize), u)
	if err != nil {
		return "", fmt.Errorf("failed to extract article: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		return "", fmt.Errorf("failed to convert page to markdown: %w", err)
	}

	slog.InfoContext(ctx, "Imported external page", slog.String("url", pageURL), slog.String("title", article.Title))

	return Markdown(md), nil
}

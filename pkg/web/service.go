package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/ksysoev/wikiview/pkg/core"
	"github.com/ksysoev/wikiview/pkg/web/middleware"
)

const (
	defaultListen     = ":8082"
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

//go:embed templates/*.html
var templatesFS embed.FS

// ArticleService provides the articles shown by the web pages.
type ArticleService interface {
	ListArticles(ctx context.Context) ([]core.ArticleSummary, error)
	GetArticle(ctx context.Context, id string) (*core.Article, error)
}

// Config holds the configuration of the HTTP server.
type Config struct {
	Listen    string  `mapstructure:"listen"`
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type Service struct {
	articles ArticleService
	tmpl     *template.Template
	listen   string
	limit    float64
	burst    int
}

// New creates the web service, parsing the embedded page templates.
func New(cfg Config, articles ArticleService) (*Service, error) {
	if articles == nil {
		return nil, errors.New("article service cannot be nil")
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{"nl2br": nl2br}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	listen := cfg.Listen
	if listen == "" {
		listen = defaultListen
	}

	return &Service{
		articles: articles,
		tmpl:     tmpl,
		listen:   listen,
		limit:    cfg.RateLimit,
		burst:    cfg.RateBurst,
	}, nil
}

// Handler returns the router serving all pages.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.WithRequestID(),
		middleware.WithAccessLog(),
		chimw.Recoverer,
	)

	if s.limit > 0 {
		r.Use(middleware.WithRateLimit(s.limit, s.burst))
	}

	r.Get("/", s.handleIndex)
	r.Get("/article/{recordID}", s.handleArticle)
	r.Get("/healthz", s.handleHealth)
	r.NotFound(s.handleNotFound)

	return r
}

// Run serves HTTP requests until ctx is canceled, then shuts the server down gracefully.
func (s *Service) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listen, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)

	go func() {
		slog.InfoContext(ctx, "Starting HTTP server", slog.String("addr", lis.Addr().String()))
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Graceful shutdown timed out", slog.Any("error", err))
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	slog.Info("Graceful shutdown completed")

	return nil
}

func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>")) //nolint:gosec // escaped above
}

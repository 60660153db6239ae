package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ksysoev/wikiview/pkg/core"
	"github.com/ksysoev/wikiview/pkg/prov"
	"github.com/ksysoev/wikiview/pkg/render"
	"github.com/ksysoev/wikiview/pkg/repo"
	"github.com/ksysoev/wikiview/pkg/web"
)

func runServe(ctx context.Context, arg *args) error {
	if err := initLogger(arg); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	cfg, err := loadConfig(arg)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	srv, closeStore, err := newServer(cfg)
	if err != nil {
		return err
	}

	defer closeStore()

	return srv.Run(ctx)
}

// newServer wires the token store, the Feishu client, the article service and the web server.
// The returned function releases the token store.
func newServer(cfg *appConfig) (*web.Service, func(), error) {
	var (
		store      prov.TokenStore
		closeStore = func() {}
	)

	if cfg.Cache.RedisAddr != "" {
		rs := repo.NewRedisTokens(cfg.Cache)
		store = rs
		closeStore = func() {
			if err := rs.Close(); err != nil {
				slog.Warn("Failed to close token store", slog.Any("error", err))
			}
		}

		slog.Info("Using Redis token store", slog.String("addr", cfg.Cache.RedisAddr))
	} else {
		store = repo.NewMemoryTokens()

		slog.Info("Using in-memory token store")
	}

	svc := core.New(cfg.Articles, prov.New(cfg.Feishu, store), render.NewImporter(cfg.Content))

	srv, err := web.New(cfg.HTTP, svc)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to create web service: %w", err)
	}

	return srv, closeStore, nil
}

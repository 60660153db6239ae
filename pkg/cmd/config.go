package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ksysoev/wikiview/pkg/core"
	"github.com/ksysoev/wikiview/pkg/prov"
	"github.com/ksysoev/wikiview/pkg/render"
	"github.com/ksysoev/wikiview/pkg/repo"
	"github.com/ksysoev/wikiview/pkg/web"
	"github.com/spf13/viper"
)

type appConfig struct {
	HTTP     web.Config    `mapstructure:"http"`
	Feishu   prov.Config   `mapstructure:"feishu"`
	Cache    repo.Config   `mapstructure:"cache"`
	Articles core.Config   `mapstructure:"articles"`
	Content  render.Config `mapstructure:"content"`
}

// LogValue omits credentials so that the config can be logged as a whole.
func (c appConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Group("http",
			slog.String("listen", c.HTTP.Listen),
			slog.Float64("rate_limit", c.HTTP.RateLimit),
			slog.Int("rate_burst", c.HTTP.RateBurst),
		),
		slog.Group("feishu",
			slog.String("api_url", c.Feishu.APIURL),
			slog.String("app_id", c.Feishu.AppID),
			slog.String("base_id", c.Feishu.BaseID),
			slog.String("table_id", c.Feishu.TableID),
			slog.Duration("timeout", c.Feishu.Timeout),
			slog.Duration("token_ttl", c.Feishu.TokenTTL),
			slog.Int("max_retries", c.Feishu.MaxRetries),
		),
		slog.Group("cache",
			slog.String("redis_addr", c.Cache.RedisAddr),
			slog.String("key_prefix", c.Cache.KeyPrefix),
			slog.Int("redis_db", c.Cache.DB),
		),
		slog.Any("articles", c.Articles),
		slog.Any("content", c.Content),
	)
}

// loadConfig loads the application configuration using the provided arguments and environment variables.
// It returns a pointer to appConfig or an error if loading or unmarshalling fails.
func loadConfig(arg *args) (*appConfig, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())

	if arg.ConfigPath != "" {
		v.SetConfigFile(arg.ConfigPath)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg appConfig

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	slog.Debug("Config loaded", slog.Any("config", cfg))

	return &cfg, nil
}

package settings

import (
	"github.com/smallbiznis/invoicegen/internal/cache"
	"github.com/smallbiznis/invoicegen/internal/clock"
	"github.com/smallbiznis/invoicegen/internal/config"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"github.com/smallbiznis/invoicegen/internal/settings/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("settings.service",
	fx.Provide(NewCurrencyCache),
	fx.Provide(service.NewService),
)

// NewCurrencyCache uses Redis when configured and an in-process TTL cache
// otherwise.
func NewCurrencyCache(cfg config.Config, c clock.Clock, log *zap.Logger) cache.Cache[string, settingsdomain.CurrencySettings] {
	if cfg.RedisURL == "" {
		return cache.NewTTLCache[string, settingsdomain.CurrencySettings](c)
	}
	client, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Warn("invalid redis url, falling back to in-process cache", zap.Error(err))
		return cache.NewTTLCache[string, settingsdomain.CurrencySettings](c)
	}
	return cache.NewRedisCache[settingsdomain.CurrencySettings](client, "settings:currency:", log.Named("settings.cache"))
}

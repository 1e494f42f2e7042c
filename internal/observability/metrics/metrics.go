package metrics

import (
	"strings"

	"github.com/smallbiznis/invoicegen/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
)

// Config labels every exported metric.
type Config struct {
	ServiceName string
	Environment string
}

func ConfigFrom(cfg config.Config) Config {
	return Config{ServiceName: cfg.AppName, Environment: cfg.Environment}
}

func (c Config) meterName(scope string) string {
	name := strings.TrimSpace(c.ServiceName)
	if name == "" {
		name = "invoicer"
	}
	return name + "/" + scope
}

var Module = fx.Module("metrics",
	fx.Provide(ConfigFrom),
	fx.Provide(func() metric.MeterProvider { return otel.GetMeterProvider() }),
	fx.Provide(NewHTTPMetrics),
	fx.Provide(InvoiceWithConfig),
)

var allowedAttributeKeys = map[string]struct{}{
	"route":        {},
	"method":       {},
	"status_class": {},
	"result":       {},
	"reason":       {},
	"currency":     {},
}

// FilterAttributes keeps only low-cardinality attribute keys.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		key := strings.ToLower(strings.TrimSpace(string(attr.Key)))
		if _, ok := allowedAttributeKeys[key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

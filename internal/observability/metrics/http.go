package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests that hit no registered route, so probing
// traffic cannot create new series.
const unmatchedRoute = "unmatched"

// HTTPMetrics holds the OTel instruments for the API server.
type HTTPMetrics struct {
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func NewHTTPMetrics(cfg Config, provider metric.MeterProvider) (*HTTPMetrics, error) {
	meter := provider.Meter(cfg.meterName("http"))

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of API requests by route and status class."),
	)
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Requests currently being served."),
	)
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{duration: duration, active: active}, nil
}

// GinMiddleware records request duration and active requests. A nil
// HTTPMetrics disables it.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		ctx := c.Request.Context()
		routeAttrs := metric.WithAttributes(attribute.String("route", route))

		m.active.Add(ctx, 1, routeAttrs)
		start := time.Now()
		defer func() {
			m.active.Add(ctx, -1, routeAttrs)
			m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(FilterAttributes(
				attribute.String("route", route),
				attribute.String("method", c.Request.Method),
				attribute.String("status_class", statusClass(c.Writer.Status())),
			)...))
		}()
		c.Next()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}

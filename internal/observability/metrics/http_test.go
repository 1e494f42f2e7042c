package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestGinMiddlewareServesRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := NewHTTPMetrics(Config{}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new http metrics: %v", err)
	}

	for _, hm := range []*HTTPMetrics{m, nil} {
		r := gin.New()
		r.Use(GinMiddleware(hm))
		r.GET("/api/invoices/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/invoices/7", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	}
}

func TestMeterName(t *testing.T) {
	if got := (Config{}).meterName("http"); got != "invoicer/http" {
		t.Fatalf("expected default meter name, got %q", got)
	}
	if got := (Config{ServiceName: "billing"}).meterName("http"); got != "billing/http" {
		t.Fatalf("unexpected meter name %q", got)
	}
}

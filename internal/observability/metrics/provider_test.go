package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func TestMeterProviderExportsToPrometheusRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()

	provider, err := newMeterProvider(registry)
	if err != nil {
		t.Fatalf("meter provider: %v", err)
	}
	m, err := NewHTTPMetrics(Config{ServiceName: "guardiao"}, provider)
	if err != nil {
		t.Fatalf("http metrics: %v", err)
	}

	engine := gin.New()
	engine.Use(GinMiddleware(m))
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	if !containsSubstring(names, "http_server_duration") {
		t.Fatalf("request duration instrument not exported, families: %v", names)
	}
	if !containsSubstring(names, "http_server_in_flight") {
		t.Fatalf("in-flight instrument not exported, families: %v", names)
	}
}

func containsSubstring(names []string, fragment string) bool {
	for _, name := range names {
		if strings.Contains(name, fragment) {
			return true
		}
	}
	return false
}

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordRequest("/search", "200", 2*time.Second)
	m.RecordRequest("/search", "408", time.Second)
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheMiss()
	m.RecordCacheWrite()
	m.RecordFetch("ok", 100*time.Millisecond)
	m.RecordImageLookup("error")
	m.RecordPipeline("cache_hit")

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/search", "200")); got != 1 {
		t.Errorf("requests{200} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheMissesTotal); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ImageLookupsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("image lookups{error} = %v, want 1", got)
	}

	m.IncRequestsInFlight()
	m.IncRequestsInFlight()
	m.DecRequestsInFlight()
	if got := testutil.ToFloat64(m.RequestsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
}

func TestNew_SeparateRegistries(t *testing.T) {
	// две инстанции в разных реестрах не должны паниковать
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordCacheHit()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "price_search_cache_hits_total 1") {
		t.Errorf("metrics output missing cache hits:\n%s", body)
	}
}

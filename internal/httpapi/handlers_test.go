package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
	"github.com/kitbuilder587/price-search/internal/metrics"
)

type fakeSearcher struct {
	results []domain.EnrichedResult
	err     error
	delay   time.Duration
	panic   bool

	gotText  string
	gotStart int
}

func (f *fakeSearcher) HandleSearch(ctx context.Context, text string, start int) ([]domain.EnrichedResult, error) {
	f.gotText, f.gotStart = text, start
	if f.panic {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.results, f.err
}

func newTestRouter(s Searcher, timeout time.Duration) (http.Handler, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return NewRouter(RouterDeps{
		Searcher: s,
		Logger:   zap.NewNop(),
		Metrics:  m,
		Gatherer: reg,
		Config:   RouterConfig{RequestTimeout: timeout},
	}), m
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSearch_OK(t *testing.T) {
	s := &fakeSearcher{results: []domain.EnrichedResult{
		{Name: "iphone 16 pro max", Price: "$1,199", ImageURLs: []string{"u1", "u2", "u3"}},
	}}
	h, _ := newTestRouter(s, time.Second)

	rec := do(t, h, "/search?search_query=iphone+16+pro+max&start=11")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{"name":"iphone 16 pro max","price":"$1,199","image_urls":["u1","u2","u3"]}]`, rec.Body.String())
	assert.Equal(t, "iphone 16 pro max", s.gotText)
	assert.Equal(t, 11, s.gotStart)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSearch_DefaultStart(t *testing.T) {
	s := &fakeSearcher{results: []domain.EnrichedResult{}}
	h, _ := newTestRouter(s, time.Second)

	rec := do(t, h, "/search?search_query=tv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
	assert.Equal(t, 1, s.gotStart)
}

func TestSearch_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantLoc string
	}{
		{"missing query", "/search", "search_query"},
		{"bad start", "/search?search_query=x&start=abc", "start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{}
			h, _ := newTestRouter(s, time.Second)

			rec := do(t, h, tt.target)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var body struct {
				Detail []fieldError `json:"detail"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body.Detail)
			assert.Equal(t, tt.wantLoc, body.Detail[0].Loc[1])
			assert.Empty(t, s.gotText, "searcher must not be called")
		})
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"timeout", domain.ErrRequestTimeout, http.StatusRequestTimeout, `{"detail":"Request Timeout"}`},
		{"domain validation", domain.ErrEmptyQuery, http.StatusUnprocessableEntity, ""},
		{"summarization", domain.ErrSummarization, http.StatusInternalServerError, `{"detail":"Internal Server Error"}`},
		{"cache", errors.Join(domain.ErrCacheUnavailable, errors.New("dial tcp")), http.StatusInternalServerError, `{"detail":"Internal Server Error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(&fakeSearcher{err: tt.err}, time.Second)

			rec := do(t, h, "/search?search_query=q")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			assert.NotContains(t, rec.Body.String(), "dial tcp")
		})
	}
}

func TestSearch_GlobalTimeout(t *testing.T) {
	s := &fakeSearcher{delay: time.Second}
	h, m := newTestRouter(s, 50*time.Millisecond)

	rec := do(t, h, "/search?search_query=slow")

	assert.Equal(t, http.StatusRequestTimeout, rec.Code)
	assert.JSONEq(t, `{"detail":"Request Timeout"}`, rec.Body.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/search", "408")))
}

func TestSearch_PanicRecovered(t *testing.T) {
	h, _ := newTestRouter(&fakeSearcher{panic: true}, time.Second)

	rec := do(t, h, "/search?search_query=q")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
}

func TestHome(t *testing.T) {
	h, _ := newTestRouter(&fakeSearcher{}, time.Second)

	rec := do(t, h, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Message":"Deployed successfully nice job ✔️"}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestRouter(&fakeSearcher{}, time.Second)

	rec := do(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "price_search_http_requests_total"))
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestRouter(&fakeSearcher{}, time.Second)

	rec := do(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestID_Propagated(t *testing.T) {
	h, _ := newTestRouter(&fakeSearcher{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(&fakeSearcher{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://frontend.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

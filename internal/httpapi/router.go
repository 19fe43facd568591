package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/metrics"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
}

type RouterDeps struct {
	Searcher Searcher
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Config   RouterConfig
}

// NewRouter собирает маршруты и middleware.
// Порядок: CORS -> логирование -> recovery -> общий таймаут -> маршруты.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config.RequestTimeout == 0 {
		deps.Config.RequestTimeout = 300 * time.Second
	}
	if len(deps.Config.CORSOrigins) == 0 {
		deps.Config.CORSOrigins = []string{"*"}
	}

	h := NewHandler(deps.Searcher, deps.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", metrics.Handler(deps.Gatherer))

	return Chain(mux,
		CORS(deps.Config.CORSOrigins),
		RequestLogger(deps.Logger, deps.Metrics),
		Recovery(deps.Logger),
		Timeout(deps.Config.RequestTimeout),
	)
}

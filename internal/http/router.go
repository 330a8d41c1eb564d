package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-forecast-service/internal/observability"
)

// RouterConfig holds the transport settings applied around the handlers.
type RouterConfig struct {
	// RateLimiter guards the forecast routes; nil disables limiting.
	RateLimiter *rate.Limiter
	// RequestTimeout bounds forecast requests; zero disables the deadline.
	RequestTimeout time.Duration
	// AccessLog receives Apache combined-format access lines; nil disables it.
	AccessLog io.Writer
}

// NewRouter wires routes and middleware:
//
//	GET /WeatherForecast/Get  forecast batch (rate limited, deadline)
//	GET /health               health document
//	GET /metrics              Prometheus exposition
//
// Panics are recovered and served as a bare 500. mux skips Use middleware for
// requests no route matched, so the 404 and 405 handlers are wrapped directly
// and counted under route "unmatched".
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	unmatched := func(next http.Handler) http.Handler {
		return CorrelationIDMiddleware(logger)(MetricsMiddleware(next))
	}
	router.NotFoundHandler = unmatched(http.NotFoundHandler())
	router.MethodNotAllowedHandler = unmatched(http.HandlerFunc(methodNotAllowed))
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	forecastRouter := router.PathPrefix("/WeatherForecast").Subrouter()
	forecastRouter.Use(RateLimitMiddleware(cfg.RateLimiter))
	if cfg.RequestTimeout > 0 {
		forecastRouter.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	forecastRouter.HandleFunc("/Get", h.GetForecast).Methods(http.MethodGet)

	var root http.Handler = router
	root = handlers.RecoveryHandler(handlers.RecoveryLogger(panicLogger{logger: logger}))(root)
	if cfg.AccessLog != nil {
		root = handlers.CombinedLoggingHandler(cfg.AccessLog, root)
	}
	return root
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

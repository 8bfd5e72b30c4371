package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/cart-api/internal/metrics"
	"github.com/fjod/go_cart/cart-api/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Carts              CartService
	DB                 Pinger
	Log                *zap.Logger
	Metrics            *metrics.Metrics   // optional
	Limiter            *ratelimit.Limiter // optional
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	AllowedOrigins     []string
}

const defaultRequestTimeout = 30 * time.Second

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	cartHandler := NewCartHandler(cfg.Carts, cfg.RequestTimeout, cfg.Log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log.Named("http")))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Compress(5))

	r.Get("/health", HealthHandler(cfg.DB, cfg.Log))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	cartRoutes := func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Middleware(cfg.Log.Named("ratelimit")))
		}
		if cfg.MaxRequestBodySize > 0 {
			r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
		}

		// handlers bound each call with RequestTimeout
		r.Post("/addtocart", cartHandler.AddToCart)
		r.Post("/get-cart", cartHandler.GetCart)
		r.Put("/update-quantity", cartHandler.UpdateQuantity)
		r.Post("/delete-item", cartHandler.DeleteItem)
		r.Post("/remove-item", cartHandler.RemoveItem)
	}

	r.Group(cartRoutes)
	r.Route("/api/cart", cartRoutes)

	return r
}

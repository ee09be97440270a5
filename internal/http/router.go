package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"servipay/internal/config"
	"servipay/internal/http/handlers"
	middlewarex "servipay/internal/http/middleware"
	"servipay/internal/services/checkout"
	"servipay/internal/services/connect"
	"servipay/internal/services/webhook"
)

// RouterDependencies holds everything the HTTP router wires together.
type RouterDependencies struct {
	Config   config.Cfg
	Redis    *redis.Client
	Connect  *connect.Service
	Checkout *checkout.Service
	Webhook  *webhook.Service
}

func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middlewarex.CORS)
	r.Use(middlewarex.RateLimit(deps.Redis, deps.Config.Sec.RateLimitPerMin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/mercadopago", func(r chi.Router) {
			r.Get("/oauth/init", handlers.OAuthInit(deps.Connect))
			r.Post("/token/refresh", handlers.RefreshToken(deps.Connect))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", handlers.CreatePayment(deps.Checkout))
			r.Get("/transactions", handlers.ListTransactions(deps.Checkout))
			// Public but unauthenticated: MercadoPago posts notifications here.
			r.Post("/webhook", handlers.Webhook(deps.Webhook))
		})
	})

	return r
}

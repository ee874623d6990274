package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/session"
)

// Handlers collects the wired-up handler set for the router.
type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Consult  *ConsultHandler
	Auth     *AuthHandler
	Payment  *PaymentHandler
	Sensor   *SensorHandler
}

// NewRouter assembles the storefront HTTP surface.
func NewRouter(h Handlers, registry *session.Registry, log *zap.Logger, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(LoggingMiddleware(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(SessionMiddleware(registry))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{product_id}", h.Products.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Patch("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})

		r.Route("/consultation", func(r chi.Router) {
			r.Get("/", h.Consult.Get)
			r.Post("/start", h.Consult.Start)
			r.Post("/answer", h.Consult.Answer)
			r.Post("/back", h.Consult.Back)
			r.Post("/reset", h.Consult.Reset)
			r.Post("/initialize", h.Consult.Initialize)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/register", h.Auth.Register)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
		})

		r.Post("/checkout", h.Payment.Checkout)
		r.Post("/payment/callback", h.Payment.Callback)
		r.Get("/transactions/{order_id}", h.Payment.Transaction)

		r.Get("/sensor/latest", h.Sensor.Latest)
	})

	return r
}

package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", handler.ListProducts)
		r.Get("/{id}", handler.GetProduct)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)
		r.Post("/items", handler.AddCartItem)
		r.Patch("/items/{id}", handler.UpdateCartItem)
		r.Delete("/items/{id}", handler.RemoveCartItem)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", handler.GetQuote)
		r.Post("/", handler.SubmitCheckout)
		r.Post("/coupon", handler.ApplyCoupon)
		r.Delete("/coupon", handler.RemoveCoupon)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", handler.ListOrders)
		r.Get("/stats", handler.OrderStats)
		r.Get("/{id}", handler.GetOrderByID)
		r.Post("/{id}/cancel", handler.CancelOrder)
		if handler.history != nil {
			r.Get("/{id}/history", handler.OrderHistory)
		}
	})
	return r
}

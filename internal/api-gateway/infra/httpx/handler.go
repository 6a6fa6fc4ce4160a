package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront/internal/api-gateway/core/ports"
	cartdomain "github.com/jcmexdev/storefront/internal/cart-service/domain"
	"github.com/jcmexdev/storefront/internal/catalog"
	"github.com/jcmexdev/storefront/internal/checkout"
	"github.com/jcmexdev/storefront/internal/coupon"
	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/interceptors/constants"
)

// Handler serves the storefront API on top of the core ports.
type Handler struct {
	catalog  ports.Catalog
	cart     ports.CartService
	checkout ports.CheckoutService
	orders   ports.OrderService
	history  ports.LifecycleLog // nil disables GET /orders/{id}/history
}

func NewHandler(
	cat ports.Catalog,
	cart ports.CartService,
	co ports.CheckoutService,
	orders ports.OrderService,
	history ports.LifecycleLog,
) *Handler {
	return &Handler{
		catalog:  cat,
		cart:     cart,
		checkout: co,
		orders:   orders,
		history:  history,
	}
}

// ListProducts supports q, brand, category, min, max and sort query params.
// brand and category may repeat or be comma separated.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	q := catalog.Query{
		Text:       qs.Get("q"),
		Brands:     splitList(qs["brand"]),
		Categories: splitList(qs["category"]),
		Sort:       catalog.SortOrder(qs.Get("sort")),
	}
	var err error
	if q.MinPrice, err = parseAmount(qs.Get("min")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_min", err.Error())
		return
	}
	if q.MaxPrice, err = parseAmount(qs.Get("max")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_max", err.Error())
		return
	}

	products := h.catalog.Search(q)
	writeJSON(w, http.StatusOK, ProductListResponse{
		Products:   products,
		Total:      len(products),
		Brands:     h.catalog.Brands(),
		Categories: h.catalog.Categories(),
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.catalog.Product(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "product_not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartResponse())
}

// AddCartItem snapshots the catalog price into a new or merged cart line.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, ok := h.catalog.Product(req.ProductID)
	if !ok {
		writeError(w, http.StatusNotFound, "product_not_found", cartdomain.ErrUnknownProduct.Error())
		return
	}
	item, err := cartdomain.NewCartItem(p, req.VariantID, req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_item", err.Error())
		return
	}
	if err := h.cart.Add(r.Context(), item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_item", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if !h.cart.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity) {
		writeError(w, http.StatusNotFound, "cart_item_not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.cart.Remove(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear(r.Context())
	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) cartResponse() CartResponse {
	items := h.cart.Items()
	if items == nil {
		items = []cartdomain.CartItem{}
	}
	return CartResponse{
		Items:      items,
		TotalItems: h.cart.TotalItems(),
		TotalPrice: h.cart.TotalPrice(),
	}
}

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapQuote(h.checkout.Quote()))
}

func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	q, err := h.checkout.ApplyCoupon(req.Code)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapQuote(q))
}

func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapQuote(h.checkout.RemoveCoupon()))
}

// SubmitCheckout places the order. X-Idempotency-Key makes retries safe:
// a replay answers 200 with the original order instead of 201.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	idempKey, _ := r.Context().Value(constants.ContextKeyIdempotencyKey).(string)
	requestID, _ := r.Context().Value(constants.ContextKeyRequestID).(string)

	slog.InfoContext(r.Context(), "submitting checkout", "request_id", requestID, "idempotency_key", idempKey)

	receipt, err := h.checkout.Submit(r.Context(), req.ShippingAddress.toDomain(), idempKey)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, mapOrderToResponse(receipt.Order))
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *coupon.Error
	switch {
	case errors.As(err, &cerr):
		writeError(w, http.StatusUnprocessableEntity, cerr.Kind.String(), cerr.Message)
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.Is(err, checkout.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, "payment_declined", err.Error())
	case errors.Is(err, checkout.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", "")
	case errors.Is(err, checkout.ErrNotCancellable):
		writeError(w, http.StatusConflict, "order_not_cancellable", err.Error())
	default:
		slog.ErrorContext(r.Context(), "checkout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "checkout_failed", err.Error())
	}
}

// ListOrders returns orders newest first, optionally filtered by status and
// capped by limit.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	var status domain.OrderStatus
	if s := qs.Get("status"); s != "" {
		st, ok := domain.ParseStatus(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status", s)
			return
		}
		status = st
	}
	limit := 0
	if s := qs.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", s)
			return
		}
		limit = n
	}

	var orders []domain.Order
	if status != "" {
		orders = h.orders.ListByStatus(status)
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		})
		if limit > 0 && len(orders) > limit {
			orders = orders[:limit]
		}
	} else {
		orders = h.orders.ListRecent(limit)
	}

	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, mapOrderToResponse(o))
	}
	writeJSON(w, http.StatusOK, OrderListResponse{Orders: out, Total: len(out)})
}

func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orders.Stats())
}

func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orders.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(o))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkout.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(o))
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.orders.Get(id); !ok {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	entries, err := h.history.History(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "lifecycle history failed", "order_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapEntries(entries))
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseAmount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative whole number")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

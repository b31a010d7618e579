package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

// HTTPHandler exposes inventory CRUD, the session cart and order placement.
// The core returns typed results; everything transport-specific (status
// codes, JSON-vs-redirect) lives here.
type HTTPHandler struct {
	inventory *service.InventoryService
	orders    *service.OrderService
	carts     *service.CartManager
}

func NewHTTPHandler(inventory *service.InventoryService, orders *service.OrderService,
	carts *service.CartManager) *HTTPHandler {
	return &HTTPHandler{inventory: inventory, orders: orders, carts: carts}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/", h.ListInventory)
		r.Post("/", h.CreateItem)
		r.Get("/{id}", h.ShowItem)
		r.Patch("/{id}", h.UpdateItem)
		r.Put("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.ShowCart)
		r.Post("/items", h.AddCartItem)
		r.Delete("/items/{id}", h.RemoveCartItem)
		r.Post("/checkout", h.Checkout)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.PlaceOrder)
		r.Get("/{id}", h.ShowOrder)
	})

	return r
}

func (h *HTTPHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var params service.CreateItemParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.inventory.Create(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	if !wantsJSON(r) {
		redirectToIndex(w, r)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) ShowItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.inventory.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch domain.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.inventory.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}

	if !wantsJSON(r) {
		redirectToIndex(w, r)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	if !wantsJSON(r) {
		redirectToIndex(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type placeOrderRequest struct {
	RequestID string                     `json:"request_id"`
	FromCart  bool                       `json:"from_cart"`
	Lines     []service.OrderLineRequest `json:"lines"`
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var (
		order domain.Order
		err   error
	)
	if req.FromCart {
		cart := h.carts.Cart(h.cartSession(w, r))
		order, err = h.orders.PlaceOrderFromCart(r.Context(), req.RequestID, cart)
	} else {
		order, err = h.orders.PlaceOrder(r.Context(), req.RequestID, req.Lines)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if !wantsJSON(r) {
		redirectToIndex(w, r)
		return
	}
	writeJSON(w, http.StatusCreated, orderPlacedResponse{
		Message: "Order placed successfully",
		Order:   order,
	})
}

func (h *HTTPHandler) ShowOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type orderPlacedResponse struct {
	Message string       `json:"message"`
	Order   domain.Order `json:"order"`
}

func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "insufficient stock"})
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "duplicate request"})
	case errors.Is(err, domain.ErrPersistence):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "order could not be saved, please retry"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// wantsJSON mirrors the original wantsJson() check: API callers get JSON,
// browser form posts get a redirect back to the inventory page.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

func redirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

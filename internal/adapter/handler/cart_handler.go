package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const cartSessionCookie = "cart_session"

type cartResponse struct {
	Lines    []domain.CartLine `json:"lines"`
	Total    decimal.Decimal   `json:"total"`
	Warnings []string          `json:"warnings,omitempty"`
}

type addCartItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type checkoutRequest struct {
	RequestID string `json:"request_id"`
}

func (h *HTTPHandler) ShowCart(w http.ResponseWriter, r *http.Request) {
	cart := h.carts.Cart(h.cartSession(w, r))
	writeJSON(w, http.StatusOK, h.cartView(r, cart))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cart := h.carts.Cart(h.cartSession(w, r))
	if err := cart.AddItem(req.ItemID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(r, cart))
}

// RemoveCartItem drops the whole line; with ?mode=one it decrements by a
// single unit instead.
func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cart := h.carts.Cart(h.cartSession(w, r))
	itemID := chi.URLParam(r, "id")

	if r.URL.Query().Get("mode") == "one" {
		if err := cart.RemoveOne(itemID); err != nil {
			writeError(w, err)
			return
		}
	} else {
		cart.RemoveAll(itemID)
	}
	writeJSON(w, http.StatusOK, h.cartView(r, cart))
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	cart := h.carts.Cart(h.cartSession(w, r))
	order, err := h.orders.PlaceOrderFromCart(r.Context(), req.RequestID, cart)
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

func (h *HTTPHandler) cartView(r *http.Request, cart *service.Cart) cartResponse {
	total, skipped := cart.Total(func(itemID string) (decimal.Decimal, bool) {
		item, err := h.inventory.Get(r.Context(), itemID)
		if err != nil {
			return decimal.Zero, false
		}
		return item.Price, true
	})

	resp := cartResponse{Lines: cart.Lines(), Total: total}
	for _, itemID := range skipped {
		resp.Warnings = append(resp.Warnings, "item "+itemID+" is no longer available")
	}
	return resp
}

// cartSession reads the session cookie, minting one on first contact.
func (h *HTTPHandler) cartSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(cartSessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cartSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
	})
	return sessionID
}

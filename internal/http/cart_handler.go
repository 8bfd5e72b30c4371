package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/cart-api/internal/domain"
	"github.com/fjod/go_cart/cart-api/internal/repository"
	"github.com/fjod/go_cart/cart-api/internal/service"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type CartService interface {
	AddToCart(ctx context.Context, cartID string, items []domain.CartItem) (*domain.Cart, bool, error)
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	DeleteItem(ctx context.Context, productID, cartID string) (int64, error)
}

type CartHandler struct {
	service CartService
	timeout time.Duration
	log     *zap.Logger
}

func NewCartHandler(service CartService, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		timeout: timeout,
		log:     log.Named("cart_handler"),
	}
}

// failure holds the user-facing messages of one endpoint.
type failure struct {
	invalid      string
	cartNotFound string
	itemNotFound string
	internal     string
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f := failure{
		internal: "Error adding product to cart",
	}

	var req AddToCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid JSON body")
		return
	}

	items, err := req.Items()
	if err != nil {
		message := err.Error()
		if !errors.Is(err, errNotArray) {
			message = "invalid productsInCart: " + message
		}
		respondError(w, h.log, http.StatusBadRequest, message)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "cartId is required")
		return
	}

	cart, created, err := h.service.AddToCart(ctx, req.CartID, items)
	if err != nil {
		h.handleError(w, r, err, f)
		return
	}

	message := "Cart updated successfully"
	if created {
		message = "Cart created and product added."
	}
	respondJSON(w, h.log, http.StatusOK, Response{Success: true, Message: message, Cart: cart})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f := failure{
		invalid:      "userId is required",
		cartNotFound: "Cart not found for this user",
		internal:     "Error fetching cart",
	}

	var req GetCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, f.invalid)
		return
	}

	cart, err := h.service.GetCart(ctx, req.UserID)
	if err != nil {
		h.handleError(w, r, err, f)
		return
	}

	respondJSON(w, h.log, http.StatusOK, Response{Success: true, Cart: cart})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f := failure{
		invalid:      "userId, productId, and a valid productQty are required.",
		cartNotFound: "Cart not found.",
		itemNotFound: "Product not found in the cart.",
		internal:     "An error occurred while updating the quantity.",
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, f.invalid)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, f.invalid)
		return
	}

	if err := h.service.UpdateQuantity(ctx, req.UserID, req.ProductID, *req.ProductQty); err != nil {
		h.handleError(w, r, err, f)
		return
	}

	respondJSON(w, h.log, http.StatusOK, Response{Success: true, Message: "Quantity updated successfully."})
}

// DeleteItem removes the product from every cart unless cartId narrows it down.
func (h *CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f := failure{
		invalid:      "productId is required.",
		cartNotFound: "Item not found in the cart.",
		itemNotFound: "Item not found in the cart.",
		internal:     "An error occurred while deleting the item.",
	}

	var req DeleteItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, f.invalid)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, f.invalid)
		return
	}

	if _, err := h.service.DeleteItem(ctx, req.ProductID, req.CartID); err != nil {
		h.handleError(w, r, err, f)
		return
	}

	respondJSON(w, h.log, http.StatusOK, Response{Success: true, Message: "Item deleted successfully."})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f := failure{
		invalid:      "cartId and productId are required.",
		cartNotFound: "Item not found in the cart.",
		itemNotFound: "Item not found in the cart.",
		internal:     "An error occurred while removing the item.",
	}

	var req RemoveItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, f.invalid)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, f.invalid)
		return
	}

	if err := h.service.RemoveItem(ctx, req.CartID, req.ProductID); err != nil {
		h.handleError(w, r, err, f)
		return
	}

	respondJSON(w, h.log, http.StatusOK, Response{Success: true, Message: "Item removed successfully."})
}

// handleError converts service errors to HTTP status codes.
func (h *CartHandler) handleError(w http.ResponseWriter, r *http.Request, err error, f failure) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		message := f.invalid
		if message == "" {
			message = err.Error()
		}
		respondError(w, h.log, http.StatusBadRequest, message)
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, h.log, http.StatusNotFound, orDefault(f.cartNotFound, "Cart not found."))
	case errors.Is(err, repository.ErrItemNotFound):
		respondError(w, h.log, http.StatusNotFound, orDefault(f.itemNotFound, "Item not found in the cart."))
	default:
		h.log.Error(f.internal,
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondJSON(w, h.log, http.StatusInternalServerError, Response{
			Success: false,
			Message: f.internal,
			Error:   err.Error(),
		})
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

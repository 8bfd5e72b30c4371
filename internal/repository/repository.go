package repository

import (
	"context"

	"github.com/fjod/go_cart/cart-api/internal/domain"
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	CreateCart(ctx context.Context, cart *domain.Cart) error
	AppendItems(ctx context.Context, cartID string, items []domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	// RemoveItemFromAllCarts pulls productID out of every cart and reports how many carts changed.
	RemoveItemFromAllCarts(ctx context.Context, productID string) (int64, error)
	Ping(ctx context.Context) error
}

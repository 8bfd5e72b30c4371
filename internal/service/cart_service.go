package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/cart-api/internal/domain"
	"github.com/fjod/go_cart/cart-api/internal/events"
	"github.com/fjod/go_cart/cart-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	publishTimeout = 5 * time.Second
	lookupTimeout  = 10 * time.Second
)

type CartService struct {
	repo      repository.CartRepository
	publisher events.Publisher
	log       *zap.Logger
	sfg       singleflight.Group // collapses concurrent lookups of the same cart
	pending   sync.WaitGroup
}

func NewCartService(repo repository.CartRepository, publisher events.Publisher, log *zap.Logger) *CartService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CartService{
		repo:      repo,
		publisher: publisher,
		log:       log.Named("cart_service"),
	}
}

// AddToCart creates the cart on first use, otherwise appends the products it
// does not hold yet. The bool reports whether a new cart was created.
func (s *CartService) AddToCart(ctx context.Context, cartID string, items []domain.CartItem) (*domain.Cart, bool, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return nil, false, fmt.Errorf("%w: cartId is required", ErrInvalidInput)
	}
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, false, fmt.Errorf("%w: productId must not be empty", ErrInvalidInput)
		}
	}

	cart, err := s.repo.GetCart(ctx, cartID)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart = domain.NewCart(cartID, items)
		errCreate := s.repo.CreateCart(ctx, cart)
		if errCreate == nil {
			s.log.Info("cart created", zap.String("cart_id", cartID), zap.Int("products", len(cart.ProductsInCart)))
			s.publish(events.CartEvent{
				Type:       events.CartCreated,
				CartID:     cartID,
				ProductIDs: cart.ProductIDs(),
			})
			return cart, true, nil
		}
		if !errors.Is(errCreate, repository.ErrCartExists) {
			s.log.Error("repo create cart error", zap.String("cart_id", cartID), zap.Error(errCreate))
			return nil, false, errCreate
		}
		// another request created it first
		cart, err = s.repo.GetCart(ctx, cartID)
	}
	if err != nil {
		s.log.Error("repo get cart error", zap.String("cart_id", cartID), zap.Error(err))
		return nil, false, err
	}

	added := cart.AddProducts(items)
	if len(added) == 0 {
		return cart, false, nil
	}

	if errAppend := s.repo.AppendItems(ctx, cartID, added); errAppend != nil {
		s.log.Error("repo append items error", zap.String("cart_id", cartID), zap.Error(errAppend))
		return nil, false, errAppend
	}
	cart.UpdatedAt = time.Now().UTC()

	productIDs := make([]string, len(added))
	for i, item := range added {
		productIDs[i] = item.ProductID
	}
	s.publish(events.CartEvent{
		Type:       events.ProductsAdded,
		CartID:     cartID,
		ProductIDs: productIDs,
	})

	return cart, false, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}

	// The shared lookup outlives any single caller; each caller waits on its own ctx.
	ch := s.sfg.DoChan(cartID, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.repo.GetCart(lookupCtx, cartID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if !errors.Is(res.Err, repository.ErrCartNotFound) {
				s.log.Error("repo get cart error", zap.String("cart_id", cartID), zap.Error(res.Err))
			}
			return nil, res.Err
		}
		return res.Val.(*domain.Cart), nil
	}
}

func (s *CartService) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	cartID = strings.TrimSpace(cartID)
	productID = strings.TrimSpace(productID)
	if cartID == "" || productID == "" {
		return fmt.Errorf("%w: userId and productId are required", ErrInvalidInput)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: productQty must be at least 1", ErrInvalidInput)
	}

	cart, err := s.repo.GetCart(ctx, cartID)
	if err != nil {
		if !errors.Is(err, repository.ErrCartNotFound) {
			s.log.Error("repo get cart error", zap.String("cart_id", cartID), zap.Error(err))
		}
		return err
	}
	if !cart.HasProduct(productID) {
		return repository.ErrItemNotFound
	}

	if errUpdate := s.repo.UpdateItemQuantity(ctx, cartID, productID, quantity); errUpdate != nil {
		if !isNotFound(errUpdate) {
			s.log.Error("repo update item quantity error", zap.String("cart_id", cartID), zap.Error(errUpdate))
		}
		return errUpdate
	}

	s.publish(events.CartEvent{
		Type:       events.QuantityUpdated,
		CartID:     cartID,
		ProductIDs: []string{productID},
		ProductQty: quantity,
	})
	return nil
}

// RemoveItem drops productID from a single cart.
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) error {
	cartID = strings.TrimSpace(cartID)
	productID = strings.TrimSpace(productID)
	if cartID == "" || productID == "" {
		return fmt.Errorf("%w: cartId and productId are required", ErrInvalidInput)
	}

	if errRemove := s.repo.RemoveItem(ctx, cartID, productID); errRemove != nil {
		if !isNotFound(errRemove) {
			s.log.Error("repo remove item error", zap.String("cart_id", cartID), zap.Error(errRemove))
		}
		return errRemove
	}

	s.publish(events.CartEvent{
		Type:       events.ItemRemoved,
		CartID:     cartID,
		ProductIDs: []string{productID},
	})
	return nil
}

// DeleteItem removes productID from every cart that holds it, or only from
// cartID when one is given. It returns the number of carts changed.
func (s *CartService) DeleteItem(ctx context.Context, productID, cartID string) (int64, error) {
	productID = strings.TrimSpace(productID)
	cartID = strings.TrimSpace(cartID)
	if productID == "" {
		return 0, fmt.Errorf("%w: productId is required", ErrInvalidInput)
	}

	if cartID != "" {
		if err := s.RemoveItem(ctx, cartID, productID); err != nil {
			return 0, err
		}
		return 1, nil
	}

	modified, err := s.repo.RemoveItemFromAllCarts(ctx, productID)
	if err != nil {
		s.log.Error("repo remove item from all carts error", zap.String("product_id", productID), zap.Error(err))
		return 0, err
	}
	if modified == 0 {
		return 0, repository.ErrItemNotFound
	}

	s.log.Info("product deleted from carts", zap.String("product_id", productID), zap.Int64("carts", modified))
	s.publish(events.CartEvent{
		Type:       events.ItemDeleted,
		ProductIDs: []string{productID},
		Modified:   modified,
	})
	return modified, nil
}

func (s *CartService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Drain waits for in-flight event publishes.
func (s *CartService) Drain() {
	s.pending.Wait()
}

func (s *CartService) publish(event events.CartEvent) {
	event.OccurredAt = time.Now().UTC()
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("publish cart event failed",
				zap.String("type", string(event.Type)),
				zap.String("cart_id", event.CartID),
				zap.Error(err))
		}
	}()
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrCartNotFound) || errors.Is(err, repository.ErrItemNotFound)
}

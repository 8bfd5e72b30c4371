package service

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/cart-api/internal/domain"
	"github.com/fjod/go_cart/cart-api/internal/events"
	"github.com/fjod/go_cart/cart-api/internal/repository"
)

type mockRepository struct {
	m        sync.RWMutex
	carts    map[string]*domain.Cart
	err      error
	gets     int
	creates  int
	appends  int
	createFn func(cart *domain.Cart) error
	getFn    func(ctx context.Context) error
}

func newMockRepository(carts ...*domain.Cart) *mockRepository {
	repo := &mockRepository{carts: map[string]*domain.Cart{}}
	for _, c := range carts {
		repo.carts[c.CartID] = c
	}
	return repo
}

func (m *mockRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	if m.getFn != nil {
		if err := m.getFn(ctx); err != nil {
			return nil, err
		}
	}
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	cp.ProductsInCart = append([]domain.CartItem{}, c.ProductsInCart...)
	return &cp, nil
}

func (m *mockRepository) CreateCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.creates++
	if m.createFn != nil {
		if err := m.createFn(cart); err != nil {
			return err
		}
	}
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[cart.CartID]; ok {
		return repository.ErrCartExists
	}
	cp := *cart
	cp.ProductsInCart = append([]domain.CartItem{}, cart.ProductsInCart...)
	m.carts[cart.CartID] = &cp
	return nil
}

func (m *mockRepository) AppendItems(_ context.Context, cartID string, items []domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.appends++
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	c.ProductsInCart = append(c.ProductsInCart, items...)
	return nil
}

func (m *mockRepository) UpdateItemQuantity(_ context.Context, cartID, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i := range c.ProductsInCart {
		if c.ProductsInCart[i].ProductID == productID {
			c.ProductsInCart[i].ProductQty = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockRepository) RemoveItem(_ context.Context, cartID, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	if !removeProduct(c, productID) {
		return repository.ErrItemNotFound
	}
	return nil
}

func (m *mockRepository) RemoveItemFromAllCarts(_ context.Context, productID string) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var modified int64
	for _, c := range m.carts {
		if removeProduct(c, productID) {
			modified++
		}
	}
	return modified, nil
}

func (m *mockRepository) Ping(context.Context) error {
	return m.err
}

func (m *mockRepository) cart(cartID string) *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.carts[cartID]
}

func removeProduct(c *domain.Cart, productID string) bool {
	for i, item := range c.ProductsInCart {
		if item.ProductID == productID {
			c.ProductsInCart = append(c.ProductsInCart[:i], c.ProductsInCart[i+1:]...)
			return true
		}
	}
	return false
}

type mockPublisher struct {
	m      sync.Mutex
	events []events.CartEvent
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, event events.CartEvent) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *mockPublisher) Close() error { return nil }

func (p *mockPublisher) published() []events.CartEvent {
	p.m.Lock()
	defer p.m.Unlock()
	return append([]events.CartEvent{}, p.events...)
}

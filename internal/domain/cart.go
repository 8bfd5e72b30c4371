package domain

import "time"

const DefaultQuantity = 1

type Cart struct {
	ID             string     `bson:"_id,omitempty" json:"-"`
	CartID         string     `bson:"cartId" json:"cartId"`
	UserID         string     `bson:"userId" json:"userId"`
	ProductsInCart []CartItem `bson:"productsInCart" json:"productsInCart"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
}

type CartItem struct {
	ProductID  string `bson:"productId" json:"productId"`
	ProductQty int    `bson:"productQty" json:"productQty"`
}

// NewCart builds a cart owned by id. The user id mirrors the cart id.
func NewCart(id string, items []CartItem) *Cart {
	c := &Cart{
		CartID:         id,
		UserID:         id,
		ProductsInCart: []CartItem{},
	}
	c.AddProducts(items)
	return c
}

// AddProducts appends every item whose product is not already in the cart,
// keeping input order, and returns the items that were actually added.
func (c *Cart) AddProducts(items []CartItem) []CartItem {
	added := make([]CartItem, 0, len(items))
	for _, item := range items {
		if c.HasProduct(item.ProductID) {
			continue
		}
		if item.ProductQty < 1 {
			item.ProductQty = DefaultQuantity
		}
		c.ProductsInCart = append(c.ProductsInCart, item)
		added = append(added, item)
	}
	return added
}

func (c *Cart) HasProduct(productID string) bool {
	_, ok := c.FindItem(productID)
	return ok
}

func (c *Cart) FindItem(productID string) (*CartItem, bool) {
	for i := range c.ProductsInCart {
		if c.ProductsInCart[i].ProductID == productID {
			return &c.ProductsInCart[i], true
		}
	}
	return nil, false
}

// ProductIDs lists the product ids in cart order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.ProductsInCart))
	for i, item := range c.ProductsInCart {
		ids[i] = item.ProductID
	}
	return ids
}

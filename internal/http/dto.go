package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/cart-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var errNotArray = errors.New("productsInCart must be an array")

type AddToCartRequestDTO struct {
	CartID         string          `json:"cartId" validate:"required"`
	ProductsInCart json.RawMessage `json:"productsInCart"`
}

// ProductRef is one element of productsInCart: either a bare product id
// (string or number) or an object carrying productId and an optional productQty.
type ProductRef struct {
	ProductID  string `json:"productId" validate:"required"`
	ProductQty int    `json:"productQty" validate:"gte=0"`
}

func (p *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var v struct {
			ProductID  json.RawMessage `json:"productId"`
			ProductQty int             `json:"productQty"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid product entry: %w", err)
		}
		id, err := scalarID(v.ProductID)
		if err != nil {
			return fmt.Errorf("productId must be a string or a number: %w", err)
		}
		p.ProductID, p.ProductQty = id, v.ProductQty
		return nil
	}

	id, err := scalarID(data)
	if err != nil {
		return fmt.Errorf("product entry must be a string, a number or an object: %w", err)
	}
	p.ProductID = id
	return nil
}

// scalarID reads a JSON string or number as a product id. Absent and null
// yield "" and are left to validation.
func scalarID(data []byte) (string, error) {
	if len(data) == 0 || string(data) == "null" {
		return "", nil
	}
	if data[0] == '"' {
		var id string
		err := json.Unmarshal(data, &id)
		return id, err
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Items validates productsInCart and converts it to cart items.
func (r AddToCartRequestDTO) Items() ([]domain.CartItem, error) {
	raw := bytes.TrimSpace(r.ProductsInCart)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errNotArray
	}

	var refs []ProductRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(refs))
	for _, ref := range refs {
		if err := validate.Struct(ref); err != nil {
			return nil, err
		}
		qty := ref.ProductQty
		if qty == 0 {
			qty = domain.DefaultQuantity
		}
		items = append(items, domain.CartItem{ProductID: ref.ProductID, ProductQty: qty})
	}
	return items, nil
}

type GetCartRequestDTO struct {
	UserID string `json:"userId" validate:"required"`
}

type UpdateQuantityRequestDTO struct {
	UserID     string `json:"userId" validate:"required"`
	ProductID  string `json:"productId" validate:"required"`
	ProductQty *int   `json:"productQty" validate:"required,min=1"`
}

type DeleteItemRequestDTO struct {
	ProductID string `json:"productId" validate:"required"`
	CartID    string `json:"cartId"`
}

type RemoveItemRequestDTO struct {
	CartID    string `json:"cartId" validate:"required"`
	ProductID string `json:"productId" validate:"required"`
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/cart-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const cartsCollection = "carts"

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
	ErrCartExists   = errors.New("cart already exists")
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"cartId": cartID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.ProductsInCart == nil {
		cart.ProductsInCart = []domain.CartItem{}
	}

	return &cart, nil
}

func (m *mongoRepository) CreateCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	if cart.UserID == "" {
		cart.UserID = cart.CartID
	}

	_, err := m.collection.InsertOne(ctx, cart)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCartExists
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}

	return nil
}

func (m *mongoRepository) AppendItems(ctx context.Context, cartID string, items []domain.CartItem) error {
	if len(items) == 0 {
		return nil
	}

	update := bson.M{
		"$push": bson.M{"productsInCart": bson.M{"$each": items}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"cartId": cartID}, update)
	if err != nil {
		return fmt.Errorf("failed to append items: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoRepository) UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	filter := bson.M{
		"cartId":                   cartID,
		"productsInCart.productId": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"productsInCart.$[elem].productQty": quantity,
			"updatedAt":                         time.Now().UTC(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.productId": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	if result.MatchedCount == 0 {
		return m.missing(ctx, cartID)
	}

	return nil
}

func (m *mongoRepository) RemoveItem(ctx context.Context, cartID, productID string) error {
	// productId is part of the filter so the updatedAt bump never counts as a modification
	filter := bson.M{
		"cartId":                   cartID,
		"productsInCart.productId": productID,
	}
	update := bson.M{
		"$pull": bson.M{
			"productsInCart": bson.M{"productId": productID},
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	if result.ModifiedCount == 0 {
		return m.missing(ctx, cartID)
	}

	return nil
}

func (m *mongoRepository) RemoveItemFromAllCarts(ctx context.Context, productID string) (int64, error) {
	filter := bson.M{"productsInCart.productId": productID}
	update := bson.M{
		"$pull": bson.M{
			"productsInCart": bson.M{"productId": productID},
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := m.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to remove item from carts: %w", err)
	}

	return result.ModifiedCount, nil
}

func (m *mongoRepository) Ping(ctx context.Context) error {
	return m.collection.Database().Client().Ping(ctx, readpref.Primary())
}

// missing tells an absent cart apart from an absent item after an update matched nothing.
func (m *mongoRepository) missing(ctx context.Context, cartID string) error {
	count, err := m.collection.CountDocuments(ctx, bson.M{"cartId": cartID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check cart: %w", err)
	}
	if count == 0 {
		return ErrCartNotFound
	}
	return ErrItemNotFound
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cartId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "productsInCart.productId", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// EnsureIndexes creates the carts indexes when repo is backed by MongoDB.
func EnsureIndexes(ctx context.Context, repo CartRepository) error {
	mr, ok := repo.(*mongoRepository)
	if !ok {
		return nil
	}
	return mr.CreateIndexes(ctx)
}

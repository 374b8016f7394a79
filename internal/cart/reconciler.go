// Package cart removes ordered lines from a user's cart after an order is
// placed and keeps the cart total consistent with its remaining lines.
package cart

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// RemoveOrdered drops every cart line whose product was ordered, regardless
// of quantity (the order may have used a different quantity than the cart
// holds), and returns the remaining lines with their recomputed total.
func RemoveOrdered(items []models.CartItem, orderedProductIDs []primitive.ObjectID) ([]models.CartItem, int64) {
	ordered := make(map[string]struct{}, len(orderedProductIDs))
	for _, id := range orderedProductIDs {
		ordered[id.Hex()] = struct{}{}
	}

	remaining := make([]models.CartItem, 0, len(items))
	var total int64
	for _, item := range items {
		if _, ok := ordered[item.ProductID.Hex()]; ok {
			continue
		}
		remaining = append(remaining, item)
		total += item.Price
	}
	return remaining, total
}

// Reconciler applies RemoveOrdered against the stored cart.
type Reconciler struct {
	coll *mongo.Collection
}

func NewReconciler(db *mongo.Database) *Reconciler {
	return &Reconciler{coll: db.Collection("carts")}
}

// ReconcileAfterOrder removes the ordered lines from the user's cart and
// recomputes its total. A user without a cart is a no-op, not an error.
func (r *Reconciler) ReconcileAfterOrder(ctx context.Context, userID primitive.ObjectID, orderedProductIDs []primitive.ObjectID) error {
	var c models.Cart
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}

	remaining, total := RemoveOrdered(c.Items, orderedProductIDs)

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"items":      remaining,
		"totalPrice": total,
		"updatedAt":  time.Now(),
	}})
	return err
}

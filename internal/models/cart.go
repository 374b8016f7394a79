package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem keeps the line price as computed when the item was added; it
// already encodes the quantity.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     int64              `bson:"price" json:"price"`
}

// Cart is the per-user working set, one document per user.
type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Items      []CartItem         `bson:"items" json:"items"`
	TotalPrice int64              `bson:"totalPrice" json:"totalPrice"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

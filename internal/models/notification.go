package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationTypeOrder   = "order"
	NotificationTypePayment = "payment"
)

// Notification is a stored message for a user; UserID nil targets admins.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    *primitive.ObjectID `bson:"userId" json:"userId"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Type      string              `bson:"type" json:"type"`
	OrderID   *primitive.ObjectID `bson:"orderId,omitempty" json:"orderId,omitempty"`
	IsRead    bool                `bson:"isRead" json:"isRead"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}

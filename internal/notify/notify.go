// Package notify is the client for the notification collaborator. Delivery
// is best-effort: the order core logs failures and never lets them fail or
// roll back the mutation that triggered them.
package notify

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// Input is one message to deliver.
type Input struct {
	Title   string
	Message string
	Type    string
	OrderID *primitive.ObjectID
}

type Dispatcher struct {
	coll *mongo.Collection
}

func NewDispatcher(db *mongo.Database) *Dispatcher {
	return &Dispatcher{coll: db.Collection("notifications")}
}

func (d *Dispatcher) NotifyUser(ctx context.Context, userID primitive.ObjectID, n Input) error {
	return d.insert(ctx, &userID, n)
}

// NotifyAdmin stores a notification with no user target; the admin dashboard
// picks those up.
func (d *Dispatcher) NotifyAdmin(ctx context.Context, n Input) error {
	return d.insert(ctx, nil, n)
}

func (d *Dispatcher) insert(ctx context.Context, userID *primitive.ObjectID, n Input) error {
	_, err := d.coll.InsertOne(ctx, models.Notification{
		UserID:    userID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		OrderID:   n.OrderID,
		CreatedAt: time.Now(),
	})
	return err
}

package order

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// MongoStore persists orders in the "orders" collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("orders")}
}

func (s *MongoStore) Insert(ctx context.Context, o *models.Order) (primitive.ObjectID, error) {
	res, err := s.coll.InsertOne(ctx, o)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *MongoStore) List(ctx context.Context, f Filter, page, limit int64) ([]models.Order, int64, error) {
	filter := bson.M{}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	created := bson.M{}
	if f.From != nil {
		created["$gte"] = *f.From
	}
	if f.To != nil {
		created["$lte"] = *f.To
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *MongoStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (bool, error) {
	// Conditional on the order not being terminal: a concurrent move into
	// delivered or canceled matches nothing instead of being overwritten.
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$nin": bson.A{models.StatusDelivered, models.StatusCanceled}}},
		bson.M{"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Err(); errors.Is(err, mongo.ErrNoDocuments) {
		return false, ErrOrderNotFound
	} else if err != nil {
		return false, err
	}
	return false, nil
}

func (s *MongoStore) CancelIfPending(ctx context.Context, id primitive.ObjectID, reason string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"status":       models.StatusCanceled,
			"cancelReason": reason,
			"updatedAt":    time.Now(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus, method string, when time.Time) error {
	set := bson.M{
		"paymentStatus": status,
		"paymentDate":   when,
		"updatedAt":     when,
	}
	if method != "" {
		set["paymentMethod"] = method
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *MongoStore) MarkPaidByTransactionID(ctx context.Context, appTransID string, zpTransID int64, when time.Time) (*models.Order, bool, error) {
	// Conditional on paymentStatus still pending: a redelivered callback
	// matches nothing and the whole call is a no-op.
	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var o models.Order
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"transactionId": appTransID, "paymentStatus": models.PaymentPending},
		bson.M{"$set": bson.M{
			"paymentStatus":        models.PaymentPaid,
			"paymentDate":          when,
			"gatewayTransactionId": strconv.FormatInt(zpTransID, 10),
			"updatedAt":            when,
		}},
		opts,
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// A freshly paid order still sitting at pending fulfillment advances to
	// confirmed. Conditional again: an admin may have moved it meanwhile.
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": o.ID, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": models.StatusConfirmed, "updatedAt": when}},
	)
	if err != nil {
		return nil, false, err
	}
	if res.ModifiedCount == 1 {
		o.Status = models.StatusConfirmed
	}

	return &o, true, nil
}

// BeginRefund wins at most once: the filter excludes refunded orders and
// orders another caller already claimed, so two concurrent refund requests
// cannot both reach the gateway.
func (s *MongoStore) BeginRefund(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{
			"_id":              id,
			"paymentStatus":    bson.M{"$ne": models.PaymentRefunded},
			"refundInProgress": bson.M{"$ne": true},
		},
		bson.M{"$set": bson.M{"refundInProgress": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Err(); errors.Is(err, mongo.ErrNoDocuments) {
		return false, ErrOrderNotFound
	} else if err != nil {
		return false, err
	}
	return false, nil
}

func (s *MongoStore) AbortRefund(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$unset": bson.M{"refundInProgress": ""}, "$set": bson.M{"updatedAt": time.Now()}})
	return err
}

func (s *MongoStore) MarkRefunded(ctx context.Context, id primitive.ObjectID, refundID string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"paymentStatus": models.PaymentRefunded,
			"status":        models.StatusCanceled,
			"refundId":      refundID,
			"updatedAt":     time.Now(),
		},
		"$unset": bson.M{"refundInProgress": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

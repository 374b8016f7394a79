package coupon

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// MongoStore persists coupons in the "coupons" collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("coupons")}
}

func (s *MongoStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := s.coll.FindOne(ctx, bson.M{"code": code}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// IncrementUsage increments usedCount only while a slot remains. The limit
// check and the increment are one filtered update, so two redemptions racing
// for the last slot cannot both win.
func (s *MongoStore) IncrementUsage(ctx context.Context, code string) error {
	filter := bson.M{
		"code": code,
		"$or": bson.A{
			bson.M{"usageLimit": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$usageLimit"}}},
		},
	}
	update := bson.M{"$inc": bson.M{"usedCount": 1}}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the code vanished or the last slot was taken concurrently.
		if _, err := s.FindByCode(ctx, code); err != nil {
			return err
		}
		return ErrCouponExhausted
	}
	return nil
}

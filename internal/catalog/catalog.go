// Package catalog is the read model the order core prices against. The core
// never writes products.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

const cacheTTL = time.Minute

type Service struct {
	coll  *mongo.Collection
	redis *redis.Client
}

// NewService builds the catalog reader. redisClient may be nil; caching is
// then skipped entirely.
func NewService(db *mongo.Database, redisClient *redis.Client) *Service {
	return &Service{coll: db.Collection("products"), redis: redisClient}
}

// GetProduct returns the product snapshot or (nil, nil) when it does not
// exist. Cache failures fall through to Mongo.
func (s *Service) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	cacheKey := fmt.Sprintf("product:%s", id.Hex())

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var p models.Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	var p models.Product
	err := s.coll.FindOne(ctx, bson.M{
		"_id":       id,
		"isDeleted": bson.M{"$ne": true},
	}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(p); err == nil {
			s.redis.Set(ctx, cacheKey, data, cacheTTL)
		}
	}

	return &p, nil
}

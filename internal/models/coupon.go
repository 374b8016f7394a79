package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"
)

// Coupon is a shared reference entity; many orders may point at one code.
// UsageLimit nil means unlimited.
type Coupon struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code               string             `bson:"code" json:"code"`
	DiscountType       string             `bson:"discountType" json:"discountType"`
	DiscountValue      int64              `bson:"discountValue" json:"discountValue"`
	MinimumOrderAmount int64              `bson:"minimumOrderAmount" json:"minimumOrderAmount"`
	UsageLimit         *int64             `bson:"usageLimit" json:"usageLimit"`
	UsedCount          int64              `bson:"usedCount" json:"usedCount"`
	ExpirationDate     time.Time          `bson:"expirationDate" json:"expirationDate"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

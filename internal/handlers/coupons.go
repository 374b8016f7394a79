package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/models"
)

// CouponValidator previews eligibility without consuming a usage slot.
type CouponValidator interface {
	Validate(ctx context.Context, code string, orderAmount int64) (int64, *models.Coupon, error)
}

type applyCouponRequest struct {
	Code        string `json:"code" binding:"required"`
	OrderAmount int64  `json:"orderAmount" binding:"required"`
}

// ApplyCoupon is the preview endpoint: it reports the discount a coupon
// would grant but never increments usedCount. Redemption happens only inside
// order creation.
func ApplyCoupon(validator CouponValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /coupons/apply"
		defer handlePanic(c, route)

		var req applyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "code and orderAmount are required")
			return
		}

		discount, cpn, err := validator.Validate(c.Request.Context(), req.Code, req.OrderAmount)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		respondSuccess(c, http.StatusOK, "coupon is valid", gin.H{
			"code":           cpn.Code,
			"discountType":   cpn.DiscountType,
			"discountAmount": discount,
			"finalAmount":    req.OrderAmount - discount,
		})
	}
}

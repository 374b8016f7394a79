package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/coupon"
	"backend/internal/middleware"
	"backend/internal/order"
	"backend/internal/pricing"
	"backend/internal/zalopay"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		slog.Error("panic recovered", "route", route, "panic", r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
	}
}

func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// respondDomainError maps the error taxonomy onto HTTP statuses. Unexpected
// errors get a generic message; the detail stays in the server log.
func respondDomainError(c *gin.Context, route string, err error) {
	var (
		validationErr  order.ValidationError
		conflictErr    order.ConflictError
		qtyErr         pricing.InvalidQuantityError
		notFoundErr    pricing.ProductNotFoundError
		unavailableErr pricing.ProductUnavailableError
		providerErr    zalopay.ProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, validationErr.Msg)
	case errors.As(err, &qtyErr), errors.As(err, &unavailableErr):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, coupon.ErrCouponNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, coupon.ErrCouponInactive),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrCouponExhausted),
		errors.Is(err, coupon.ErrOrderBelowMinimum):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrForbidden):
		respondError(c, http.StatusForbidden, "forbidden")
	case errors.As(err, &conflictErr):
		respondError(c, http.StatusConflict, conflictErr.Msg)
	case errors.As(err, &providerErr):
		respondError(c, http.StatusBadGateway, providerErr.Message)
	case errors.Is(err, zalopay.ErrGatewayUnavailable):
		respondError(c, http.StatusBadGateway, "payment gateway unavailable")
	default:
		slog.Error("unexpected error", "route", route, "error", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func actorFromContext(c *gin.Context) (order.Actor, bool) {
	userID, ok := c.Get("userId")
	if !ok {
		return order.Actor{}, false
	}
	id, ok := userID.(primitive.ObjectID)
	if !ok {
		return order.Actor{}, false
	}
	role, _ := c.Get("role")
	roleStr, _ := role.(string)
	return order.Actor{UserID: id, IsAdmin: roleStr == middleware.RoleAdmin}, true
}

func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	page := int64(1)
	limit := int64(20)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, errors.New("invalid page")
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, errors.New("invalid limit")
		}
		limit = l
	}

	return page, limit, nil
}

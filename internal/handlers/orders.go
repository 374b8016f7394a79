package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/order"
)

type createOrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type shippingAddressRequest struct {
	ReceiverName string `json:"receiverName" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Address      string `json:"address" binding:"required"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" binding:"required"`
	CouponCode      string                   `json:"couponCode"`
	PaymentMethod   string                   `json:"paymentMethod" binding:"required"`
	ShippingAddress shippingAddressRequest   `json:"shippingAddress" binding:"required"`
}

func CreateOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		actor, ok := actorFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request body")
			return
		}

		items := make([]order.CreateItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, order.CreateItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		result, err := svc.Create(c.Request.Context(), actor.UserID, order.CreateInput{
			Items:         items,
			CouponCode:    req.CouponCode,
			PaymentMethod: req.PaymentMethod,
			ShippingAddress: models.ShippingAddress{
				ReceiverName: req.ShippingAddress.ReceiverName,
				Phone:        req.ShippingAddress.Phone,
				Address:      req.ShippingAddress.Address,
			},
		})
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		data := gin.H{"order": result.Order}
		if result.PaymentURL != "" {
			data["paymentUrl"] = result.PaymentURL
			data["paymentToken"] = result.PaymentToken
		}
		respondSuccess(c, http.StatusCreated, "order created", data)
	}
}

func GetMyOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/my-orders"
		defer handlePanic(c, route)

		actor, ok := actorFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		orders, err := svc.ListByUser(c.Request.Context(), actor.UserID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "orders fetched", orders)
	}
}

func GetOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		actor, ok := actorFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid order id")
			return
		}

		o, err := svc.GetByID(c.Request.Context(), orderID, actor)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "order fetched", o)
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func CancelOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/cancel"
		defer handlePanic(c, route)

		actor, ok := actorFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid order id")
			return
		}

		var req cancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "cancel reason is required")
			return
		}

		if err := svc.Cancel(c.Request.Context(), orderID, req.Reason, actor); err != nil {
			respondDomainError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "order canceled", nil)
	}
}

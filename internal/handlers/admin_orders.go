package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/order"
	"backend/internal/zalopay"
)

// ListOrders is the admin listing: filterable by status and creation date
// range, paginated.
func ListOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid pagination parameters")
			return
		}

		var filter order.Filter
		if statusStr := c.Query("status"); statusStr != "" {
			status, err := models.ToOrderStatus(statusStr)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid status filter")
				return
			}
			filter.Status = &status
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
				return
			}
			filter.From = &from
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
				return
			}
			end := to.Add(24*time.Hour - time.Nanosecond)
			filter.To = &end
		}

		orders, total, err := svc.List(c.Request.Context(), filter, page, limit)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "orders fetched", gin.H{
			"orders": orders,
			"total":  total,
			"page":   page,
			"limit":  limit,
		})
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func UpdateOrderStatus(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/orders/:id/status"
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

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "status is required")
			return
		}

		status, err := models.ToOrderStatus(req.Status)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid order status")
			return
		}

		if err := svc.UpdateStatus(c.Request.Context(), orderID, status, actor); err != nil {
			respondDomainError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "order status updated", nil)
	}
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

func UpdateOrderPayment(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/orders/:id/payment"
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

		var req updatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "paymentStatus is required")
			return
		}

		status, err := models.ToPaymentStatus(req.PaymentStatus)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid payment status")
			return
		}

		if err := svc.UpdatePaymentStatus(c.Request.Context(), orderID, status, req.PaymentMethod, actor); err != nil {
			respondDomainError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "payment status updated", nil)
	}
}

type refundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func RefundOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:id/refund"
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

		var req refundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "refund reason is required")
			return
		}

		refundID, err := svc.Refund(c.Request.Context(), orderID, req.Reason, actor)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "refund issued", gin.H{"refundId": refundID})
	}
}

// QueryOrderPayment is the manual recovery path when a gateway callback was
// lost: it asks the provider for the transaction state and, on a confirmed
// payment, applies the same transition a callback would.
func QueryOrderPayment(svc *order.Service, gw *zalopay.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:id/payment-status"
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
		if o.TransactionID == nil {
			respondError(c, http.StatusConflict, "order has no payment attempt")
			return
		}

		resp, err := gw.QueryPayment(c.Request.Context(), *o.TransactionID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		if resp.ReturnCode == zalopay.ReturnCodeSuccess && !resp.IsProcessing {
			if err := svc.ApplyGatewayCallback(c.Request.Context(), *o.TransactionID, resp.ZPTransID); err != nil {
				respondDomainError(c, route, err)
				return
			}
		}

		respondSuccess(c, http.StatusOK, "payment status fetched", gin.H{
			"returnCode":    resp.ReturnCode,
			"returnMessage": resp.ReturnMessage,
			"isProcessing":  resp.IsProcessing,
			"amount":        resp.Amount,
		})
	}
}

func QueryOrderRefund(svc *order.Service, gw *zalopay.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:id/refund-status"
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
		if o.RefundID == nil {
			respondError(c, http.StatusConflict, "order has no refund attempt")
			return
		}

		resp, err := gw.QueryRefund(c.Request.Context(), *o.RefundID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "refund status fetched", gin.H{
			"returnCode":    resp.ReturnCode,
			"returnMessage": resp.ReturnMessage,
		})
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/zalopay"
)

// CallbackVerifier checks the HMAC over the raw callback data.
type CallbackVerifier interface {
	VerifyCallback(rawData, mac string) error
}

// CallbackApplier reconciles a verified callback with the order it belongs
// to.
type CallbackApplier interface {
	ApplyGatewayCallback(ctx context.Context, appTransID string, zpTransID int64) error
}

// ZaloPayCallback receives the provider's payment notifications. Whatever
// happens, it answers the provider's acknowledgement shape, never the
// application envelope and never a transport error: the provider retries
// indefinitely on anything else.
func ZaloPayCallback(verifier CallbackVerifier, applier CallbackApplier) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in gateway callback", "panic", r)
				c.JSON(http.StatusOK, zalopay.CallbackAck{ReturnCode: zalopay.AckInternalError, ReturnMessage: "internal error"})
			}
		}()

		var envelope zalopay.CallbackEnvelope
		if err := c.ShouldBindJSON(&envelope); err != nil {
			c.JSON(http.StatusOK, zalopay.CallbackAck{ReturnCode: zalopay.AckInternalError, ReturnMessage: "malformed body"})
			return
		}

		if err := verifier.VerifyCallback(envelope.Data, envelope.MAC); err != nil {
			// Fail closed: no mutation on a signature mismatch.
			c.JSON(http.StatusOK, zalopay.CallbackAck{ReturnCode: zalopay.AckInvalidMAC, ReturnMessage: "mac not equal"})
			return
		}

		var data zalopay.CallbackData
		if err := json.Unmarshal([]byte(envelope.Data), &data); err != nil {
			c.JSON(http.StatusOK, zalopay.CallbackAck{ReturnCode: zalopay.AckInternalError, ReturnMessage: "malformed data"})
			return
		}

		if err := applier.ApplyGatewayCallback(c.Request.Context(), data.AppTransID, data.ZPTransID); err != nil {
			slog.Error("gateway callback processing failed", "appTransId", data.AppTransID, "error", err)
			c.JSON(http.StatusOK, zalopay.CallbackAck{ReturnCode: zalopay.AckInternalError, ReturnMessage: "internal error"})
			return
		}

		c.JSON(http.StatusOK, zalopay.CallbackAck{ReturnCode: zalopay.AckAccepted, ReturnMessage: "success"})
	}
}

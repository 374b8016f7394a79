package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/config"
	"backend/internal/zalopay"
)

const testKey2 = "kLtgPl8HHhfvMuDHPwKfgfsY4Ydm9eIz"

type recordingApplier struct {
	calls      int
	appTransID string
	zpTransID  int64
	err        error
}

func (a *recordingApplier) ApplyGatewayCallback(_ context.Context, appTransID string, zpTransID int64) error {
	a.calls++
	a.appTransID = appTransID
	a.zpTransID = zpTransID
	return a.err
}

func signWithKey2(data string) string {
	mac := hmac.New(sha256.New, []byte(testKey2))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func callbackRouter(applier *recordingApplier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	verifier := zalopay.NewClient(config.ZaloPay{Key2: testKey2})

	r := gin.New()
	r.POST("/payments/zalopay/callback", ZaloPayCallback(verifier, applier))
	return r
}

func postCallback(t *testing.T, r *gin.Engine, body interface{}) zalopay.CallbackAck {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/zalopay/callback", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// The provider retries on transport errors, so the handler always
	// answers 200 with an acknowledgement body.
	require.Equal(t, http.StatusOK, w.Code)

	var ack zalopay.CallbackAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	return ack
}

func TestZaloPayCallbackAccepted(t *testing.T) {
	applier := &recordingApplier{}
	r := callbackRouter(applier)

	data := `{"app_trans_id":"250314_123456","zp_trans_id":240331000000123,"amount":76500}`
	ack := postCallback(t, r, zalopay.CallbackEnvelope{Data: data, MAC: signWithKey2(data)})

	assert.Equal(t, zalopay.AckAccepted, ack.ReturnCode)
	assert.Equal(t, 1, applier.calls)
	assert.Equal(t, "250314_123456", applier.appTransID)
	assert.Equal(t, int64(240331000000123), applier.zpTransID)
}

func TestZaloPayCallbackBadMAC(t *testing.T) {
	applier := &recordingApplier{}
	r := callbackRouter(applier)

	data := `{"app_trans_id":"250314_123456","zp_trans_id":240331000000123}`
	ack := postCallback(t, r, zalopay.CallbackEnvelope{Data: data, MAC: "deadbeef"})

	assert.Equal(t, zalopay.AckInvalidMAC, ack.ReturnCode)
	assert.Equal(t, "mac not equal", ack.ReturnMessage)
	assert.Equal(t, 0, applier.calls, "no order mutation on signature mismatch")
}

func TestZaloPayCallbackTamperedData(t *testing.T) {
	applier := &recordingApplier{}
	r := callbackRouter(applier)

	data := `{"app_trans_id":"250314_123456","amount":76500}`
	mac := signWithKey2(data)
	tampered := `{"app_trans_id":"250314_123456","amount":1}`

	ack := postCallback(t, r, zalopay.CallbackEnvelope{Data: tampered, MAC: mac})
	assert.Equal(t, zalopay.AckInvalidMAC, ack.ReturnCode)
	assert.Equal(t, 0, applier.calls)
}

func TestZaloPayCallbackInternalErrorStillAcknowledges(t *testing.T) {
	applier := &recordingApplier{err: errors.New("db down")}
	r := callbackRouter(applier)

	data := `{"app_trans_id":"250314_123456","zp_trans_id":1}`
	ack := postCallback(t, r, zalopay.CallbackEnvelope{Data: data, MAC: signWithKey2(data)})

	assert.Equal(t, zalopay.AckInternalError, ack.ReturnCode)
}

func TestZaloPayCallbackMalformedBody(t *testing.T) {
	applier := &recordingApplier{}
	r := callbackRouter(applier)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/zalopay/callback", bytes.NewReader([]byte("not json")))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var ack zalopay.CallbackAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, zalopay.AckInternalError, ack.ReturnCode)
	assert.Equal(t, 0, applier.calls)
}

package zalopay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/config"
)

func testConfig(createURL, refundURL, queryURL, refundQueryURL string) config.ZaloPay {
	return config.ZaloPay{
		AppID:               2553,
		Key1:                "PcY4iZIKFCIdgZvA6ueMcMHHUbRLYjPL",
		Key2:                "kLtgPl8HHhfvMuDHPwKfgfsY4Ydm9eIz",
		CreateEndpoint:      createURL,
		RefundEndpoint:      refundURL,
		QueryEndpoint:       queryURL,
		RefundQueryEndpoint: refundQueryURL,
		CallbackURL:         "https://shop.example.com/payments/zalopay/callback",
		Timeout:             2 * time.Second,
	}
}

func TestNewAppTransIDFormat(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^250314_\d{6}$`)

	for i := 0; i < 20; i++ {
		id := NewAppTransID(now)
		assert.Regexp(t, pattern, id)
	}
}

func TestNewRefundIDFormat(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	id := NewRefundID(now, 2553)
	assert.Regexp(t, regexp.MustCompile(fmt.Sprintf(`^250314_2553_%d\d{3}$`, now.UnixMilli())), id)
}

func TestVerifyCallback(t *testing.T) {
	c := NewClient(testConfig("", "", "", ""))

	data := `{"app_trans_id":"250314_123456","zp_trans_id":240331000000123,"amount":76500}`
	mac := hmacHex(c.cfg.Key2, data)

	assert.NoError(t, c.VerifyCallback(data, mac))

	// Any change to the raw bytes must fail closed.
	tampered := `{"app_trans_id":"250314_123456","zp_trans_id":240331000000123,"amount":99999}`
	assert.ErrorIs(t, c.VerifyCallback(tampered, mac), ErrInvalidMAC)
	assert.ErrorIs(t, c.VerifyCallback(data, "deadbeef"), ErrInvalidMAC)
}

func TestVerifyCallbackMACIsKeyedByKey2(t *testing.T) {
	c := NewClient(testConfig("", "", "", ""))

	data := `{"app_trans_id":"250314_123456"}`
	macWithKey1 := hmacHex(c.cfg.Key1, data)

	assert.ErrorIs(t, c.VerifyCallback(data, macWithKey1), ErrInvalidMAC)
}

func TestCreatePaymentSignsCanonically(t *testing.T) {
	var received map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		received = map[string]string{}
		for k := range r.PostForm {
			received[k] = r.PostForm.Get(k)
		}
		json.NewEncoder(w).Encode(CreateResponse{
			ReturnCode:    ReturnCodeSuccess,
			ReturnMessage: "Giao dịch thành công",
			OrderURL:      "https://qcgateway.zalopay.vn/openinapp?order=abc",
			ZPTransToken:  "token123",
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, "", "", ""))

	resp, err := client.CreatePayment(context.Background(), CreateOrderParams{
		AppTransID:  "250314_123456",
		AppUser:     "64f0c2a1b2c3d4e5f6a7b8c9",
		Amount:      76500,
		Description: "order #abc",
		Items: []Item{
			{ItemID: "p1", ItemName: "Rice", ItemPrice: 25000, ItemQuantity: 2},
		},
		EmbedData: map[string]string{"orderId": "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "token123", resp.ZPTransToken)

	// The server re-derives the MAC from the fields actually transmitted:
	// it only matches if the signed string used the byte-identical
	// embed_data and item values.
	macInput := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		received["app_id"], received["app_trans_id"], received["app_user"],
		received["amount"], received["app_time"], received["embed_data"], received["item"])
	assert.Equal(t, hmacHex(client.cfg.Key1, macInput), received["mac"])

	assert.Equal(t, "2553", received["app_id"])
	assert.Equal(t, "76500", received["amount"])
	assert.Equal(t, client.cfg.CallbackURL, received["callback_url"])

	var items []Item
	require.NoError(t, json.Unmarshal([]byte(received["item"]), &items))
	require.Len(t, items, 1)
	assert.Equal(t, int64(25000), items[0].ItemPrice)
}

func TestCreatePaymentProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CreateResponse{ReturnCode: ReturnCodeFailure, ReturnMessage: "app_id invalid"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, "", "", ""))

	_, err := client.CreatePayment(context.Background(), CreateOrderParams{AppTransID: "250314_000001", Amount: 1000})
	var provErr ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, ReturnCodeFailure, provErr.Code)
	assert.Equal(t, "app_id invalid", provErr.Message)
}

func TestCreatePaymentNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from now on

	client := NewClient(testConfig(server.URL, "", "", ""))

	_, err := client.CreatePayment(context.Background(), CreateOrderParams{AppTransID: "250314_000002", Amount: 1000})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestRefundSignsAndReturnsRefundID(t *testing.T) {
	var received map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		received = map[string]string{}
		for k := range r.PostForm {
			received[k] = r.PostForm.Get(k)
		}
		json.NewEncoder(w).Encode(RefundResponse{ReturnCode: ReturnCodeSuccess, ReturnMessage: "success"})
	}))
	defer server.Close()

	client := NewClient(testConfig("", server.URL, "", ""))

	_, refundID, err := client.Refund(context.Background(), RefundParams{
		ZPTransID:   240331000000123,
		Amount:      76500,
		Description: "customer cancelation",
	})
	require.NoError(t, err)
	assert.Equal(t, refundID, received["m_refund_id"])
	assert.Regexp(t, regexp.MustCompile(`^\d{6}_2553_\d+$`), refundID)

	macInput := fmt.Sprintf("%s|%s|%s|%s|%s",
		received["app_id"], received["zp_trans_id"], received["amount"],
		received["description"], received["timestamp"])
	assert.Equal(t, hmacHex(client.cfg.Key1, macInput), received["mac"])
}

func TestRefundProviderFailureSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RefundResponse{ReturnCode: ReturnCodeProcessing, ReturnMessage: "refund is processing"})
	}))
	defer server.Close()

	client := NewClient(testConfig("", server.URL, "", ""))

	_, _, err := client.Refund(context.Background(), RefundParams{ZPTransID: 1, Amount: 1000})
	var provErr ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "refund is processing", provErr.Message)
}

func TestQueryPaymentSignature(t *testing.T) {
	var received map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		received = map[string]string{}
		for k := range r.PostForm {
			received[k] = r.PostForm.Get(k)
		}
		json.NewEncoder(w).Encode(QueryResponse{ReturnCode: ReturnCodeSuccess, Amount: 76500, ZPTransID: 240331000000123})
	}))
	defer server.Close()

	client := NewClient(testConfig("", "", server.URL, ""))

	resp, err := client.QueryPayment(context.Background(), "250314_123456")
	require.NoError(t, err)
	assert.Equal(t, int64(76500), resp.Amount)

	macInput := fmt.Sprintf("%s|%s|%s", received["app_id"], received["app_trans_id"], client.cfg.Key1)
	assert.Equal(t, hmacHex(client.cfg.Key1, macInput), received["mac"])
}

func TestQueryRefundSignature(t *testing.T) {
	var received map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		received = map[string]string{}
		for k := range r.PostForm {
			received[k] = r.PostForm.Get(k)
		}
		json.NewEncoder(w).Encode(RefundQueryResponse{ReturnCode: ReturnCodeSuccess})
	}))
	defer server.Close()

	client := NewClient(testConfig("", "", "", server.URL))

	_, err := client.QueryRefund(context.Background(), "250314_2553_1742000000000123")
	require.NoError(t, err)

	macInput := fmt.Sprintf("%s|%s|%s", received["app_id"], received["m_refund_id"], received["timestamp"])
	assert.Equal(t, hmacHex(client.cfg.Key1, macInput), received["mac"])
}

func TestPostFormRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig("", "", server.URL, ""))

	_, err := client.QueryPayment(context.Background(), "250314_123456")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.False(t, errors.Is(err, ErrInvalidMAC))
}

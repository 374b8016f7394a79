// Package zalopay implements the ZaloPay v2 merchant protocol: signed
// create/refund/query requests and HMAC verification of inbound callbacks.
package zalopay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"backend/internal/config"
)

// ErrGatewayUnavailable marks network-level failures on outbound calls. The
// caller falls back to the status-query recovery path instead of retrying
// inline.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ProviderError is a well-formed provider response with a non-success code.
type ProviderError struct {
	Code    int
	Message string
}

func (e ProviderError) Error() string {
	return fmt.Sprintf("gateway refused (code %d): %s", e.Code, e.Message)
}

type Client struct {
	cfg        config.ZaloPay
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg config.ZaloPay) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

// CreatePayment sends a signed create-order request and returns the provider
// response. A non-success return code comes back as ProviderError.
func (c *Client) CreatePayment(ctx context.Context, p CreateOrderParams) (*CreateResponse, error) {
	appTime := c.now().UnixMilli()

	embed := p.EmbedData
	if embed == nil {
		embed = map[string]string{}
	}
	embedJSON, err := json.Marshal(embed)
	if err != nil {
		return nil, err
	}
	itemJSON, err := json.Marshal(p.Items)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("app_id", strconv.Itoa(c.cfg.AppID))
	form.Set("app_user", p.AppUser)
	form.Set("app_time", strconv.FormatInt(appTime, 10))
	form.Set("amount", strconv.FormatInt(p.Amount, 10))
	form.Set("app_trans_id", p.AppTransID)
	form.Set("embed_data", string(embedJSON))
	form.Set("item", string(itemJSON))
	form.Set("description", p.Description)
	form.Set("bank_code", p.BankCode)
	form.Set("callback_url", c.cfg.CallbackURL)
	form.Set("mac", c.signCreate(p.AppTransID, p.AppUser, p.Amount, appTime, string(embedJSON), string(itemJSON)))

	var resp CreateResponse
	if err := c.postForm(ctx, c.cfg.CreateEndpoint, form, &resp); err != nil {
		return nil, err
	}
	if resp.ReturnCode != ReturnCodeSuccess {
		return &resp, ProviderError{Code: resp.ReturnCode, Message: resp.ReturnMessage}
	}
	return &resp, nil
}

// Refund requests a refund of a captured gateway transaction. The generated
// m_refund_id is returned so the caller can store it before polling.
func (c *Client) Refund(ctx context.Context, p RefundParams) (*RefundResponse, string, error) {
	now := c.now()
	refundID := NewRefundID(now, c.cfg.AppID)
	timestamp := now.UnixMilli()

	form := url.Values{}
	form.Set("app_id", strconv.Itoa(c.cfg.AppID))
	form.Set("m_refund_id", refundID)
	form.Set("zp_trans_id", strconv.FormatInt(p.ZPTransID, 10))
	form.Set("amount", strconv.FormatInt(p.Amount, 10))
	form.Set("timestamp", strconv.FormatInt(timestamp, 10))
	form.Set("description", p.Description)
	form.Set("mac", c.signRefund(p.ZPTransID, p.Amount, p.Description, timestamp))

	var resp RefundResponse
	if err := c.postForm(ctx, c.cfg.RefundEndpoint, form, &resp); err != nil {
		return nil, "", err
	}
	if resp.ReturnCode != ReturnCodeSuccess {
		return &resp, refundID, ProviderError{Code: resp.ReturnCode, Message: resp.ReturnMessage}
	}
	return &resp, refundID, nil
}

// QueryPayment is the read-only recovery path when a callback was lost.
func (c *Client) QueryPayment(ctx context.Context, appTransID string) (*QueryResponse, error) {
	form := url.Values{}
	form.Set("app_id", strconv.Itoa(c.cfg.AppID))
	form.Set("app_trans_id", appTransID)
	form.Set("mac", c.signQuery(appTransID))

	var resp QueryResponse
	if err := c.postForm(ctx, c.cfg.QueryEndpoint, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryRefund checks the state of a previously requested refund.
func (c *Client) QueryRefund(ctx context.Context, refundID string) (*RefundQueryResponse, error) {
	timestamp := c.now().UnixMilli()

	form := url.Values{}
	form.Set("app_id", strconv.Itoa(c.cfg.AppID))
	form.Set("m_refund_id", refundID)
	form.Set("timestamp", strconv.FormatInt(timestamp, 10))
	form.Set("mac", c.signRefundQuery(refundID, timestamp))

	var resp RefundQueryResponse
	if err := c.postForm(ctx, c.cfg.RefundQueryEndpoint, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrGatewayUnavailable, err)
	}
	return nil
}

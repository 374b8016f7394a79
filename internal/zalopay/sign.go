package zalopay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidMAC = errors.New("mac not equal")

func hmacHex(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// signCreate signs a create request with key1. embedData and item must be
// the exact JSON strings transmitted; re-serializing with a different key
// order would break verification on the provider side.
func (c *Client) signCreate(appTransID, appUser string, amount, appTime int64, embedData, item string) string {
	input := fmt.Sprintf("%d|%s|%s|%d|%d|%s|%s",
		c.cfg.AppID, appTransID, appUser, amount, appTime, embedData, item)
	return hmacHex(c.cfg.Key1, input)
}

func (c *Client) signRefund(zpTransID, amount int64, description string, timestamp int64) string {
	input := fmt.Sprintf("%d|%d|%d|%s|%d",
		c.cfg.AppID, zpTransID, amount, description, timestamp)
	return hmacHex(c.cfg.Key1, input)
}

func (c *Client) signQuery(appTransID string) string {
	input := fmt.Sprintf("%d|%s|%s", c.cfg.AppID, appTransID, c.cfg.Key1)
	return hmacHex(c.cfg.Key1, input)
}

func (c *Client) signRefundQuery(refundID string, timestamp int64) string {
	input := fmt.Sprintf("%d|%s|%d", c.cfg.AppID, refundID, timestamp)
	return hmacHex(c.cfg.Key1, input)
}

// VerifyCallback recomputes the MAC with key2 over the exact raw data string
// received and compares in constant time. On mismatch the caller must fail
// closed and mutate nothing.
func (c *Client) VerifyCallback(rawData, mac string) error {
	expected := hmacHex(c.cfg.Key2, rawData)
	if !hmac.Equal([]byte(expected), []byte(mac)) {
		return ErrInvalidMAC
	}
	return nil
}

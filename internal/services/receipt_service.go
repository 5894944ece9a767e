package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/facepay/backend/internal/models"
)

var (
	ErrReceiptUnavailable = errors.New("receipts unavailable")
	ErrReceiptInvalid     = errors.New("invalid or expired receipt")
	ErrOrderNotPaid       = errors.New("order is not paid")
)

// ReceiptService issues single-use pickup QR codes for paid orders. Tokens
// live in Redis with a TTL and are deleted on redemption, so a receipt can
// be shown at the counter exactly once.
type ReceiptService struct {
	checkout *CheckoutService
	redis    *redis.Client
	timeout  time.Duration
}

func NewReceiptService(checkout *CheckoutService, redisClient *redis.Client, timeout time.Duration) *ReceiptService {
	return &ReceiptService{
		checkout: checkout,
		redis:    redisClient,
		timeout:  timeout,
	}
}

type ReceiptClaim struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Total     int64  `json:"total"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
}

// IssueReceipt generates a QR receipt for a paid order. Returns the token
// and a base64 PNG of the QR image.
func (s *ReceiptService) IssueReceipt(ctx context.Context, orderID string) (string, string, error) {
	if s.redis == nil {
		return "", "", ErrReceiptUnavailable
	}

	order, err := s.checkout.GetOrder(ctx, orderID)
	if err != nil {
		return "", "", err
	}
	if order.Status != models.OrderStatusPaid {
		return "", "", ErrOrderNotPaid
	}

	claim := ReceiptClaim{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
		Timestamp: time.Now().Unix(),
		Nonce:     generateNonce(),
	}

	jsonData, err := json.Marshal(claim)
	if err != nil {
		return "", "", err
	}

	token := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("receipt:%s", token)
	if err := s.redis.Set(ctx, key, jsonData, s.timeout).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(token, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return token, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// RedeemReceipt validates a scanned receipt token and consumes it.
func (s *ReceiptService) RedeemReceipt(ctx context.Context, token string) (*ReceiptClaim, error) {
	if s.redis == nil {
		return nil, ErrReceiptUnavailable
	}

	key := fmt.Sprintf("receipt:%s", token)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrReceiptInvalid
	}
	if err != nil {
		return nil, err
	}

	var claim ReceiptClaim
	if err := json.Unmarshal(data, &claim); err != nil {
		return nil, err
	}

	s.redis.Del(ctx, key)

	return &claim, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

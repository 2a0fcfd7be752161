package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
)

// GatewayOrder is the subset of a gateway order the rest of the
// system cares about. Amount is in the gateway's minor unit (paise).
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// GatewayPayment is the server-to-server view of a payment used to
// confirm capture independently of anything the client reported.
type GatewayPayment struct {
	ID       string
	Status   string
	Method   string
	Bank     string
	Wallet   string
	VPA      string
	CardID   string
	Amount   int64
	Currency string
}

// PaymentGateway is what PaymentService needs from a gateway. The
// production implementation is RazorpayService; tests stub it.
type PaymentGateway interface {
	// CreateOrder creates a gateway order and returns it along with
	// the idempotency key that was attached to the request.
	CreateOrder(amountMinor int64, currency, receipt string, notes map[string]interface{}) (*GatewayOrder, string, error)
	// FetchPayment looks a payment up with server credentials.
	FetchPayment(paymentID string) (*GatewayPayment, error)
	// VerifySignature checks the client-reported signature over
	// order and payment ids. Constant time.
	VerifySignature(orderID, paymentID, signature string) bool
	// KeyID is the publishable key the client needs to open the
	// payment widget.
	KeyID() string
}

// RazorpayService wraps the Razorpay SDK client.
type RazorpayService struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
}

func NewRazorpayService(keyID, keySecret string) *RazorpayService {
	return &RazorpayService{
		client:    razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

func (s *RazorpayService) KeyID() string { return s.keyID }

// CreateOrder creates an order with payment capture enabled. A fresh
// UUID idempotency key is attached per attempt so a gateway-side retry
// cannot double-create.
func (s *RazorpayService) CreateOrder(amountMinor int64, currency, receipt string, notes map[string]interface{}) (*GatewayOrder, string, error) {
	idempotencyKey := uuid.NewString()

	data := map[string]interface{}{
		"amount":          amountMinor,
		"currency":        currency,
		"receipt":         receipt,
		"notes":           notes,
		"payment_capture": 1,
	}
	headers := map[string]string{
		"Idempotency-Key": idempotencyKey,
	}

	body, err := s.client.Order.Create(data, headers)
	if err != nil {
		return nil, "", fmt.Errorf("razorpay order create: %w", err)
	}

	order := &GatewayOrder{
		ID:       asString(body["id"]),
		Amount:   asInt64(body["amount"]),
		Currency: asString(body["currency"]),
	}
	if order.ID == "" {
		return nil, "", fmt.Errorf("razorpay order create: response missing order id")
	}
	return order, idempotencyKey, nil
}

// FetchPayment fetches payment details from the gateway.
func (s *RazorpayService) FetchPayment(paymentID string) (*GatewayPayment, error) {
	body, err := s.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay payment fetch: %w", err)
	}

	return &GatewayPayment{
		ID:       asString(body["id"]),
		Status:   asString(body["status"]),
		Method:   asString(body["method"]),
		Bank:     asString(body["bank"]),
		Wallet:   asString(body["wallet"]),
		VPA:      asString(body["vpa"]),
		CardID:   asString(body["card_id"]),
		Amount:   asInt64(body["amount"]),
		Currency: asString(body["currency"]),
	}, nil
}

// VerifySignature recomputes HMAC-SHA256 over "order_id|payment_id"
// with the key secret and compares the hex encoding against the
// client-supplied signature in constant time. The client-reported
// payment status is never trusted without this check passing.
func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign is the counterpart of VerifySignature, exposed for tests and
// tooling that need to produce a valid signature.
func (s *RazorpayService) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"go.uber.org/zap"
)

// GatewayOrderRequest is the payload for creating a remote payment order
type GatewayOrderRequest struct {
	Amount   int64             `json:"amount"` // paise
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// GatewayOrder is a payment order as returned by the gateway
type GatewayOrder struct {
	ID       string            `json:"id"`
	Entity   string            `json:"entity"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

// PaymentGateway creates remote payment orders
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	// KeyID is the public key the browser checkout needs
	KeyID() string
}

var gatewayInstance PaymentGateway

// GetGateway returns the configured payment gateway
func GetGateway() PaymentGateway {
	return gatewayInstance
}

// SetGateway sets the payment gateway (primarily for testing)
func SetGateway(gw PaymentGateway) {
	gatewayInstance = gw
}

// RazorpayGateway talks to the Razorpay orders API
type RazorpayGateway struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewRazorpayGateway creates a gateway client with a bounded request timeout
func NewRazorpayGateway(cfg *config.Config) *RazorpayGateway {
	return &RazorpayGateway{
		baseURL:   strings.TrimRight(cfg.RazorpayBaseURL, "/"),
		keyID:     cfg.RazorpayKeyID,
		keySecret: cfg.RazorpayKeySecret,
		httpClient: &http.Client{
			Timeout: cfg.GatewayTimeout,
		},
	}
}

// KeyID returns the public key id
func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// CreateOrder posts a new order to the gateway. A timeout means the outcome is
// unknown: the order may exist remotely, so callers must not retry blindly.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, newError(ErrGateway, "GATEWAY_TIMEOUT", "Payment gateway did not respond; the payment outcome is unknown", err)
		}
		return nil, newError(ErrGateway, "GATEWAY_UNAVAILABLE", "Payment gateway is unavailable", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			zap.L().Warn("failed to close gateway response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, newError(ErrGateway, "GATEWAY_ERROR", "Payment gateway rejected the order",
			fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body)))
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, newError(ErrGateway, "GATEWAY_ERROR", "Payment gateway returned an invalid response", err)
	}
	if order.ID == "" {
		return nil, newError(ErrGateway, "GATEWAY_ERROR", "Payment gateway returned an invalid response", errors.New("missing order id"))
	}
	return &order, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// SignPayment computes hex(HMAC_SHA256(secret, orderID + "|" + paymentID))
func SignPayment(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a payment callback signature in constant time
func VerifySignature(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := SignPayment(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

package services

import (
	"context"
	"fmt"
	"sync"
)

// MockGateway is an in-process PaymentGateway for testing
type MockGateway struct {
	mu     sync.Mutex
	seq    int
	orders []GatewayOrder
	Err    error // returned by CreateOrder when set
}

// NewMockGateway creates a new mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// SetAsMockForTesting sets this mock as the global gateway for testing
func (m *MockGateway) SetAsMockForTesting() {
	SetGateway(m)
}

// CreateOrder records the request and returns a sequential order id
func (m *MockGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	order := GatewayOrder{
		ID:       fmt.Sprintf("order_mock%06d", m.seq),
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}
	m.orders = append(m.orders, order)
	return &order, nil
}

// KeyID returns a fixed test key
func (m *MockGateway) KeyID() string {
	return "rzp_test_mock"
}

// Orders returns the orders created so far
func (m *MockGateway) Orders() []GatewayOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GatewayOrder(nil), m.orders...)
}

package payment

import (
	"context"
	"fmt"
	"sync"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in tests and local runs.
type NoopPaymentGateway struct {
	mu     sync.Mutex
	seq    int64
	orders map[string]adapter.OrderRequest // order id -> request
	keys   map[string]string               // order id -> key id used
	Fail   error                           // when set, CreateOrder fails with it
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		orders: make(map[string]adapter.OrderRequest),
		keys:   make(map[string]string),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("order_noop%d", g.seq)
}

func (g *NoopPaymentGateway) CreateOrder(ctx context.Context, creds adapter.Credentials, req adapter.OrderRequest) (*adapter.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, g.Fail)
	}
	if !creds.Complete() {
		return nil, fmt.Errorf("%w: missing credentials", domain.ErrGatewayFailure)
	}
	id := g.next()
	g.orders[id] = req
	g.keys[id] = creds.KeyID
	return &adapter.Order{
		ID:       id,
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

// Request returns what was sent for an order id and which key created it.
func (g *NoopPaymentGateway) Request(orderID string) (adapter.OrderRequest, string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.orders[orderID]
	return r, g.keys[orderID], ok
}

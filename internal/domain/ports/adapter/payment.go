package adapter

import (
	"context"

	"chitfund-backend/internal/domain/model"
)

// Credentials is one gateway key pair, either the platform's or a merchant's.
type Credentials struct {
	KeyID     string
	KeySecret string
}

func (c Credentials) Complete() bool { return c.KeyID != "" && c.KeySecret != "" }

// OrderRequest is a provider-agnostic order creation call. Amounts are minor units.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
	Transfers   []model.Transfer
}

// Order is the provider's view of a created order.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
	Raw      map[string]interface{}
}

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string

	// CreateOrder registers an order under the given credentials. Provider errors
	// are wrapped with domain.ErrGatewayFailure.
	CreateOrder(ctx context.Context, creds Credentials, req OrderRequest) (*Order, error)
}

// SecretBox decrypts merchant secrets stored at rest.
type SecretBox interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

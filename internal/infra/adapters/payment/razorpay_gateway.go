package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RazorpayGateway)(nil)

const defaultRazorpayBaseURL = "https://api.razorpay.com"

// RazorpayGateway creates orders against the Razorpay Orders API.
// Credentials are passed per call so platform and merchant keys share one client.
type RazorpayGateway struct {
	client *resty.Client
}

func NewRazorpayGateway(baseURL string, timeout time.Duration) *RazorpayGateway {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultRazorpayBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &RazorpayGateway{client: c}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

// ---- DTOs ----

type rzpTransfer struct {
	Account  string `json:"account"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type rzpOrderReq struct {
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt,omitempty"`
	Notes     map[string]string `json:"notes,omitempty"`
	Transfers []rzpTransfer     `json:"transfers,omitempty"`
}

type rzpOrderResp struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type rzpErrorResp struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Field       string `json:"field"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, creds adapter.Credentials, req adapter.OrderRequest) (*adapter.Order, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("%w: missing credentials", domain.ErrGatewayFailure)
	}
	if req.AmountMinor <= 0 || req.Currency == "" {
		return nil, domain.ErrInvalidArgument
	}

	body := rzpOrderReq{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}
	for _, t := range req.Transfers {
		body.Transfers = append(body.Transfers, rzpTransfer{Account: t.Account, Amount: t.Amount, Currency: t.Currency})
	}

	var out rzpOrderResp
	var apiErr rzpErrorResp
	resp, err := g.client.R().
		SetContext(ctx).
		SetBasicAuth(creds.KeyID, creds.KeySecret).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/orders")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
		}
		return nil, fmt.Errorf("%w: http: %v", domain.ErrGatewayFailure, err)
	}
	if resp.IsError() {
		detail := apiErr.Error.Description
		if detail == "" {
			detail = strings.TrimSpace(resp.String())
		}
		return nil, fmt.Errorf("%w: status=%d code=%s %s", domain.ErrGatewayFailure, resp.StatusCode(), apiErr.Error.Code, detail)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: empty order id", domain.ErrGatewayFailure)
	}

	return &adapter.Order{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		Receipt:  out.Receipt,
		Status:   out.Status,
		Raw: map[string]interface{}{
			"id":       out.ID,
			"entity":   out.Entity,
			"amount":   out.Amount,
			"currency": out.Currency,
			"receipt":  out.Receipt,
			"status":   out.Status,
		},
	}, nil
}

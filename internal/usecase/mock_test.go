//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type gatewayCall struct {
	Creds adapter.Credentials
	Req   adapter.OrderRequest
}

type MockPaymentGateway struct {
	mu    sync.Mutex
	seq   int
	Calls []gatewayCall

	CreateOrderFunc func(ctx context.Context, creds adapter.Credentials, req adapter.OrderRequest) (*adapter.Order, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mockpay" }

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, creds adapter.Credentials, req adapter.OrderRequest) (*adapter.Order, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, gatewayCall{Creds: creds, Req: req})
	m.seq++
	id := fmt.Sprintf("order_mock%d", m.seq)
	m.mu.Unlock()
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, creds, req)
	}
	return &adapter.Order{ID: id, Amount: req.AmountMinor, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

func (m *MockPaymentGateway) LastCall() gatewayCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[len(m.Calls)-1]
}

// ---- Mock SecretBox ----

// MockSecretBox "encrypts" by prefixing. Anything without the prefix fails.
type MockSecretBox struct{}

var _ adapter.SecretBox = MockSecretBox{}

func (MockSecretBox) Encrypt(plaintext string) (string, error) { return "enc:" + plaintext, nil }

func (MockSecretBox) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("cipher: message authentication failed")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

// ---- Mock NotificationUseCase ----

type sentNotice struct {
	Kind string
	To   string
	Msg  adapter.Message
}

type MockNotifications struct {
	mu   sync.Mutex
	Sent []sentNotice
}

func (m *MockNotifications) NotifyUser(ctx context.Context, userID string, msg adapter.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentNotice{Kind: "user", To: userID, Msg: msg})
}

func (m *MockNotifications) NotifyMerchant(ctx context.Context, merchantID string, msg adapter.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentNotice{Kind: "merchant", To: merchantID, Msg: msg})
}

// ---- Mock Notifier (channel) ----

type MockNotifier struct {
	mu      sync.Mutex
	Name    string
	Err     error
	Targets []model.Contact
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Channel() string { return m.Name }

func (m *MockNotifier) Notify(ctx context.Context, to model.Contact, msg adapter.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Targets = append(m.Targets, to)
	return m.Err
}

// ---- Mock ProofStore ----

type MockProofStore struct {
	Keys    []string
	PutFunc func(ctx context.Context, key, contentType string, data []byte) (string, error)
}

var _ adapter.ProofStore = (*MockProofStore)(nil)

func (m *MockProofStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	m.Keys = append(m.Keys, key)
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, contentType, data)
	}
	return "mem://" + key, nil
}

// =============================
// Repositories
// =============================

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu   sync.Mutex
	data map[string]*model.Plan

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{data: map[string]*model.Plan{}}
}

func (r *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPlanNotFound
}

func (r *MockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrPlanNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MockPlanRepo) List(ctx context.Context, tx repository.Tx, f model.PlanFilter) ([]*model.Plan, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*model.Plan
	for _, p := range r.data {
		if f.Keyword == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Keyword)) {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MockPlanRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string) ([]*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Plan
	for _, p := range r.data {
		if p.MerchantID == merchantID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MockPlanRepo) CountByMerchant(ctx context.Context, tx repository.Tx, merchantID string) (int, error) {
	plans, _ := r.ListByMerchant(ctx, tx, merchantID)
	return len(plans), nil
}

// ---- Mock SubscriptionRepository ----

// MockSubscriptionRepo enforces (plan, user) uniqueness and version checks
// like the Postgres implementation.
type MockSubscriptionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Subscription // by plan|user

	UpdateFunc func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{data: map[string]*model.Subscription{}}
}

func subKey(planID, userID string) string { return planID + "|" + userID }

func cloneSub(s *model.Subscription) *model.Subscription {
	cp := *s
	if s.Withdrawal != nil {
		w := *s.Withdrawal
		cp.Withdrawal = &w
	}
	if s.Settlement != nil {
		st := *s.Settlement
		cp.Settlement = &st
	}
	return &cp
}

func (r *MockSubscriptionRepo) Create(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := subKey(s.PlanID, s.UserID)
	if _, ok := r.data[k]; ok {
		return domain.ErrDuplicateSubscription
	}
	r.data[k] = cloneSub(s)
	return nil
}

func (r *MockSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if r.UpdateFunc != nil {
		if err := r.UpdateFunc(ctx, tx, s); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := subKey(s.PlanID, s.UserID)
	cur, ok := r.data[k]
	if !ok || cur.Version != s.Version {
		return domain.ErrConcurrentUpdate
	}
	s.Version++
	r.data[k] = cloneSub(s)
	return nil
}

func (r *MockSubscriptionRepo) FindByPlanAndUser(ctx context.Context, tx repository.Tx, planID, userID string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.data[subKey(planID, userID)]; ok {
		return cloneSub(s), nil
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (r *MockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.data {
		if s.UserID == userID {
			out = append(out, cloneSub(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanID < out[j].PlanID })
	return out, nil
}

func (r *MockSubscriptionRepo) ListByPlans(ctx context.Context, tx repository.Tx, planIDs []string) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]bool{}
	for _, id := range planIDs {
		want[id] = true
	}
	var out []*model.Subscription
	for _, s := range r.data {
		if want[s.PlanID] {
			out = append(out, cloneSub(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Payment
	seen map[string]bool // gateway payment ids

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}, seen: map[string]bool{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.GatewayPaymentID != nil {
		if r.seen[*p.GatewayPaymentID] {
			return domain.ErrPaymentAlreadyProcessed
		}
		r.seen[*p.GatewayPaymentID] = true
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPendingApproval {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (r *MockPaymentRepo) filter(keep func(p *model.Payment) bool) []*model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out
}

func (r *MockPaymentRepo) ListPendingOfflineByMerchant(ctx context.Context, tx repository.Tx, merchantID string) ([]*model.Payment, error) {
	return r.filter(func(p *model.Payment) bool {
		return p.MerchantID == merchantID && p.Type == model.PaymentTypeOffline && p.IsPending()
	}), nil
}

func (r *MockPaymentRepo) ListByPlanAndUser(ctx context.Context, tx repository.Tx, planID, userID string) ([]*model.Payment, error) {
	return r.filter(func(p *model.Payment) bool { return p.PlanID == planID && p.UserID == userID }), nil
}

func (r *MockPaymentRepo) ListByMerchantBetween(ctx context.Context, tx repository.Tx, merchantID string, from, to time.Time) ([]*model.Payment, error) {
	return r.filter(func(p *model.Payment) bool {
		return p.MerchantID == merchantID && !p.PaymentDate.Before(from) && p.PaymentDate.Before(to)
	}), nil
}

// Completed returns completed payments for (plan, user).
func (r *MockPaymentRepo) Completed(planID, userID string) []*model.Payment {
	return r.filter(func(p *model.Payment) bool {
		return p.PlanID == planID && p.UserID == userID && p.Status == model.PaymentStatusCompleted
	})
}

// ---- Mock OrderRepository ----

type MockOrderRepo struct {
	mu   sync.Mutex
	data map[string]*model.GatewayOrder
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{data: map[string]*model.GatewayOrder{}}
}

func (r *MockOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.GatewayOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[o.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *o
	r.data[o.ID] = &cp
	return nil
}

func (r *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GatewayOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.data[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (r *MockOrderRepo) MarkConsumed(ctx context.Context, tx repository.Tx, id, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok || o.Status != model.OrderStatusCreated {
		return false, nil
	}
	o.Status = model.OrderStatusConsumed
	o.ConsumedPaymentID = &paymentID
	return true, nil
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	data map[string]*model.User
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{data: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.data[u.ID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.data[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *MockUserRepo) FindByIDs(ctx context.Context, tx repository.Tx, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if u, err := r.FindByID(ctx, tx, id); err == nil {
			out[id] = u
		}
	}
	return out, nil
}

// ---- Mock MerchantRepository ----

type MockMerchantRepo struct {
	mu   sync.Mutex
	data map[string]*model.Merchant
}

var _ repository.MerchantRepository = (*MockMerchantRepo)(nil)

func NewMockMerchantRepo() *MockMerchantRepo {
	return &MockMerchantRepo{data: map[string]*model.Merchant{}}
}

func (r *MockMerchantRepo) Save(ctx context.Context, tx repository.Tx, m *model.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.data[m.ID] = &cp
	return nil
}

func (r *MockMerchantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.data[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, domain.ErrMerchantNotFound
}

func (r *MockMerchantRepo) ListDueForRefresh(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Merchant
	for _, m := range r.data {
		cp := *m
		if cp.Refresh(now) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	res := make([]*model.Merchant, len(out))
	for i, m := range out {
		cp := *m
		res[i] = &cp
	}
	return res, nil
}

// ---- In-memory TxManager ----

type MockTxManager struct {
	Calls      int
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

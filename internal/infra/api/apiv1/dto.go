package apiv1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/usecase"
)

// maxBodyBytes bounds JSON bodies; offline proofs arrive base64 encoded.
const maxBodyBytes = 8 << 20

var errEmptyBody = errors.New("request body is required")

// decodeJSON reads one JSON document into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errEmptyBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON: %v", err)
	}
	if err := v.Struct(dst); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}

// toMinor converts a positive major-unit amount.
func toMinor(field string, d decimal.Decimal) (int64, error) {
	m, err := model.MinorFromMajor(d)
	if err != nil {
		return 0, fmt.Errorf("%s must be a positive amount", field)
	}
	return m, nil
}

func major(minor int64) decimal.Decimal { return model.MajorFromMinor(minor) }

// parseDay accepts YYYY-MM-DD or an RFC 3339 timestamp.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ---- requests ----

type planRequest struct {
	PlanName       string           `json:"planName" validate:"required,max=120"`
	MonthlyAmount  decimal.Decimal  `json:"monthlyAmount"`
	DurationMonths int              `json:"durationMonths" validate:"required,min=1,max=240"`
	TotalAmount    *decimal.Decimal `json:"totalAmount,omitempty"`
	Description    string           `json:"description" validate:"max=2000"`
	ReturnType     string           `json:"returnType" validate:"max=60"`
}

func (p planRequest) draft() (model.PlanDraft, error) {
	monthly, err := toMinor("monthlyAmount", p.MonthlyAmount)
	if err != nil {
		return model.PlanDraft{}, err
	}
	d := model.PlanDraft{
		Name:           p.PlanName,
		MonthlyAmount:  monthly,
		DurationMonths: p.DurationMonths,
		Description:    p.Description,
		ReturnType:     p.ReturnType,
	}
	if p.TotalAmount != nil {
		if d.TotalAmount, err = toMinor("totalAmount", *p.TotalAmount); err != nil {
			return model.PlanDraft{}, err
		}
	}
	return d, nil
}

// planUpdateRequest leaves absent fields unchanged.
type planUpdateRequest struct {
	PlanName       string           `json:"planName" validate:"max=120"`
	MonthlyAmount  *decimal.Decimal `json:"monthlyAmount,omitempty"`
	DurationMonths int              `json:"durationMonths" validate:"min=0,max=240"`
	TotalAmount    *decimal.Decimal `json:"totalAmount,omitempty"`
	Description    string           `json:"description" validate:"max=2000"`
	ReturnType     string           `json:"returnType" validate:"max=60"`
}

func (p planUpdateRequest) draft() (model.PlanDraft, error) {
	d := model.PlanDraft{
		Name:           p.PlanName,
		DurationMonths: p.DurationMonths,
		Description:    p.Description,
		ReturnType:     p.ReturnType,
	}
	var err error
	if p.MonthlyAmount != nil {
		if d.MonthlyAmount, err = toMinor("monthlyAmount", *p.MonthlyAmount); err != nil {
			return model.PlanDraft{}, err
		}
	}
	if p.TotalAmount != nil {
		if d.TotalAmount, err = toMinor("totalAmount", *p.TotalAmount); err != nil {
			return model.PlanDraft{}, err
		}
	}
	return d, nil
}

type createOrderRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" validate:"omitempty,len=3"`
	ChitPlanID string          `json:"chitPlanId" validate:"required"`
}

// proofRequest accepts both the checkout widget's razorpay_* names and the
// camelCase names mobile clients send.
type proofRequest struct {
	ChitPlanID string `json:"chitPlanId"`

	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`

	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (p proofRequest) proof() model.PaymentProof {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return model.PaymentProof{
		OrderID:   pick(p.RazorpayOrderID, p.OrderID),
		PaymentID: pick(p.RazorpayPaymentID, p.PaymentID),
		Signature: pick(p.RazorpaySignature, p.Signature),
	}
}

type offlineRequest struct {
	ChitPlanID string          `json:"chitPlanId" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Notes      string          `json:"notes" validate:"max=1000"`
	Date       string          `json:"date"`
	// ProofImage is base64 image data, optionally as a data: URL.
	ProofImage string `json:"proofImage"`
}

type manualPaymentRequest struct {
	ChitPlanID string          `json:"chitPlanId" validate:"required"`
	UserID     string          `json:"userId" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Notes      string          `json:"notes" validate:"max=1000"`
	Date       string          `json:"date"`
}

type withdrawRequest struct {
	BankDetails struct {
		AccountHolderName string `json:"accountHolderName" validate:"required,max=120"`
		AccountNumber     string `json:"accountNumber" validate:"required_without=UPIID,max=34"`
		IFSC              string `json:"ifscCode" validate:"required_with=AccountNumber,max=11"`
		BankName          string `json:"bankName" validate:"max=120"`
		UPIID             string `json:"upiId" validate:"max=120"`
	} `json:"bankDetails"`
	Message string `json:"message" validate:"max=1000"`
}

func (w withdrawRequest) bank() model.BankDetails {
	b := w.BankDetails
	return model.BankDetails{
		AccountHolder: b.AccountHolderName,
		AccountNumber: b.AccountNumber,
		IFSC:          strings.ToUpper(b.IFSC),
		BankName:      b.BankName,
		UPI:           b.UPIID,
	}
}

type settleRequest struct {
	UserID        string          `json:"userId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId" validate:"required,max=120"`
	Note          string          `json:"note" validate:"max=1000"`
}

type renewalOrderRequest struct {
	Tier  string `json:"plan" validate:"required"`
	Cycle string `json:"billingCycle" validate:"required"`
}

// ---- responses ----

type planDTO struct {
	ID             string          `json:"id"`
	MerchantID     string          `json:"merchantId"`
	PlanName       string          `json:"planName"`
	MonthlyAmount  decimal.Decimal `json:"monthlyAmount"`
	DurationMonths int             `json:"durationMonths"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Description    string          `json:"description,omitempty"`
	ReturnType     string          `json:"returnType,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toPlanDTO(p *model.Plan) planDTO {
	return planDTO{
		ID:             p.ID,
		MerchantID:     p.MerchantID,
		PlanName:       p.Name,
		MonthlyAmount:  major(p.MonthlyAmount),
		DurationMonths: p.DurationMonths,
		TotalAmount:    major(p.TotalAmount),
		Description:    p.Description,
		ReturnType:     p.ReturnType,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPlanDTOs(ps []*model.Plan) []planDTO {
	out := make([]planDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPlanDTO(p))
	}
	return out
}

type planPage struct {
	Plans []planDTO `json:"plans"`
	Page  int       `json:"page"`
	Pages int       `json:"pages"`
	Total int       `json:"total"`
}

func newPlanPage(ps []*model.Plan, total int, f model.PlanFilter) planPage {
	f = f.Normalize()
	return planPage{
		Plans: toPlanDTOs(ps),
		Page:  f.Page,
		Pages: (total + f.Limit - 1) / f.Limit,
		Total: total,
	}
}

type bankDTO struct {
	AccountHolderName string `json:"accountHolderName"`
	AccountNumber     string `json:"accountNumber,omitempty"`
	IFSC              string `json:"ifscCode,omitempty"`
	BankName          string `json:"bankName,omitempty"`
	UPIID             string `json:"upiId,omitempty"`
}

type withdrawalDTO struct {
	BankDetails bankDTO   `json:"bankDetails"`
	Message     string    `json:"message,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
	Status      string    `json:"status"`
}

func toWithdrawalDTO(w *model.WithdrawalRequest) *withdrawalDTO {
	if w == nil {
		return nil
	}
	b := w.BankDetails
	return &withdrawalDTO{
		BankDetails: bankDTO{
			AccountHolderName: b.AccountHolder,
			AccountNumber:     b.AccountNumber,
			IFSC:              b.IFSC,
			BankName:          b.BankName,
			UPIID:             b.UPI,
		},
		Message:     w.Message,
		RequestedAt: w.RequestedAt,
		Status:      string(w.Status),
	}
}

type settlementDTO struct {
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId"`
	SettledAt     time.Time       `json:"settledAt"`
	Note          string          `json:"note,omitempty"`
	SettledBy     string          `json:"settledBy"`
}

func toSettlementDTO(s *model.SettlementDetails) *settlementDTO {
	if s == nil {
		return nil
	}
	return &settlementDTO{
		Amount:        major(s.Amount),
		TransactionID: s.TransactionID,
		SettledAt:     s.SettledAt,
		Note:          s.Note,
		SettledBy:     s.SettledBy,
	}
}

type subscriptionDTO struct {
	ID               string          `json:"id"`
	ChitPlanID       string          `json:"chitPlanId"`
	UserID           string          `json:"userId"`
	JoinedAt         time.Time       `json:"joinedAt"`
	InstallmentsPaid int             `json:"installmentsPaid"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	LastPaymentDate  *time.Time      `json:"lastPaymentDate,omitempty"`
	Status           string          `json:"status"`
	Withdrawal       *withdrawalDTO  `json:"withdrawalRequest,omitempty"`
	Settlement       *settlementDTO  `json:"settlementDetails,omitempty"`
}

func toSubscriptionDTO(s *model.Subscription) subscriptionDTO {
	return subscriptionDTO{
		ID:               s.ID,
		ChitPlanID:       s.PlanID,
		UserID:           s.UserID,
		JoinedAt:         s.JoinedAt,
		InstallmentsPaid: s.InstallmentsPaid,
		TotalPaid:        major(s.TotalPaid),
		LastPaymentDate:  s.LastPaymentAt,
		Status:           string(s.Status),
		Withdrawal:       toWithdrawalDTO(s.Withdrawal),
		Settlement:       toSettlementDTO(s.Settlement),
	}
}

type paymentDTO struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId,omitempty"`
	MerchantID       string          `json:"merchantId,omitempty"`
	ChitPlanID       string          `json:"chitPlanId,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	OrderID          string          `json:"orderId,omitempty"`
	PaymentID        string          `json:"paymentId,omitempty"`
	Status           string          `json:"status"`
	Type             string          `json:"type"`
	PaymentDate      time.Time       `json:"paymentDate"`
	Notes            string          `json:"notes,omitempty"`
	ProofImage       string          `json:"proofImage,omitempty"`
}

func toPaymentDTO(p *model.Payment) paymentDTO {
	d := paymentDTO{
		ID:               p.ID,
		UserID:           p.UserID,
		MerchantID:       p.MerchantID,
		ChitPlanID:       p.PlanID,
		Amount:           major(p.Amount),
		CommissionAmount: major(p.CommissionAmount),
		Status:           string(p.Status),
		Type:             string(p.Type),
		PaymentDate:      p.PaymentDate,
		Notes:            p.Notes,
		ProofImage:       p.ProofRef,
	}
	if p.GatewayOrderID != nil {
		d.OrderID = *p.GatewayOrderID
	}
	if p.GatewayPaymentID != nil {
		d.PaymentID = *p.GatewayPaymentID
	}
	return d
}

func toPaymentDTOs(ps []*model.Payment) []paymentDTO {
	out := make([]paymentDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPaymentDTO(p))
	}
	return out
}

// orderDTO mirrors the gateway order so the checkout widget can open it.
// Amount stays in minor units as the widget expects.
type orderDTO struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Receipt          string            `json:"receipt"`
	Status           string            `json:"status"`
	Notes            map[string]string `json:"notes,omitempty"`
	KeyID            string            `json:"keyId"`
	BaseAmount       decimal.Decimal   `json:"baseAmount"`
	CommissionAmount decimal.Decimal   `json:"commissionAmount"`
}

func toOrderDTO(o *model.CheckoutOrder) orderDTO {
	return orderDTO{
		ID:               o.OrderID,
		Amount:           o.Amount,
		Currency:         o.Currency,
		Receipt:          o.Receipt,
		Status:           o.Status,
		Notes:            o.Notes,
		KeyID:            o.KeyID,
		BaseAmount:       major(o.BaseAmount),
		CommissionAmount: major(o.CommissionAmount),
	}
}

type myPlanDTO struct {
	ID               string          `json:"_id"`
	SubscriptionID   string          `json:"subscriptionId"`
	PlanName         string          `json:"planName"`
	MerchantID       string          `json:"merchantId"`
	MonthlyAmount    decimal.Decimal `json:"monthlyAmount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	DurationMonths   int             `json:"durationMonths"`
	JoinedAt         time.Time       `json:"joinedAt"`
	NextDueDate      *time.Time      `json:"nextDueDate,omitempty"`
	LastPaymentDate  *time.Time      `json:"lastPaymentDate,omitempty"`
	InstallmentsPaid int             `json:"installmentsPaid"`
	RemainingMonths  int             `json:"remainingMonths"`
	TotalSaved       decimal.Decimal `json:"totalSaved"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	Status           string          `json:"status"`
	Withdrawal       *withdrawalDTO  `json:"withdrawalRequest,omitempty"`
	Settlement       *settlementDTO  `json:"settlementDetails,omitempty"`
}

func toMyPlanDTOs(vs []model.MyPlanView) []myPlanDTO {
	out := make([]myPlanDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, myPlanDTO{
			ID:               v.Plan.ID,
			SubscriptionID:   v.SubscriptionID,
			PlanName:         v.Plan.Name,
			MerchantID:       v.Plan.MerchantID,
			MonthlyAmount:    major(v.Plan.MonthlyAmount),
			TotalAmount:      major(v.Plan.TotalAmount),
			DurationMonths:   v.Plan.DurationMonths,
			JoinedAt:         v.JoinedAt,
			NextDueDate:      v.NextDueDate,
			LastPaymentDate:  v.LastPaymentAt,
			InstallmentsPaid: v.InstallmentsPaid,
			RemainingMonths:  v.RemainingMonths,
			TotalSaved:       major(v.TotalSaved),
			TotalPaid:        major(v.TotalPaid),
			Status:           string(v.Status),
			Withdrawal:       toWithdrawalDTO(v.Withdrawal),
			Settlement:       toSettlementDTO(v.Settlement),
		})
	}
	return out
}

type subscriberDTO struct {
	ChitPlanID       string          `json:"chitPlanId"`
	PlanName         string          `json:"planName"`
	UserID           string          `json:"userId"`
	Name             string          `json:"name"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Status           string          `json:"status"`
	JoinedAt         time.Time       `json:"joinedAt"`
	InstallmentsPaid int             `json:"installmentsPaid"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	PendingAmount    decimal.Decimal `json:"pendingAmount"`
	RemainingMonths  int             `json:"remainingMonths"`
	NextDueDate      *time.Time      `json:"nextDueDate,omitempty"`
	LastPaymentDate  *time.Time      `json:"lastPaymentDate,omitempty"`
	Withdrawal       *withdrawalDTO  `json:"withdrawalRequest,omitempty"`
}

func toSubscriberDTOs(vs []model.SubscriberView) []subscriberDTO {
	out := make([]subscriberDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, subscriberDTO{
			ChitPlanID:       v.PlanID,
			PlanName:         v.PlanName,
			UserID:           v.UserID,
			Name:             v.UserName,
			Email:            v.UserEmail,
			Phone:            v.UserPhone,
			Status:           string(v.Status),
			JoinedAt:         v.JoinedAt,
			InstallmentsPaid: v.InstallmentsPaid,
			TotalPaid:        major(v.TotalPaid),
			PendingAmount:    major(v.PendingAmount),
			RemainingMonths:  v.RemainingMonths,
			NextDueDate:      v.NextDueDate,
			LastPaymentDate:  v.LastPaymentAt,
			Withdrawal:       toWithdrawalDTO(v.Withdrawal),
		})
	}
	return out
}

type billingDTO struct {
	MerchantID   string     `json:"merchantId"`
	Plan         string     `json:"plan"`
	BillingCycle string     `json:"billingCycle"`
	Status       string     `json:"subscriptionStatus"`
	StartDate    *time.Time `json:"subscriptionStartDate,omitempty"`
	ExpiryDate   *time.Time `json:"subscriptionExpiryDate,omitempty"`
	UpcomingPlan string     `json:"upcomingPlan,omitempty"`
	SwitchDate   *time.Time `json:"planSwitchDate,omitempty"`
	PlanCount    int        `json:"planCount"`
	PlanLimit    int        `json:"planLimit"`
}

func toBillingDTO(b *usecase.MerchantBilling) billingDTO {
	return billingDTO{
		MerchantID:   b.MerchantID,
		Plan:         string(b.Tier),
		BillingCycle: string(b.BillingCycle),
		Status:       string(b.Status),
		StartDate:    b.StartAt,
		ExpiryDate:   b.ExpiresAt,
		UpcomingPlan: string(b.UpcomingTier),
		SwitchDate:   b.TierSwitchAt,
		PlanCount:    b.PlanCount,
		PlanLimit:    b.PlanLimit,
	}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type installmentResponse struct {
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	Subscription subscriptionDTO `json:"subscription"`
}

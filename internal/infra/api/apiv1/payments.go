package apiv1

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/infra/api"
	"chitfund-backend/internal/usecase"
)

const maxProofBytes = 5 << 20

// createOrder serves both the first-subscription and the installment order
// routes; they differ only in which verify call follows.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	if req.Currency != "" && s.Currency != "" && !strings.EqualFold(req.Currency, s.Currency) {
		api.BadRequest(w, r, "unsupported currency "+req.Currency)
		return
	}
	if _, err := toMinor("amount", req.Amount); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	order, err := s.Orders.CreateOrder(r.Context(), principal(r).ID, model.UserInstallmentPurpose{PlanID: req.ChitPlanID}, req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (s *Server) verifySubscription(w http.ResponseWriter, r *http.Request) {
	var req proofRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	if req.ChitPlanID == "" {
		api.BadRequest(w, r, "chitPlanId is required")
		return
	}
	s.verifyFirst(w, r, req.ChitPlanID, req)
}

func (s *Server) verifyFirst(w http.ResponseWriter, r *http.Request, planID string, req proofRequest) {
	proof := req.proof()
	if !proof.Valid() {
		api.BadRequest(w, r, "orderId, paymentId and signature are required")
		return
	}
	sub, err := s.Subscriptions.Subscribe(r.Context(), planID, principal(r).ID, proof)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toSubscriptionDTO(sub))
}

func (s *Server) verifyInstallment(w http.ResponseWriter, r *http.Request) {
	var req proofRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	proof := req.proof()
	if req.ChitPlanID == "" || !proof.Valid() {
		api.BadRequest(w, r, "chitPlanId, orderId, paymentId and signature are required")
		return
	}
	sub, err := s.Subscriptions.PayInstallment(r.Context(), req.ChitPlanID, principal(r).ID, proof)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, installmentResponse{
		Status:       "success",
		Message:      "Installment verified and updated",
		Subscription: toSubscriptionDTO(sub),
	})
}

func (s *Server) requestOffline(w http.ResponseWriter, r *http.Request) {
	var req offlineRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	amount, err := toMinor("amount", req.Amount)
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	paidOn, err := parseDay(req.Date)
	if err != nil {
		api.BadRequest(w, r, "date must be YYYY-MM-DD or RFC 3339")
		return
	}
	proof, contentType, err := decodeProof(req.ProofImage)
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	p, err := s.Offline.Request(r.Context(), usecase.OfflineRequest{
		PlanID:           req.ChitPlanID,
		UserID:           principal(r).ID,
		Amount:           amount,
		Notes:            req.Notes,
		PaymentDate:      paidOn,
		Proof:            proof,
		ProofContentType: contentType,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toPaymentDTO(p))
}

// decodeProof accepts raw base64 or a data: URL. An empty string is no proof.
func decodeProof(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", nil
	}
	declared := ""
	if strings.HasPrefix(s, "data:") {
		head, body, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(head, ";base64") {
			return nil, "", errors.New("proofImage must be base64 encoded")
		}
		declared = strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64")
		s = body
	}
	if base64.StdEncoding.DecodedLen(len(s)) > maxProofBytes {
		return nil, "", errors.New("proofImage is too large")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", errors.New("proofImage must be base64 encoded")
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		if declared == "" {
			return nil, "", errors.New("proofImage must be an image")
		}
		contentType = declared
	}
	return data, contentType, nil
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	planID, err := pathParam(r, "planId")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	userID, err := pathParam(r, "userId")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	p := principal(r)
	merchantID := ""
	switch p.Role {
	case api.RoleMerchant:
		merchantID = p.ID
	default:
		if userID != p.ID {
			s.fail(w, r, domain.ErrUnauthorized)
			return
		}
	}
	payments, err := s.Offline.History(r.Context(), planID, userID, merchantID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

func (s *Server) pendingOffline(w http.ResponseWriter, r *http.Request) {
	payments, err := s.Offline.ListPending(r.Context(), principal(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

func (s *Server) approveOffline(w http.ResponseWriter, r *http.Request) {
	s.decideOffline(w, r, s.Offline.Approve)
}

func (s *Server) rejectOffline(w http.ResponseWriter, r *http.Request) {
	s.decideOffline(w, r, s.Offline.Reject)
}

func (s *Server) decideOffline(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, paymentID, merchantID string) (*model.Payment, error)) {
	id, err := pathParam(r, "id")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	p, err := decide(r.Context(), id, principal(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPaymentDTO(p))
}

func (s *Server) recordOffline(w http.ResponseWriter, r *http.Request) {
	var req manualPaymentRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	amount, err := toMinor("amount", req.Amount)
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	paidOn, err := parseDay(req.Date)
	if err != nil {
		api.BadRequest(w, r, "date must be YYYY-MM-DD or RFC 3339")
		return
	}
	p, err := s.Offline.Record(r.Context(), usecase.ManualPayment{
		MerchantID:  principal(r).ID,
		PlanID:      req.ChitPlanID,
		UserID:      req.UserID,
		Amount:      amount,
		Notes:       req.Notes,
		PaymentDate: paidOn,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toPaymentDTO(p))
}

func (s *Server) paymentsByDate(w http.ResponseWriter, r *http.Request) {
	d, err := dateParam(r)
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	payments, err := s.Offline.ByDate(r.Context(), principal(r).ID, day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

package apiv1

import (
	"net/http"

	"github.com/shopspring/decimal"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/infra/api"
)

func (s *Server) createRenewalOrder(w http.ResponseWriter, r *http.Request) {
	var req renewalOrderRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	tier, err := model.ParseMerchantTier(req.Tier)
	if err != nil {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	cycle, err := model.ParseBillingCycle(req.Cycle)
	if err != nil {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	order, err := s.Billing.CreateRenewalOrder(r.Context(), principal(r).ID, tier, cycle)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (s *Server) verifyRenewal(w http.ResponseWriter, r *http.Request) {
	var req proofRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	proof := req.proof()
	if !proof.Valid() {
		api.BadRequest(w, r, "orderId, paymentId and signature are required")
		return
	}
	b, err := s.Billing.VerifyRenewal(r.Context(), principal(r).ID, proof)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toBillingDTO(b))
}

func (s *Server) billing(w http.ResponseWriter, r *http.Request) {
	b, err := s.Billing.Billing(r.Context(), principal(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toBillingDTO(b))
}

// tierPrices lists renewal prices so clients can render the upgrade screen.
func (s *Server) tierPrices(w http.ResponseWriter, r *http.Request) {
	type price struct {
		Plan         string          `json:"plan"`
		BillingCycle string          `json:"billingCycle"`
		Amount       decimal.Decimal `json:"amount"`
		PlanLimit    int             `json:"planLimit"`
	}
	out := make([]price, 0, 6)
	for _, t := range []model.MerchantTier{model.MerchantTierBasic, model.MerchantTierStandard, model.MerchantTierPremium} {
		for _, c := range []model.BillingCycle{model.BillingCycleMonthly, model.BillingCycleYearly} {
			amount, err := model.TierPrice(t, c)
			if err != nil {
				continue
			}
			out = append(out, price{Plan: string(t), BillingCycle: string(c), Amount: major(amount), PlanLimit: model.TierPlanLimit(t)})
		}
	}
	api.WriteJSON(w, http.StatusOK, out)
}

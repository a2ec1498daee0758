package apiv1

import (
	"net/http"

	"chitfund-backend/internal/infra/api"
	"chitfund-backend/internal/usecase"
)

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	f, err := planFilter(r)
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	plans, total, err := s.Plans.List(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, newPlanPage(plans, total, f))
}

func (s *Server) listMerchantPlans(w http.ResponseWriter, r *http.Request) {
	merchantID, err := pathParam(r, "merchantId")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	plans, err := s.Plans.ListByMerchant(r.Context(), merchantID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPlanDTOs(plans))
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	p, err := s.Plans.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPlanDTO(p))
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	d, err := req.draft()
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	p, err := s.Plans.Create(r.Context(), principal(r).ID, d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toPlanDTO(p))
}

func (s *Server) updatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	var req planUpdateRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	d, err := req.draft()
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	p, err := s.Plans.Update(r.Context(), id, principal(r).ID, d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toPlanDTO(p))
}

func (s *Server) deletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	if err := s.Plans.Delete(r.Context(), id, principal(r).ID); err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "plan deleted"})
}

func (s *Server) myPlans(w http.ResponseWriter, r *http.Request) {
	views, err := s.Subscriptions.MyPlans(r.Context(), principal(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toMyPlanDTOs(views))
}

func (s *Server) mySubscribers(w http.ResponseWriter, r *http.Request) {
	views, err := s.Subscriptions.MySubscribers(r.Context(), principal(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toSubscriberDTOs(views))
}

// subscribe verifies the first checkout for the plan in the path.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	planID, err := pathParam(r, "id")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	var req proofRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	s.verifyFirst(w, r, planID, req)
}

func (s *Server) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	planID, err := pathParam(r, "id")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	var req withdrawRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	sub, err := s.Withdrawals.RequestWithdrawal(r.Context(), planID, principal(r).ID, req.bank(), req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	planID, err := pathParam(r, "id")
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	var req settleRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	amount, err := toMinor("amount", req.Amount)
	if err != nil {
		api.BadRequest(w, r, err.Error())
		return
	}
	sub, err := s.Withdrawals.Settle(r.Context(), usecase.Settlement{
		PlanID:        planID,
		MerchantID:    principal(r).ID,
		UserID:        req.UserID,
		Amount:        amount,
		TransactionID: req.TransactionID,
		Note:          req.Note,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

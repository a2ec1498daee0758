// Package apiv1 exposes the chit fund REST surface under /api.
package apiv1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"chitfund-backend/internal/infra/api"
	"chitfund-backend/internal/infra/redis"
	"chitfund-backend/internal/usecase"
)

// Deps collects what the handlers need. Limiter may be nil, in which case
// order creation is not throttled.
type Deps struct {
	Plans         usecase.PlanUseCase
	Orders        usecase.OrderUseCase
	Subscriptions usecase.SubscriptionUseCase
	Offline       usecase.OfflinePaymentUseCase
	Withdrawals   usecase.WithdrawalUseCase
	Billing       usecase.MerchantBillingUseCase

	Auth        *api.AuthManager
	Limiter     api.Limiter
	OrderLimit  int
	OrderWindow time.Duration
	Currency    string
}

type Server struct {
	Deps
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewServer(d Deps, logger *zerolog.Logger) *Server {
	if d.OrderLimit <= 0 {
		d.OrderLimit = 10
	}
	if d.OrderWindow <= 0 {
		d.OrderWindow = time.Minute
	}
	return &Server{Deps: d, validate: validator.New(), log: logger}
}

// RegisterAPIV1 mounts every route on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	authn := api.Authenticate(s.Auth, s.log)
	merchantOnly := api.RequireRole(api.RoleMerchant, s.log)

	r.Route("/api/chit-plans", func(r chi.Router) {
		r.Get("/", s.listPlans)
		r.Get("/merchant/{merchantId}", s.listMerchantPlans)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/my-plans", s.myPlans)
			r.Post("/{id}/subscribe", s.subscribe)
			r.Post("/{id}/withdraw", s.requestWithdrawal)

			r.Group(func(r chi.Router) {
				r.Use(merchantOnly)
				r.Post("/", s.createPlan)
				r.Get("/my-subscribers", s.mySubscribers)
				r.Put("/{id}", s.updatePlan)
				r.Delete("/{id}", s.deletePlan)
				r.Post("/{id}/settle", s.settle)
			})
		})

		r.Get("/{id}", s.getPlan)
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Use(authn)

		r.Group(func(r chi.Router) {
			r.Use(s.orderLimit("create_order"))
			r.Post("/create-subscription-order", s.createOrder)
			r.Post("/create-installment-order", s.createOrder)
		})
		r.Post("/verify-subscription-payment", s.verifySubscription)
		r.Post("/verify-installment", s.verifyInstallment)
		r.Post("/offline/request", s.requestOffline)
		r.Get("/history/{planId}/{userId}", s.history)

		r.Group(func(r chi.Router) {
			r.Use(merchantOnly)
			r.Get("/offline/pending", s.pendingOffline)
			r.Put("/offline/{id}/approve", s.approveOffline)
			r.Put("/offline/{id}/reject", s.rejectOffline)
			r.Post("/offline/record", s.recordOffline)
			r.Get("/search/date", s.paymentsByDate)
		})
	})

	r.Route("/api/merchants", func(r chi.Router) {
		r.Use(authn, merchantOnly)
		r.With(s.orderLimit("renewal_order")).Post("/renewal-order", s.createRenewalOrder)
		r.Post("/verify-renewal", s.verifyRenewal)
		r.Get("/me/billing", s.billing)
		r.Get("/tiers", s.tierPrices)
	})
}

func (s *Server) orderLimit(action string) func(http.Handler) http.Handler {
	if s.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return api.RateLimit(s.Limiter, action, s.OrderLimit, s.OrderWindow, redis.PrincipalActionKey, s.log)
}

// principal is only called behind Authenticate.
func principal(r *http.Request) api.Principal {
	p, _ := api.PrincipalFrom(r.Context())
	return p
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	api.WriteError(w, r, s.log, err)
}

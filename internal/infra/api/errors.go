package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/infra/logging"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type errorMapping struct {
	err    error
	status int
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},

	{domain.ErrPlanNotFound, http.StatusNotFound},
	{domain.ErrSubscriptionNotFound, http.StatusNotFound},
	{domain.ErrPaymentNotFound, http.StatusNotFound},
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrMerchantNotFound, http.StatusNotFound},
	{domain.ErrNotFound, http.StatusNotFound},

	{domain.ErrPaymentAlreadyProcessed, http.StatusConflict},
	{domain.ErrOrderConsumed, http.StatusConflict},
	{domain.ErrConcurrentUpdate, http.StatusConflict},
	{domain.ErrAlreadyExists, http.StatusConflict},

	{domain.ErrInvalidSignature, http.StatusBadRequest},
	{domain.ErrDuplicateSubscription, http.StatusBadRequest},
	{domain.ErrAmountMismatch, http.StatusBadRequest},
	{domain.ErrInvalidArgument, http.StatusBadRequest},
	{domain.ErrNotEligibleForWithdraw, http.StatusBadRequest},
	{domain.ErrInvalidTransition, http.StatusBadRequest},
	{domain.ErrSubscriptionNotActive, http.StatusBadRequest},
	{domain.ErrPlanLimitReached, http.StatusBadRequest},

	{domain.ErrRateLimited, http.StatusTooManyRequests},
	{domain.ErrGatewayFailure, http.StatusInternalServerError},
}

// StatusFor maps a use case error to an HTTP status.
func StatusFor(err error) int {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// WriteError renders err. Unmapped errors are logged and hidden from the client;
// gateway failures keep their detail.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	status := StatusFor(err)
	body := ErrorBody{TraceID: logging.TraceIDFrom(r.Context())}
	switch {
	case errors.Is(err, domain.ErrGatewayFailure):
		body.Error = domain.ErrGatewayFailure.Error()
		body.Detail = err.Error()
	case status == http.StatusInternalServerError:
		body.Error = "internal error"
	default:
		body.Error = publicMessage(err)
	}
	if status >= http.StatusInternalServerError {
		logging.With(r.Context(), logger).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	WriteJSON(w, status, body)
}

// publicMessage returns the sentinel text rather than wrapped internals.
func publicMessage(err error) string {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.err.Error()
		}
	}
	return err.Error()
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// BadRequest renders a 400 with a caller-facing detail, used for decode and
// validation failures.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{
		Error:   domain.ErrInvalidArgument.Error(),
		Detail:  detail,
		TraceID: logging.TraceIDFrom(r.Context()),
	})
}

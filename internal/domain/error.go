package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	ErrPlanNotFound         = errors.New("plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrOrderNotFound        = errors.New("gateway order not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrMerchantNotFound     = errors.New("merchant not found")

	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("not allowed to act on this resource")
	ErrForbidden       = errors.New("operation not permitted for this account")

	ErrInvalidSignature        = errors.New("invalid payment signature")
	ErrDuplicateSubscription   = errors.New("already subscribed to this plan")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrOrderConsumed           = errors.New("gateway order already consumed")
	ErrAmountMismatch          = errors.New("order amount does not match plan installment")
	ErrSubscriptionNotActive   = errors.New("subscription is not active")
	ErrNotEligibleForWithdraw  = errors.New("subscription not eligible for withdrawal")
	ErrInvalidTransition       = errors.New("invalid subscription state transition")
	ErrPlanLimitReached        = errors.New("plan limit reached for merchant tier")

	ErrGatewayFailure       = errors.New("payment gateway failure")
	ErrCredentialDecryption = errors.New("credential decryption failed")
	ErrNotificationFailure  = errors.New("notification delivery failed")
	ErrConcurrentUpdate     = errors.New("concurrent update detected")
	ErrRateLimited          = errors.New("too many requests")

	// Storage errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)

package utils

import "errors"

var (
	ErrOrgNotFound             = errors.New("organization not found")
	ErrOrgNotAcceptingPayments = errors.New("organization not accepting payments via this provider")
	ErrUnsupportedInterval     = errors.New("unsupported interval for provider")
	ErrMissingPhone            = errors.New("phone number required for vipps")
	ErrInvalidAmount           = errors.New("amount out of range")
	ErrInvalidRecipient        = errors.New("invalid recipient reference")
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrProviderUnavailable     = errors.New("payment provider unavailable")
	ErrBadSignature            = errors.New("webhook signature verification failed")
	ErrDatabaseError           = errors.New("database error")
)

package domain

import "errors"

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternalError     = errors.New("internal error")
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooShort      = errors.New("name is too short")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
)

// Subscription errors
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidValue         = errors.New("value must be greater than zero")
	ErrInvalidCycle         = errors.New("cycle must be monthly or annually")
	ErrInvalidCategory      = errors.New("unknown category")
	ErrInvalidSharedCount   = errors.New("shared count must be at least 1")
	ErrBillingDateRequired  = errors.New("billing date is required")
	ErrNotGhost             = errors.New("subscription is not a ghost")
	ErrNotShared            = errors.New("subscription is not shared")
	ErrSubscriptionChanged  = errors.New("subscription changed since it was read")
)

// Achievement errors
var (
	ErrUnknownAchievement = errors.New("unknown achievement")
)

// Validation constants
const (
	MinSubscriptionNameLength = 2
	MaxSubscriptionNameLength = 255
	MaxDescriptionLength      = 1000
)

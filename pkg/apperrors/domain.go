package apperrors

import (
	"net/http"
)

// Factories and predefined errors for the business domains.

// ErrNotFound converts a repository not-found error (e.g. gorm.ErrRecordNotFound)
// into a 404 AppError.
func ErrNotFound(err error, resource string) *AppError {
	return Wrap(err, CodeNotFound, "resource", resource+" not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409 AppError.
func ErrAlreadyExists(err error, resource string) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", resource+" already exists", http.StatusConflict)
}

// --- Payment domain ---

// ErrInvalidPaymentAmount rejects non-positive amounts before a record is created.
var ErrInvalidPaymentAmount = New(
	CodeValidationFailed,
	"payment",
	"Payment amount must be greater than zero",
	http.StatusBadRequest,
)

// ErrInvalidPaymentType rejects unrecognized payment types.
var ErrInvalidPaymentType = New(
	CodeValidationFailed,
	"payment",
	"Unknown payment type",
	http.StatusBadRequest,
)

// ErrSignatureMismatch means an inbound gateway callback failed verification.
// The payment stays pending; the callback is rejected so the gateway retries.
var ErrSignatureMismatch = New(
	CodeSignatureMismatch,
	"payment",
	"Payment signature verification failed",
	http.StatusBadRequest,
)

// ErrInvalidTransition means a state change outside the transition table was
// attempted. This is a programming or data error, not something to retry.
var ErrInvalidTransition = New(
	CodeInvalidTransition,
	"payment",
	"Invalid payment status transition",
	http.StatusConflict,
)

// ErrAlreadyTerminal means a completing transition was attempted on a payment
// that already reached a terminal state other than completed.
var ErrAlreadyTerminal = New(
	CodeAlreadyTerminal,
	"payment",
	"Payment is already in a terminal state",
	http.StatusConflict,
)

// ErrPlanNotFound surfaces a missing subscription plan during side-effect
// application. The payment itself stays completed (money was received).
var ErrPlanNotFound = New(
	CodeSideEffectFailed,
	"payment",
	"Subscription plan referenced by payment not found",
	http.StatusUnprocessableEntity,
)

// ErrBusinessNotFound surfaces a missing business during side-effect application.
var ErrBusinessNotFound = New(
	CodeSideEffectFailed,
	"payment",
	"Business referenced by payment not found",
	http.StatusUnprocessableEntity,
)

// --- Business listing domain ---

var ErrBusinessNotApproved = New(
	CodeInvalidStatus,
	"business",
	"Business listing is not approved yet",
	http.StatusBadRequest,
)

var ErrNotBusinessOwner = New(
	CodeForbidden,
	"business",
	"You do not own this business listing",
	http.StatusForbidden,
)

// --- Auth domain ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already registered",
	http.StatusConflict,
)

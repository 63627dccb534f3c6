package apperrors

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Cross-cutting, non-domain codes.
const (
	// System and unknown errors
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Generic business-logic codes (used by the factories)
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Authentication and authorization
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"

	// Payment lifecycle
	CodeSignatureMismatch ErrorCode = "SIGNATURE_MISMATCH"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeAlreadyTerminal   ErrorCode = "ALREADY_TERMINAL"
	CodeSideEffectFailed  ErrorCode = "SIDE_EFFECT_FAILED"
)

package apperr

// Code identifies an error class across the messaging core. Handlers map
// codes to HTTP statuses; services never look at statuses.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeNotFound         Code = "NOT_FOUND"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeRateLimited      Code = "RATE_LIMITED"
	// CodePartialFailure marks a compensated multi-step write: a later step
	// failed and the earlier writes were rolled back.
	CodePartialFailure Code = "PARTIAL_FAILURE"
	// CodeTransientInfra marks connectivity-class failures safe to retry.
	CodeTransientInfra Code = "TRANSIENT_INFRA"
	CodeInternal       Code = "INTERNAL"
)

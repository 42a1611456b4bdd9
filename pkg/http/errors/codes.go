package errors

// Error codes for standardized error responses
const (
	// Teacher gate errors
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeWrongPassword = "wrong_password"
	ErrCodeInvalidToken  = "invalid_token"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Session errors
	ErrCodeInvalidTransition    = "invalid_transition"
	ErrCodeNoActiveQuiz         = "no_active_quiz"
	ErrCodeEmptyStudentName     = "empty_student_name"
	ErrCodeConfirmationRequired = "confirmation_required"
	ErrCodeUnknownQuestion      = "unknown_question"
	ErrCodeInvalidOption        = "invalid_option"

	// Generation errors
	ErrCodeGenerationFailed = "generation_failed"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)

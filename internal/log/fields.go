package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldAccountID     = "account_id"
	FieldFromAccount   = "from_account"
	FieldToAccount     = "to_account"
	FieldTransactionID = "transaction_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldCommand   = "command"

	// HTTP fields
	FieldStatus  = "status"
	FieldAttempt = "attempt"
	FieldBaseURL = "base_url"
	FieldPath    = "path"

	// Domain fields
	FieldAmount = "amount"
	FieldScope  = "scope"
)

package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldMonth      = "month"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldCurrency   = "currency"
	FieldFromCcy    = "from_ccy"
	FieldToCcy      = "to_ccy"
	FieldRate       = "rate"
	FieldRateDate   = "rate_date"
	FieldRuleID     = "rule_id"
	FieldExpenseID  = "expense_id"
	FieldCommand    = "command"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentBot      = "bot"
	ComponentFX       = "fx"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentRollover = "rollover"
)

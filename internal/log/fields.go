package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID         = "user_id"
	FieldUsername       = "username"
	FieldExpenseID      = "expense_id"
	FieldBillID         = "bill_id"
	FieldSubscriptionID = "subscription_id"
	FieldAmountCents    = "amount_cents"
	FieldCategory       = "category"
	FieldYear           = "year"
	FieldMonth          = "month"
	FieldDueDate        = "due_date"
	FieldDaysUntilDue   = "days_until_due"
	FieldUrgency        = "urgency"
	FieldBackend        = "backend"
	FieldCount          = "count"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentAuth      = "auth"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
)

// Operations defines standard operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpPay      = "pay"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpScan     = "scan"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

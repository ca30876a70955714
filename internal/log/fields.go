package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldOwnerID   = "owner_id"
	FieldBudgetID  = "budget_id"
	FieldAlertID   = "alert_id"
	FieldMessageID = "message_id"
	FieldKind      = "kind"
	FieldYear      = "year"
	FieldMonth     = "month"
	FieldAmount    = "amount_cents"
	FieldPercent   = "percent_used"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
	FieldSheet     = "sheet"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentEngine  = "engine"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentBackend = "backend"
	ComponentConfig  = "config"
)

// Operations defines standard operation names.
const (
	OpQuery    = "query"
	OpSum      = "sum"
	OpEvaluate = "evaluate"
	OpRecord   = "record"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpReport   = "report"
	OpExport   = "export"
	OpMigrate  = "migrate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

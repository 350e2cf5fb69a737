package log

// Attribute keys shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldCount      = "count"

	// Ledger
	FieldTransactionID = "transaction_id"
	FieldTxType        = "transaction_type"
	FieldAmount        = "amount"
	FieldCategory      = "category"

	// Storage
	FieldStorageKey = "storage_key"
	FieldBackend    = "backend"
)

// Component names, one per package that logs.
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentLedger      = "ledger"
	ComponentPersistence = "persistence"
	ComponentStorage     = "storage"
	ComponentEvents      = "events"
	ComponentExport      = "export"
	ComponentBackend     = "backend"
)

// Operation names for FieldOperation.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpLoad    = "load"
	OpSave    = "save"
	OpPublish = "publish"
	OpExport  = "export"
)

// Values for FieldErrorType.
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
)

// LogFields accumulates key/value pairs in the order they were added, so
// log lines keep a stable attribute order.
type LogFields struct {
	args []any
}

func NewFields() *LogFields {
	return &LogFields{args: make([]any, 0, 16)}
}

func (f *LogFields) add(kv ...any) *LogFields {
	f.args = append(f.args, kv...)
	return f
}

func (f *LogFields) WithComponent(component string) *LogFields {
	return f.add(FieldComponent, component)
}

func (f *LogFields) WithOperation(op string) *LogFields {
	return f.add(FieldOperation, op)
}

// WithTransaction adds the identifying fields of a ledger transaction.
func (f *LogFields) WithTransaction(id int64, txType, category, amount string) *LogFields {
	return f.add(
		FieldTransactionID, id,
		FieldTxType, txType,
		FieldCategory, category,
		FieldAmount, amount,
	)
}

// WithHTTPRequest adds method and path, plus query and user agent when set.
func (f *LogFields) WithHTTPRequest(method, path, query, userAgent string) *LogFields {
	f.add(FieldMethod, method, FieldPath, path)
	if query != "" {
		f.add(FieldQuery, query)
	}
	if userAgent != "" {
		f.add(FieldUserAgent, userAgent)
	}
	return f
}

func (f *LogFields) WithHTTPResponse(statusCode int, durationMs int64) *LogFields {
	return f.add(FieldStatusCode, statusCode, FieldDuration, durationMs)
}

// ToSlice returns the pairs in a form accepted by slog's variadic args.
func (f *LogFields) ToSlice() []any {
	return f.args
}

package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware keys)
	FieldUserID      = "user_id"
	FieldDisplayName = "display_name"
	FieldRole        = "role"

	// Domain
	FieldSessionID = "session_id"
	FieldSlug      = "slug"
	FieldOffset    = "offset_seconds"
	FieldMessageID = "message_id"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)

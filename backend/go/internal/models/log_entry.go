package models

// LogEntry is the structured shape published for every log line when the
// Kafka log hook is enabled.
type LogEntry struct {
	ServiceName string                 `json:"service_name"`
	Level       string                 `json:"level"`
	Message     string                 `json:"message"`
	Timestamp   string                 `json:"timestamp"`
	RequestInfo *RequestInfo           `json:"request_info,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo holds the HTTP request context attached to access logs.
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms,omitempty"`
}

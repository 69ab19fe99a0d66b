package loggers

const (
	FieldApp        = "app"
	FieldComponent  = "component"
	FieldHttpMethod = "http_method"
	FieldHttpPath   = "http_path"
	FieldHttpStatus = "http_status"

	FieldDuration   = "duration"
	FieldRequestID  = "request_id"
	FieldErrorStack = "error_stack"
	FieldErrorCode  = "error_code"
	FieldErrorKind  = "error_kind"

	FieldRunID     = "run_id"
	FieldSessionID = "session_id"
	FieldBusID     = "bus_id"
	FieldDeviceKey = "device_key"
	FieldFormat    = "format"
	FieldPath      = "path"
	FieldState     = "state"
	FieldSequence  = "sequence"
)

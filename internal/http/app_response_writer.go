package http

import (
	"net/http"

	"usbtop/internal/shared/svcerrors"

	"github.com/go-chi/chi/v5/middleware"
)

// appResponseWriter remembers the status and the service error a handler answered with,
// so the metrics and completion-log middleware can label the request.
type appResponseWriter struct {
	middleware.WrapResponseWriter
	svcError *svcerrors.ServiceError
}

func newAppResponseWriter(w http.ResponseWriter, protoMajor int) *appResponseWriter {
	return &appResponseWriter{
		WrapResponseWriter: middleware.NewWrapResponseWriter(w, protoMajor),
	}
}

// SetServiceError records svcError for the middleware. Nil clears it.
func (w *appResponseWriter) SetServiceError(svcError *svcerrors.ServiceError) {
	w.svcError = svcError
}

func (w *appResponseWriter) ErrorCode() string {
	if w.svcError != nil {
		return w.svcError.Code
	}
	return ""
}

// responseOutcome returns the status written to w and the error code behind it.
// A handler that never wrote a header answered 200.
func responseOutcome(w http.ResponseWriter) (status int, errorCode string) {
	if appWriter, ok := w.(*appResponseWriter); ok {
		status = appWriter.Status()
		errorCode = appWriter.ErrorCode()
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, errorCode
}

// quietRequest reports whether a completed request only needs a debug line: a
// successful poll of /metrics or /healthz.
func quietRequest(r *http.Request, status int, errorCode string) bool {
	return quietPaths[r.URL.Path] && errorCode == "" && status < http.StatusBadRequest
}

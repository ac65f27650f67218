package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/taskapp/internal/middleware"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeInvalidJSON          = "INVALID_JSON"
	CodeInvalidDocument      = "INVALID_DOCUMENT"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeInternal             = "INTERNAL_ERROR"
)

// ErrorBody is the error shape of every non-2xx docstore answer. RequestID
// echoes X-Request-ID so a client report can be matched to the server log.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON writes data as the response body. HTML characters are left
// unescaped so stored text comes back exactly as it was written.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		slog.Error("failed to encode response", "status", status, "error", err)
	}
}

// WriteError writes an ErrorResponse. The request id is taken from the
// response header set by middleware.RequestID, when present.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			RequestID: w.Header().Get(middleware.RequestIDHeader),
		},
	})
}

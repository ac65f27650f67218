package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// recoveryWriter remembers whether the handler already started its
// response, in which case a 500 can no longer be sent.
type recoveryWriter struct {
	http.ResponseWriter
	started bool
}

func (rw *recoveryWriter) WriteHeader(code int) {
	rw.started = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recoveryWriter) Write(b []byte) (int, error) {
	rw.started = true
	return rw.ResponseWriter.Write(b)
}

func (rw *recoveryWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

type panicBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId,omitempty"`
	} `json:"error"`
}

// Recovery turns a handler panic into a logged 500 carrying the request id.
// http.ErrAbortHandler is passed on so net/http can abort the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &recoveryWriter{ResponseWriter: w}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				id := GetRequestID(r)
				logger.LogAttrs(r.Context(), slog.LevelError, "panic recovered",
					slog.Any("error", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", id),
					slog.Bool("response_started", rw.started),
					slog.String("stack", string(debug.Stack())),
				)
				if rw.started {
					return
				}

				var body panicBody
				body.Error.Code = "INTERNAL_ERROR"
				body.Error.Message = "internal server error"
				body.Error.RequestID = id

				rw.Header().Set("Content-Type", "application/json")
				rw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(rw).Encode(body); err != nil {
					logger.Error("failed to write recovery response", "request_id", id, "error", err)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

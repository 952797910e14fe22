package web

// errors.go turns errors into JSON responses.
//
// The technical error is logged with the request id; the client only sees
// the coded message from core.MapError.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/sapclean/internal/core"
	"github.com/JonMunkholm/sapclean/internal/logging"
	"github.com/JonMunkholm/sapclean/internal/report"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	RunID   string `json:"runId,omitempty"`
}

var (
	// errNoFile is returned when a multipart request has no "file" part.
	errNoFile = errors.New("no file provided")

	// errUnsupportedUpload is returned for spreadsheets, archives and PDFs.
	errUnsupportedUpload = errors.New("unsupported upload type")
)

// respondError logs err and writes its user message. A status of 0 picks
// one from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Log(r.Context(), errorLevel(err), "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		RunID:   w.Header().Get("X-Run-ID"),
	})
}

// errorLevel logs errors with a specific user message at WARN and
// unexpected ones at ERROR.
func errorLevel(err error) slog.Level {
	if core.IsUserFacing(err) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, report.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, errUnsupportedUpload):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrExportFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

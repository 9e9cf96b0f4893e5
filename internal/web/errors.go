package web

// errors.go renders every error response of the API.
//
// The flow:
//  1. A handler gets an error from the service (or from decoding input)
//  2. It calls s.respondError(w, r, err)
//  3. core.MapError picks the user-facing message and support code and
//     core.HTTPStatus picks the status
//  4. The technical error is logged with the request id; the client only
//     sees the mapped message

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// respondError logs err and writes the mapped JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := core.HTTPStatus(err)
	msg := core.MapError(err)
	if errors.Is(err, errBadRequest) {
		status = http.StatusBadRequest
		msg = core.UserMessage{Message: "The request could not be read", Action: "Check the request body and parameters", Code: "REQ001"}
	}

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	writeJSONStatus(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeJSON writes v with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are logged since the
// header is already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// decodeJSON reads a JSON body of at most limit bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// requestIDHeader echoes chi's request id so clients can quote it.
func requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		next.ServeHTTP(w, r)
	})
}

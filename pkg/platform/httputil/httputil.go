// Package httputil holds the JSON response helpers shared by every handler.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	dErrors "smpserver/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies; business cards with many entities stay well below it.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status and JSON envelope. Server errors
// carry only their code; their text stays in the logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="smp"`)
	}
	resp := ErrorResponse{Error: string(code)}
	if status < http.StatusInternalServerError {
		resp.ErrorDescription = dErrors.Message(err)
	}
	WriteJSON(w, status, resp)
}

// DecodeJSON decodes the request body into T, rejecting unknown fields and trailing data.
func DecodeJSON[T any](r *http.Request) (*T, error) {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var v T
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	if dec.More() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body must contain a single JSON object")
	}
	return &v, nil
}

// DecodeOrWrite decodes the body and writes a 400 on failure. ok is false when the
// response has already been written.
func DecodeOrWrite[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	v, err := DecodeJSON[T](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return v, true
}

// PathParam returns the chi URL parameter, percent-decoded. Participant identifiers
// arrive encoded ("iso6523-actorid-upis%3A%3A9906%3Aabc") when clients escape them.
func PathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

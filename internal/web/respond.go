package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrorResponse is the body sent for every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retriable bool   `json:"retriable,omitempty"`
}

// maxBody bounds the size of accepted request bodies.
const maxBody = 1 << 20

// Decode reads a JSON body into v. Unknown fields are rejected.
func Decode(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return errors.New("request must be a json")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	defer r.Body.Close()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}

// Respond writes data as JSON with the status code. A nil data or a
// 204 status writes only the header.
func Respond(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {
	setStatusCode(ctx, statusCode)

	if data == nil || statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	bs, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return fmt.Errorf("failed to encode response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(bs); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}

	return nil
}

// RespondError writes an ErrorResponse with the status code.
func RespondError(ctx context.Context, w http.ResponseWriter, msg string, statusCode int) error {
	return Respond(ctx, w, ErrorResponse{Error: msg}, statusCode)
}

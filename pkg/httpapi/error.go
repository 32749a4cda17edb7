package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// RequestID returns the id the logging middleware echoed on the response,
// falling back to the incoming header.
func RequestID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(w.Header().Get("X-Request-Id")); id != "" {
		return id
	}
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Header.Get("X-Request-Id"))
}

// WriteRequestError writes the envelope with the request id and path in meta.
func WriteRequestError(w http.ResponseWriter, r *http.Request, status int, code, message string) error {
	meta := map[string]string{}
	if id := RequestID(w, r); id != "" {
		meta["request_id"] = id
	}
	if r != nil {
		meta["path"] = r.URL.Path
	}
	return WriteError(w, status, code, message, meta)
}

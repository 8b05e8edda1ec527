// Package httpx holds the shared JSON request/response helpers and the error
// envelope used by every handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/locagest/contratos/pkg/workflow"
)

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 8<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	}
	WriteJSON(w, status, resp)
}

// WriteRejection maps a workflow rejection to its HTTP status. Local
// precondition failures (validation) are 422; state conflicts, including
// races detected at the store, are 409 so callers can refresh and retry.
func WriteRejection(w http.ResponseWriter, rej *workflow.Rejection) {
	status := http.StatusConflict
	switch rej.Code {
	case workflow.CodeMissingImage, workflow.CodeUnknownParty:
		status = http.StatusUnprocessableEntity
	}
	WriteError(w, status, rej.Code, rej.Message, nil)
}

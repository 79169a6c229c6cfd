package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tripleclub/travel-group-api/internal/app/groups"
	"github.com/tripleclub/travel-group-api/internal/app/joins"
	"github.com/tripleclub/travel-group-api/internal/app/travels"
	"github.com/tripleclub/travel-group-api/internal/app/users"
)

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	resp := errorResponse{Error: errorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: middleware.GetReqID(r.Context()),
	}}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeAppError maps the per-service error types onto the shared envelope.
// Anything unrecognized is a 500.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ge *groups.Error
	if errors.As(err, &ge) {
		writeError(w, r, ge.Status, ge.Code, ge.Message, ge.Details)
		return
	}
	var je *joins.Error
	if errors.As(err, &je) {
		writeError(w, r, je.Status, je.Code, je.Message, je.Details)
		return
	}
	var te *travels.Error
	if errors.As(err, &te) {
		writeError(w, r, te.Status, te.Code, te.Message, te.Details)
		return
	}
	var ue *users.Error
	if errors.As(err, &ue) {
		writeError(w, r, ue.Status, ue.Code, ue.Message, ue.Details)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/good-yellow-bee/statushook/internal/models"
	"github.com/good-yellow-bee/statushook/internal/sink"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   *Error `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// JSONError writes a JSON error response.
func JSONError(w http.ResponseWriter, err *Error) {
	JSON(w, err.Status, ErrorResponse{Error: err})
}

// OK writes a 200 OK response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// WebhookResponse is returned to the monitoring provider after a recorded
// event. Providers generally ignore the body; it exists for operators
// testing deliveries by hand.
type WebhookResponse struct {
	Success       bool             `json:"success"`
	EventType     models.EventType `json:"eventType"`
	ServiceID     string           `json:"serviceId,omitempty"`
	StorageMethod string           `json:"storageMethod"`
	Result        *sink.Result     `json:"result,omitempty"`
}

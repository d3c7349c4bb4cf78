package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/mpmonitor/internal/logging"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

type Responder struct {
	logger logging.Logger
}

func NewResponder(logger logging.Logger) Responder {
	return Responder{logger: logger}
}

func (rs Responder) WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		rs.logger.Error(r.Context(), "error marshaling response data", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		rs.logger.Error(r.Context(), "error writing response", "error", err)
	}
}

// WriteError renders err. Errors without a known mapping are logged and
// reported as a generic 500.
func (rs Responder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toApiErr(err)
	if apiErr == nil {
		rs.logger.Error(r.Context(), "internal error", "method", r.Method, "path", r.URL.Path, "error", err)
		rs.WriteJSON(w, r, http.StatusInternalServerError, ErrorResponse{
			Error:  "internal server error",
			Status: http.StatusInternalServerError,
			Kind:   KindInternal,
		})
		return
	}

	rs.WriteJSON(w, r, apiErr.StatusCode, ErrorResponse{
		Error:   apiErr.Message,
		Status:  apiErr.StatusCode,
		Kind:    apiErr.Kind,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

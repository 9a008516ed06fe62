package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/field-scheduler/internal/booking"
	"github.com/example/field-scheduler/internal/db"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeError maps the booking error taxonomy onto HTTP statuses. Anything
// unrecognized is a plain 500 with the message withheld.
func writeError(w http.ResponseWriter, err error) {
	var (
		cfgErr *booking.ConfigurationError
		incErr *booking.IncompleteBookingError
		rejErr *booking.UpstreamRejection
	)
	switch {
	case errors.Is(err, booking.ErrUpstreamAuth):
		writeErrorMsg(w, http.StatusUnauthorized, "upstream_auth", "upstream platform rejected the stored credentials")
	case errors.Is(err, db.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, booking.ErrOutOfSequence):
		writeErrorMsg(w, http.StatusConflict, "out_of_sequence", err.Error())
	case errors.Is(err, booking.ErrNoAvailability):
		writeErrorMsg(w, http.StatusUnprocessableEntity, "no_availability", err.Error())
	case errors.As(err, &incErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   incErr.Error(),
			Code:    "incomplete_booking",
			Details: incErr.Missing,
		})
	case errors.As(err, &cfgErr):
		writeErrorMsg(w, http.StatusUnprocessableEntity, "configuration_error", cfgErr.Error())
	case errors.As(err, &rejErr):
		writeErrorMsg(w, http.StatusUnprocessableEntity, "upstream_rejected", rejErr.Error())
	case errors.Is(err, booking.ErrUpstreamUnavailable):
		writeErrorMsg(w, http.StatusBadGateway, "upstream_unavailable", "upstream platform unavailable")
	default:
		writeErrorMsg(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

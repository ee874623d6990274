package httpapi

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/Farizu224/vending-machine-web/internal/api"
	"github.com/Farizu224/vending-machine-web/internal/auth"
	"github.com/Farizu224/vending-machine-web/internal/consult"
	"github.com/Farizu224/vending-machine-web/internal/payment"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondFailure maps domain and upstream errors onto HTTP statuses.
func respondFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, payment.ErrIncompleteForm),
		errors.Is(err, payment.ErrEmptyCart),
		errors.Is(err, consult.ErrUnknownOption):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, consult.ErrNotStarted):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, consult.ErrAnswerInFlight):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, consult.ErrSessionRestarted):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, auth.ErrNoToken):
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	if apiErr, ok := api.AsError(err); ok {
		switch apiErr.Kind {
		case api.KindAuthRejected:
			respondError(w, http.StatusUnauthorized, apiErr.Message)
		case api.KindValidation:
			respondError(w, http.StatusBadRequest, apiErr.Message)
		case api.KindNetwork:
			respondError(w, http.StatusBadGateway, apiErr.Message)
		default:
			status := apiErr.Status
			if status < http.StatusBadRequest {
				status = http.StatusBadGateway
			}
			respondError(w, status, apiErr.Message)
		}
		return
	}

	respondError(w, http.StatusInternalServerError, "internal error")
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shahadul878/planet-2.0/pkg/e"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToHTTPResponse maps a usecase error to a status code and a client-safe message.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrAlreadyRunning):
		return http.StatusConflict, e.ErrAlreadyRunning.Error()
	case errors.Is(err, e.ErrNoActiveBatch):
		return http.StatusConflict, e.ErrNoActiveBatch.Error()
	case errors.Is(err, e.ErrUnknownSyncMethod):
		return http.StatusBadRequest, e.ErrUnknownSyncMethod.Error()
	case errors.Is(err, e.ErrQueueEmpty):
		return http.StatusUnprocessableEntity, e.ErrQueueEmpty.Error()
	case errors.Is(err, e.ErrCategoryValidation):
		return http.StatusUnprocessableEntity, e.ErrCategoryValidation.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrRemoteUnreachable):
		return http.StatusBadGateway, e.ErrRemoteUnreachable.Error()
	case errors.Is(err, e.ErrRemoteBadStatus):
		return http.StatusBadGateway, e.ErrRemoteBadStatus.Error()
	case errors.Is(err, e.ErrRemoteMalformed):
		return http.StatusBadGateway, e.ErrRemoteMalformed.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func writeUsecaseError(w http.ResponseWriter, err error) {
	status, message := ToHTTPResponse(err)
	WriteError(w, status, message)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Code: status, Message: message})
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

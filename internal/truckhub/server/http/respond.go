package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type errorResponse struct {
	Error string `json:"error"`
}

func readJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}

// respondErr maps domain errors to HTTP status codes.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(err, "Request failed", "method", r.Method, "path", r.URL.Path)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrTruckNotFound),
		errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNotOwner),
		errors.Is(err, model.ErrNotDriver):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidMode),
		errors.Is(err, model.ErrInvalidRating),
		errors.Is(err, model.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTruckExists),
		errors.Is(err, model.ErrUserExists),
		errors.Is(err, model.ErrExclusivity),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrAlreadyReviewed),
		errors.Is(err, model.ErrTruckOffline):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

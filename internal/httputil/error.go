package httputil

import (
	"errors"
	"net/http"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
)

type errorBody struct {
	Error string `json:"error"`
}

func InternalServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	Logger(r.Context()).WithError(err).Error(msg)
	JSON(w, http.StatusInternalServerError, errorBody{Error: "Erro interno do servidor"})
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	entry := Logger(r.Context()).WithField("message", msg)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("bad request")
	JSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	Logger(r.Context()).WithField("message", msg).Warn("not found")
	JSON(w, http.StatusNotFound, errorBody{Error: msg})
}

func TooManyRequests(w http.ResponseWriter, r *http.Request, msg string) {
	Logger(r.Context()).WithField("message", msg).Warn("rate limited")
	JSON(w, http.StatusTooManyRequests, errorBody{Error: msg})
}

// Error writes a domain error. Validation and missing-record errors are the
// caller's to fix and map to 400; anything else is a 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var validation *bracket.ValidationError
	var notFound *bracket.NotFoundError

	switch {
	case errors.As(err, &validation):
		BadRequest(w, r, validation.Msg, nil)
	case errors.As(err, &notFound):
		BadRequest(w, r, notFound.Msg, nil)
	default:
		InternalServerError(w, r, "request failed", err)
	}
}

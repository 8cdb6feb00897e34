package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"mostrador/internal/compose"
	"mostrador/internal/upstream"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusInternalServerError, "el servidor encontró un problema")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusUnauthorized, err.Error())
}

func (app *application) unprocessableEntityResponse(w http.ResponseWriter, r *http.Request, err error) {
	writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	w.Header().Set("Retry-After", retryAfter.String())
	writeJSONError(w, http.StatusTooManyRequests, "demasiadas solicitudes, intente más tarde")
}

// upstreamErrorResponse maps a failed upstream call onto the BFF's surface:
// auth problems stay 401, save re-entry is 409, validation failures are 422,
// everything else is a gateway error carrying the upstream message verbatim.
func (app *application) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, upstream.ErrUnauthorized):
		app.unauthorizedErrorResponse(w, r, err)
	case errors.Is(err, compose.ErrSaveInProgress):
		app.conflictResponse(w, r, err)
	case compose.IsValidation(err):
		app.unprocessableEntityResponse(w, r, err)
	default:
		app.logger.Errorw("upstream error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusBadGateway, err.Error())
	}
}

func invalidParam(name, got string) error {
	return fmt.Errorf("parámetro %s inválido: %s", name, got)
}

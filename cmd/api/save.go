package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"mostrador/internal/compose"
)

// saveProductHandler runs the whole save transaction: precondition checks,
// concurrent per-color uploads, then the single creation request. No network
// call happens if any precondition fails.
func (app *application) saveProductHandler(w http.ResponseWriter, r *http.Request) {
	var req compose.SaveRequest
	if err := readJSON(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(req); err != nil {
		app.unprocessableEntityResponse(w, r, errors.New(saveRequestMessage(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	sess := sessionFrom(r)
	created, err := app.saver.Save(ctx, credentialsFrom(r), sess, req)
	if err != nil {
		app.upstreamErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]any{
		"producto": created,
		"codigo":   sess.Code(),
	})
}

// saveRequestMessage maps struct-tag failures onto the same user-visible
// messages the deeper precondition checks produce, so the wire message is
// Spanish regardless of which layer rejects first.
func saveRequestMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "solicitud inválida"
	}
	switch fieldErrs[0].Field() {
	case "BranchID":
		return "seleccione una sucursal válida"
	case "CategoryID":
		return "seleccione una categoría válida"
	case "SKU":
		return "el SKU es obligatorio"
	case "Name":
		return "el nombre del producto es obligatorio"
	}
	return "solicitud inválida"
}

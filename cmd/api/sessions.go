package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mostrador/internal/compose"
)

func (app *application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := app.sessions.Create()
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("composition session created", "code", sess.Code())
	w.Header().Set("Location", fmt.Sprintf("/v1/composiciones/%s", sess.Code()))
	app.jsonResponse(w, http.StatusCreated, sess.State())
}

func (app *application) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	app.jsonResponse(w, http.StatusOK, sessionFrom(r).State())
}

func (app *application) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	app.sessions.Remove(sess.Code())
	app.logger.Infow("composition session closed", "code", sess.Code())
	w.WriteHeader(http.StatusNoContent)
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidParam(name, raw)
	}
	return id, nil
}

func (app *application) toggleColorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "colorID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	sess := sessionFrom(r)
	selected := sess.ToggleColor(id)
	app.jsonResponse(w, http.StatusOK, map[string]any{
		"seleccionado": selected,
		"estado":       sess.State(),
	})
}

func (app *application) toggleSizeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tallaID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	sess := sessionFrom(r)
	selected := sess.ToggleSize(id)
	app.jsonResponse(w, http.StatusOK, map[string]any{
		"seleccionado": selected,
		"estado":       sess.State(),
	})
}

func (app *application) focusColorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "colorID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	sess := sessionFrom(r)
	if !sess.FocusColor(id) {
		app.badRequestResponse(w, r, fmt.Errorf("el color %d no está seleccionado", id))
		return
	}
	app.jsonResponse(w, http.StatusOK, sess.State())
}

func (app *application) listRowsHandler(w http.ResponseWriter, r *http.Request) {
	rows := sessionFrom(r).Rows()
	app.jsonResponse(w, http.StatusOK, map[string]any{
		"variantes": rows,
		"total":     len(rows),
	})
}

func variantKeyParams(r *http.Request) (compose.VariantKey, error) {
	colorID, err := idParam(r, "colorID")
	if err != nil {
		return compose.VariantKey{}, err
	}
	sizeID, err := idParam(r, "tallaID")
	if err != nil {
		return compose.VariantKey{}, err
	}
	return compose.VariantKey{ColorID: colorID, SizeID: sizeID}, nil
}

func (app *application) setFieldHandler(w http.ResponseWriter, r *http.Request) {
	key, err := variantKeyParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var in struct {
		Field string `json:"campo"`
		Value string `json:"valor"`
	}
	if err := readJSON(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := sessionFrom(r)
	if err := sess.SetField(key, in.Field, in.Value); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, map[string]any{"variantes": sess.Rows()})
}

func (app *application) applyFieldHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Field string `json:"campo"`
		Value string `json:"valor"`
	}
	if err := readJSON(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := sessionFrom(r)
	if err := sess.ApplyToAll(in.Field, in.Value); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, map[string]any{"variantes": sess.Rows()})
}

func (app *application) removeRowHandler(w http.ResponseWriter, r *http.Request) {
	key, err := variantKeyParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := sessionFrom(r)
	sess.RemoveRow(key)
	// removal can cascade into deselection, so return the whole state
	app.jsonResponse(w, http.StatusOK, sess.State())
}

package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mostrador/internal/media"
)

func (app *application) openMediaHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.OpenMedia()
	app.jsonResponse(w, http.StatusOK, sess.State())
}

// addMediaFilesHandler stages a batch of picked files for one color. Invalid
// files are dropped individually; valid ones queue as candidates awaiting
// explicit confirmation, one at a time.
func (app *application) addMediaFilesHandler(w http.ResponseWriter, r *http.Request) {
	colorID, err := idParam(r, "colorID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	maxBytes := app.config.media.maxFileBytes * int64(app.config.media.maxPerColor+1)
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	headers := r.MultipartForm.File["archivos"]
	if len(headers) == 0 {
		app.badRequestResponse(w, r, errors.New("no se recibieron archivos"))
		return
	}

	uploads := make([]media.Upload, 0, len(headers))
	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("open upload %s: %w", hdr.Filename, err))
			return
		}
		defer f.Close()
		uploads = append(uploads, media.Upload{Name: hdr.Filename, Size: hdr.Size, R: f})
	}

	sess := sessionFrom(r)
	report, err := sess.AddMediaFiles(colorID, uploads)
	if err != nil {
		app.mediaErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"reporte": report,
		"estado":  sess.State(),
	})
}

func (app *application) acceptCandidateHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	item, err := sess.AcceptCandidate()
	if err != nil {
		app.mediaErrorResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, map[string]any{
		"aceptada": item,
		"estado":   sess.State(),
	})
}

func (app *application) cancelCandidateHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.CancelCandidate(); err != nil {
		app.mediaErrorResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, sess.State())
}

func (app *application) removeMediaHandler(w http.ResponseWriter, r *http.Request) {
	colorID, err := idParam(r, "colorID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")

	sess := sessionFrom(r)
	if err := sess.RemoveMedia(colorID, itemID); err != nil {
		app.mediaErrorResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, sess.State())
}

func (app *application) discardMediaHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.DiscardMedia(); err != nil {
		app.mediaErrorResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, sess.State())
}

func (app *application) saveMediaHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.SaveMedia(); err != nil {
		app.mediaErrorResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, sess.State())
}

// mediaPreviewHandler serves the locally generated preview of a staged
// image, falling back to the staged bytes for formats without a thumbnail.
func (app *application) mediaPreviewHandler(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	item, ok := sessionFrom(r).LookupMedia(itemID)
	if !ok {
		app.notFoundResponse(w, r, fmt.Errorf("imagen %s no encontrada", itemID))
		return
	}
	path := item.Handle.ThumbPath
	if path == "" {
		path = item.Handle.Path
	}
	http.ServeFile(w, r, path)
}

func (app *application) mediaErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, media.ErrEditorClosed),
		errors.Is(err, media.ErrNoCandidate):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, media.ErrCandidatePending),
		errors.Is(err, media.ErrColorFull):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

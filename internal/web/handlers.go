package web

import (
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/desertthunder/cancionero/internal/catalog"
	"github.com/desertthunder/cancionero/internal/models"
	"github.com/desertthunder/cancionero/internal/shared"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to temp files.
const multipartMemory = 8 << 20

// pageData is the view model shared by every template.
type pageData struct {
	Flashes []Flash
	Page    *models.Page
	Song    *models.Song
	Accept  string
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request, store catalog.SongStore) {
	page, err := a.catalog.ListSongs(r.Context(), store, r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		a.logError(r, "failed to list songs", err)
		http.Error(w, "Failed to load songs", http.StatusInternalServerError)
		return
	}

	data := pageData{Flashes: popFlashes(w, r), Page: page}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		a.render(w, r, a.index, "songs", http.StatusOK, data)
		return
	}
	a.render(w, r, a.index, "layout", http.StatusOK, data)
}

func (a *App) handleNewForm(w http.ResponseWriter, r *http.Request) {
	a.renderForm(w, r, http.StatusOK, nil, popFlashes(w, r)...)
}

func (a *App) handleCreate(w http.ResponseWriter, r *http.Request, store catalog.SongStore) {
	photo, cleanup, err := a.parseSongForm(r)
	defer cleanup()
	if err != nil {
		a.renderFormError(w, r, nil, err)
		return
	}

	_, err = a.catalog.CreateSong(r.Context(), store, catalog.CreateInput{
		Title:  r.FormValue("title"),
		Lyrics: r.FormValue("lyrics"),
		Photo:  photo,
	})
	if err != nil {
		a.renderFormError(w, r, nil, err)
		return
	}

	a.redirect(w, r, Flash{FlashSuccess, "Song added."})
}

func (a *App) handleEditForm(w http.ResponseWriter, r *http.Request, store catalog.SongStore) {
	id, ok := a.songID(w, r)
	if !ok {
		return
	}

	song, err := a.catalog.GetSong(r.Context(), store, id)
	if err != nil {
		a.redirectError(w, r, err)
		return
	}

	a.renderForm(w, r, http.StatusOK, song, popFlashes(w, r)...)
}

func (a *App) handleUpdate(w http.ResponseWriter, r *http.Request, store catalog.SongStore) {
	id, ok := a.songID(w, r)
	if !ok {
		return
	}

	song, err := a.catalog.GetSong(r.Context(), store, id)
	if err != nil {
		a.redirectError(w, r, err)
		return
	}

	photo, cleanup, err := a.parseSongForm(r)
	defer cleanup()
	if err != nil {
		a.renderFormError(w, r, song, err)
		return
	}

	_, err = a.catalog.UpdateSong(r.Context(), store, id, catalog.UpdateInput{
		Title:  r.FormValue("title"),
		Lyrics: r.FormValue("lyrics"),
		Photo:  photo,
	})
	switch {
	case errors.Is(err, shared.ErrNotFound):
		a.redirectError(w, r, err)
	case err != nil:
		a.renderFormError(w, r, song, err)
	case photo != nil:
		a.redirect(w, r, Flash{FlashSuccess, "Song and photo updated."})
	default:
		a.redirect(w, r, Flash{FlashSuccess, "Song updated."})
	}
}

func (a *App) handleDelete(w http.ResponseWriter, r *http.Request, store catalog.SongStore) {
	id, ok := a.songID(w, r)
	if !ok {
		return
	}

	if err := a.catalog.DeleteSong(r.Context(), store, id); err != nil {
		a.redirectError(w, r, err)
		return
	}

	a.redirect(w, r, Flash{FlashSuccess, "Song deleted."})
}

func (a *App) handlePublish(w http.ResponseWriter, r *http.Request, store catalog.SongStore) {
	id, ok := a.songID(w, r)
	if !ok {
		return
	}

	url, err := a.catalog.PublishPhoto(r.Context(), store, id)
	if err != nil {
		a.redirectError(w, r, err)
		return
	}

	a.redirect(w, r, Flash{FlashSuccess, "Photo published: " + url})
}

func (a *App) handleAPIList(w http.ResponseWriter, r *http.Request, store catalog.SongStore) {
	page, err := a.catalog.ListSongs(r.Context(), store, r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		a.logError(r, "failed to list songs", err)
		a.renderJSONError(w, r, http.StatusInternalServerError, "failed to list songs")
		return
	}

	render.JSON(w, r, page)
}

func (a *App) handleAPIGet(w http.ResponseWriter, r *http.Request, store catalog.SongStore) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.renderJSONError(w, r, http.StatusNotFound, "song not found")
		return
	}

	song, err := a.catalog.GetSong(r.Context(), store, id)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		a.renderJSONError(w, r, http.StatusNotFound, "song not found")
	case err != nil:
		a.logError(r, "failed to get song", err)
		a.renderJSONError(w, r, http.StatusInternalServerError, "failed to load song")
	default:
		render.JSON(w, r, song)
	}
}

// parseSongForm reads the multipart body and returns the optional photo.
// The returned cleanup removes any temp files and must always be called.
func (a *App) parseSongForm(r *http.Request) (*catalog.Upload, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, fmt.Errorf("%w: upload exceeds %d MB", errUploadTooLarge, a.images.MaxBytes()>>20)
		}
		return nil, noop, fmt.Errorf("%w: malformed form: %v", shared.ErrValidation, err)
	}

	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, cleanup, nil
	}
	if err != nil {
		return nil, cleanup, fmt.Errorf("%w: unreadable photo: %v", shared.ErrValidation, err)
	}
	if header.Filename == "" {
		file.Close()
		return nil, cleanup, nil
	}

	return &catalog.Upload{Filename: header.Filename, Reader: file}, func() {
		closeFile(file)
		cleanup()
	}, nil
}

func closeFile(f multipart.File) { _ = f.Close() }

var errUploadTooLarge = fmt.Errorf("%w: request too large", shared.ErrValidation)

// renderFormError maps a failed create/update to a re-rendered form.
func (a *App) renderFormError(w http.ResponseWriter, r *http.Request, song *models.Song, err error) {
	switch {
	case errors.Is(err, errUploadTooLarge):
		a.renderForm(w, r, http.StatusRequestEntityTooLarge, song, Flash{FlashWarning, userMessage(err)})
	case errors.Is(err, shared.ErrValidation):
		a.renderForm(w, r, http.StatusUnprocessableEntity, song, Flash{FlashWarning, userMessage(err)})
	default:
		a.logError(r, "failed to save song", err)
		a.renderForm(w, r, http.StatusInternalServerError, song, Flash{FlashError, "The song could not be saved. Please try again."})
	}
}

// redirectError maps a failed action to a flash message on the listing.
func (a *App) redirectError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		a.redirect(w, r, Flash{FlashError, "Song or photo not found."})
	case errors.Is(err, shared.ErrRemoteService):
		a.logger.Warn("remote publishing failed", "path", r.URL.Path, "error", err)
		a.redirect(w, r, Flash{FlashError, "Photo upload failed: " + userMessage(err)})
	case errors.Is(err, shared.ErrValidation):
		a.redirect(w, r, Flash{FlashWarning, userMessage(err)})
	default:
		a.logError(r, "request failed", err)
		a.redirect(w, r, Flash{FlashError, "Something went wrong. Please try again."})
	}
}

func (a *App) renderForm(w http.ResponseWriter, r *http.Request, status int, song *models.Song, flashes ...Flash) {
	a.render(w, r, a.form, "layout", status, pageData{Flashes: flashes, Song: song, Accept: a.accept()})
}

func (a *App) render(w http.ResponseWriter, r *http.Request, t *template.Template, name string, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		a.logError(r, "failed to render template", err)
	}
}

func (a *App) redirect(w http.ResponseWriter, r *http.Request, f Flash) {
	setFlash(w, f)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		a.renderJSONError(w, r, http.StatusNotFound, "not found")
		return
	}
	http.Error(w, "Page not found", http.StatusNotFound)
}

func (a *App) renderJSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// songID parses the {id} URL parameter, redirecting to the listing when it is not a positive integer.
func (a *App) songID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.redirect(w, r, Flash{FlashError, "Song not found."})
		return 0, false
	}
	return id, true
}

func (a *App) logError(r *http.Request, msg string, err error) {
	a.logger.Error(msg,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
}

// pageParam reads ?page=, treating anything unparsable as the first page.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}

// userMessage strips the sentinel prefix from a domain error for display.
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{errUploadTooLarge, shared.ErrValidation, shared.ErrRemoteService, shared.ErrNotFound} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}

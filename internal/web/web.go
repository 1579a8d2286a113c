// Package web implements the server-rendered song catalogue.
//
// # Routes
//
//	GET  /                    → paginated, searchable listing (?q=&page=)
//	GET  /songs/new           → empty song form
//	POST /songs/new           → create song (multipart: title, lyrics, photo)
//	GET  /songs/{id}/edit     → prefilled song form
//	POST /songs/{id}/edit     → update song, optionally replacing its photo
//	POST /songs/{id}/delete   → delete song and its local photo
//	POST /songs/{id}/publish  → copy the local photo to the remote media host
//	GET  /media/{filename}    → stored image, 404 when absent
//	GET  /static/*            → embedded scripts
//	GET  /api/songs           → JSON page of songs (?q=&page=)
//	GET  /api/songs/{id}      → JSON song
//	GET  /healthz             → liveness
//
// Unknown paths answer 404, as JSON under /api/.
//
// Requests carrying "X-Requested-With: XMLHttpRequest" on / receive only the song list
// fragment, which the search box swaps in as the user types.
//
// # Connections
//
// Each catalogue request checks one connection out of the pool, builds a song repository
// on it and hands that repository to the catalog service explicitly. The connection is
// returned when the handler finishes, on every path.
//
// # Errors
//
// Validation failures re-render an empty form with a warning (422). Unknown songs and
// missing files redirect to the listing with an error message, as do remote publishing
// failures. Storage failures are logged with the request context and shown as a generic
// error.
package web

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cancionero/internal/catalog"
	"github.com/desertthunder/cancionero/internal/media"
	"github.com/desertthunder/cancionero/internal/repositories"
	"github.com/desertthunder/cancionero/internal/server"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Options wires an [App] to its collaborators.
type Options struct {
	DB      *sql.DB
	Catalog *catalog.Service
	Images  *media.Ingestor
	Logger  *log.Logger

	// Production enables strict security headers.
	Production bool
	// AllowedExtensions feeds the accept attribute of file inputs.
	AllowedExtensions []string
}

// App serves the catalogue over HTTP.
type App struct {
	db      *sql.DB
	catalog *catalog.Service
	images  *media.Ingestor
	logger  *log.Logger
	opts    Options

	index *template.Template
	form  *template.Template
}

// New parses the embedded templates and returns an [App].
func New(opts Options) (*App, error) {
	if opts.DB == nil || opts.Catalog == nil || opts.Images == nil {
		return nil, errors.New("web: database, catalog and image store are required")
	}
	if opts.Logger == nil {
		return nil, errors.New("web: logger is required")
	}

	funcs := template.FuncMap{
		// safe marks text that already went through the sanitizer.
		"safe": func(s string) template.HTML { return template.HTML(s) },
		// unescape turns sanitized text back into what the user typed, for form fields.
		"unescape": html.UnescapeString,
	}

	index, err := template.New("index").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html", "templates/songs.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index templates: %w", err)
	}

	form, err := template.New("form").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html", "templates/form.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse form templates: %w", err)
	}

	return &App{
		db:      opts.DB,
		catalog: opts.Catalog,
		images:  opts.Images,
		logger:  opts.Logger,
		opts:    opts,
		index:   index,
		form:    form,
	}, nil
}

// Handler builds the router with every route registered.
func (a *App) Handler() http.Handler {
	r := server.NewRouter(a.logger, server.RouterOptions{
		Production:   a.opts.Production,
		MaxBodyBytes: a.maxBodyBytes(),
	})
	a.Register(r)
	return r
}

// Register adds the application routes to r.
func (a *App) Register(r *server.ChiRouter) {
	r.HandleFunc(http.MethodGet, "/", a.withStore(a.handleIndex))
	r.HandleFunc(http.MethodGet, "/songs/new", a.handleNewForm)
	r.HandleFunc(http.MethodPost, "/songs/new", a.withStore(a.handleCreate))
	r.HandleFunc(http.MethodGet, "/songs/{id}/edit", a.withStore(a.handleEditForm))
	r.HandleFunc(http.MethodPost, "/songs/{id}/edit", a.withStore(a.handleUpdate))
	r.HandleFunc(http.MethodPost, "/songs/{id}/delete", a.withStore(a.handleDelete))
	r.HandleFunc(http.MethodPost, "/songs/{id}/publish", a.withStore(a.handlePublish))
	r.HandleFunc(http.MethodGet, "/api/songs", a.withStore(a.handleAPIList))
	r.HandleFunc(http.MethodGet, "/api/songs/{id}", a.withStore(a.handleAPIGet))

	r.Handler(&MediaHandler{images: a.images})
	r.Handler(NewStaticHandler())
	r.NotFound(a.handleNotFound)
}

// maxBodyBytes leaves room for the multipart envelope around the largest accepted image.
func (a *App) maxBodyBytes() int64 {
	return a.images.MaxBytes() + 1<<20
}

// storeHandlerFunc is a handler that receives the request-scoped song repository.
type storeHandlerFunc func(w http.ResponseWriter, r *http.Request, store catalog.SongStore)

// withStore checks a connection out of the pool for the duration of one request.
func (a *App) withStore(fn storeHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := a.db.Conn(r.Context())
		if err != nil {
			a.logger.Error("failed to acquire database connection", "path", r.URL.Path, "error", err)
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}
		defer conn.Close()

		fn(w, r, repositories.NewSongRepository(conn))
	}
}

func (a *App) accept() string {
	exts := make([]string, 0, len(a.opts.AllowedExtensions))
	for _, ext := range a.opts.AllowedExtensions {
		exts = append(exts, "."+strings.TrimPrefix(ext, "."))
	}
	return strings.Join(exts, ",")
}

// StaticHandler serves the embedded static assets under /static/.
type StaticHandler struct {
	files http.Handler
}

// NewStaticHandler creates a [StaticHandler].
func NewStaticHandler() *StaticHandler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("embedded static assets: %v", err))
	}
	return &StaticHandler{files: http.StripPrefix("/static/", http.FileServer(http.FS(sub)))}
}

func (h *StaticHandler) Routes() []string { return []string{"/static/*"} }

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.files.ServeHTTP(w, r)
}

// MediaHandler serves stored images by reference.
type MediaHandler struct {
	images *media.Ingestor
}

func (h *MediaHandler) Routes() []string { return []string{"/media/{filename}"} }

// ServeHTTP writes the stored file or responds 404. References that are not plain stored
// file names never touch the file system.
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ref := lastSegment(r.URL.Path)
	if !h.images.Exists(ref) {
		http.NotFound(w, r)
		return
	}

	path, err := h.images.Path(ref)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

func lastSegment(p string) string {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

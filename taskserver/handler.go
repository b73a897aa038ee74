package taskserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/kastheco/tareas/export"
	"github.com/kastheco/tareas/internal/clock"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/task"
)

// DefaultPrefix is the path the API is mounted under.
const DefaultPrefix = "/api"

// Response texts shown to users as-is by the clients.
const (
	msgDescriptionRequired = "La descripción es obligatoria"
	msgInvalidPriority     = "Prioridad inválida. Use: Alta, Media, Baja"
	msgNotFound            = "Tarea no encontrada"
	msgDuplicate           = "Ya existe una tarea con esa descripción"
	msgInvalidBody         = "Cuerpo de la petición inválido"
	msgNoIDs               = "No se indicaron tareas"
	msgInvalidFormat       = "Formato de exportación inválido. Use: csv, json"
	msgInternal            = "Error interno del servidor"
)

const maxRequestBytes = 1 << 20

// collections are the two route roots served. /tareas is the path the
// legacy web client uses.
var collections = []string{"/tasks", "/tareas"}

type handlerConfig struct {
	prefix     string
	auth       *Authenticator
	exportOpts export.Options
	clock      clock.Clock
}

// HandlerOption configures NewHandler.
type HandlerOption func(*handlerConfig)

// WithPrefix mounts the API under prefix instead of DefaultPrefix.
func WithPrefix(prefix string) HandlerOption {
	return func(c *handlerConfig) { c.prefix = strings.TrimRight(prefix, "/") }
}

// WithAuth requires a valid bearer token on every API route.
func WithAuth(a *Authenticator) HandlerOption {
	return func(c *handlerConfig) { c.auth = a }
}

// WithExportOptions sets how the export endpoint renders timestamps.
func WithExportOptions(o export.Options) HandlerOption {
	return func(c *handlerConfig) { c.exportOpts = o }
}

// WithHandlerClock sets the clock used for export file names.
func WithHandlerClock(cl clock.Clock) HandlerOption {
	return func(c *handlerConfig) { c.clock = cl }
}

type handler struct {
	store Store
	cfg   handlerConfig
}

// NewHandler returns the REST API for store wrapped in a permissive CORS policy.
func NewHandler(store Store, opts ...HandlerOption) http.Handler {
	cfg := handlerConfig{prefix: DefaultPrefix, clock: clock.Real()}
	for _, opt := range opts {
		opt(&cfg)
	}
	h := &handler{store: store, cfg: cfg}

	r := mux.NewRouter()
	r.Use(logRequests)
	r.Methods(http.MethodGet).Path("/health").HandlerFunc(h.health)

	api := r
	if cfg.prefix != "" {
		api = r.PathPrefix(cfg.prefix).Subrouter()
	}
	if cfg.auth != nil {
		api.Use(cfg.auth.Middleware)
	}

	for _, c := range collections {
		api.Methods(http.MethodGet).Path(c).HandlerFunc(h.list)
		api.Methods(http.MethodPost).Path(c).HandlerFunc(h.create)
		api.Methods(http.MethodGet).Path(c + "/export").HandlerFunc(h.export)
		api.Methods(http.MethodDelete).Path(c + "/batch/delete").HandlerFunc(h.batchDelete)
		api.Methods(http.MethodPost).Path(c + "/batch/complete").HandlerFunc(h.batchComplete)
		api.Methods(http.MethodPost).Path(c + "/batch/prioridad").HandlerFunc(h.batchPriority)
		api.Methods(http.MethodGet).Path(c + "/{id:[0-9]+}").HandlerFunc(h.get)
		api.Methods(http.MethodPut).Path(c + "/{id:[0-9]+}").HandlerFunc(h.rename)
		api.Methods(http.MethodPost).Path(c + "/{id:[0-9]+}").HandlerFunc(h.update)
		api.Methods(http.MethodDelete).Path(c + "/{id:[0-9]+}").HandlerFunc(h.delete)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	return c.Handler(r)
}

type taskBody struct {
	Descripcion *string `json:"descripcion"`
	Completada  *bool   `json:"completada"`
	Prioridad   *string `json:"prioridad"`
}

type batchBody struct {
	IDs       []int64 `json:"ids"`
	Completed *bool   `json:"completed"`
	Prioridad string  `json:"prioridad"`
}

type listResponse struct {
	Message string      `json:"message"`
	Tasks   []task.Task `json:"tasks"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.storeError(w, "health", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.store.List(r.Context(), q.Get("sort"), q.Get("order"))
	if err != nil {
		h.storeError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Message: countMessage(len(tasks), "tarea", "tareas"), Tasks: tasks})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// create rejects a blank description; an absent or unknown priority becomes Media.
func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if !decodeBody(w, r, &body) {
		return
	}
	desc := ""
	if body.Descripcion != nil {
		desc = strings.TrimSpace(*body.Descripcion)
	}
	if desc == "" {
		writeError(w, http.StatusBadRequest, msgDescriptionRequired)
		return
	}
	priority := task.DefaultPriority
	if body.Prioridad != nil {
		priority = task.PriorityOrDefault(*body.Prioridad)
	}

	t, err := h.store.Create(r.Context(), task.Task{Description: desc, Priority: priority})
	if err != nil {
		h.storeError(w, "create", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) rename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body taskBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Descripcion == nil || strings.TrimSpace(*body.Descripcion) == "" {
		writeError(w, http.StatusBadRequest, msgDescriptionRequired)
		return
	}
	desc := strings.TrimSpace(*body.Descripcion)

	t, err := h.store.Update(r.Context(), id, Patch{Description: &desc})
	if err != nil {
		h.storeError(w, "rename", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// update applies a partial change. Unknown ids are reported before the body
// is validated; a blank description is ignored rather than rejected.
func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body taskBody
	if !decodeBody(w, r, &body) {
		return
	}
	if _, err := h.store.Get(r.Context(), id); err != nil {
		h.storeError(w, "update", err)
		return
	}

	var patch Patch
	patch.Completed = body.Completada
	if body.Prioridad != nil {
		p := task.Priority(*body.Prioridad)
		if !p.Valid() {
			writeError(w, http.StatusBadRequest, msgInvalidPriority)
			return
		}
		patch.Priority = &p
	}
	if body.Descripcion != nil {
		if desc := strings.TrimSpace(*body.Descripcion); desc != "" {
			patch.Description = &desc
		}
	}

	t, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.storeError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.storeError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) batchDelete(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBatch(w, r)
	if !ok {
		return
	}
	n, err := h.store.BatchDelete(r.Context(), body.IDs)
	if err != nil {
		h.storeError(w, "batch delete", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: countMessage(n, "tarea eliminada", "tareas eliminadas")})
}

func (h *handler) batchComplete(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBatch(w, r)
	if !ok {
		return
	}
	completed := true
	if body.Completed != nil {
		completed = *body.Completed
	}
	n, err := h.store.BatchComplete(r.Context(), body.IDs, completed)
	if err != nil {
		h.storeError(w, "batch complete", err)
		return
	}
	msg := countMessage(n, "tarea completada", "tareas completadas")
	if !completed {
		msg = countMessage(n, "tarea reabierta", "tareas reabiertas")
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (h *handler) batchPriority(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBatch(w, r)
	if !ok {
		return
	}
	p := task.Priority(body.Prioridad)
	if !p.Valid() {
		writeError(w, http.StatusBadRequest, msgInvalidPriority)
		return
	}
	n, err := h.store.BatchPriority(r.Context(), body.IDs, p)
	if err != nil {
		h.storeError(w, "batch priority", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Prioridad %s asignada a %s", p, countMessage(n, "tarea", "tareas")),
	})
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("format")
	if raw == "" {
		raw = string(export.FormatCSV)
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}

	tasks, err := h.store.List(r.Context(), q.Get("sort"), q.Get("order"))
	if err != nil {
		h.storeError(w, "export", err)
		return
	}
	data, err := export.Render(format, tasks, h.cfg.exportOpts)
	if err != nil {
		h.storeError(w, "export", err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.FileName(format, h.cfg.clock.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatJSON:
		return "application/json; charset=utf-8"
	case export.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// storeError maps store failures to status codes. Unexpected errors are
// logged and hidden behind a generic message.
func (h *handler) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, ErrDuplicate):
		writeError(w, http.StatusConflict, msgDuplicate)
	default:
		log.ErrorLog.Printf("taskserver %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

func decodeBatch(w http.ResponseWriter, r *http.Request) (batchBody, bool) {
	var body batchBody
	if !decodeBody(w, r, &body) {
		return body, false
	}
	if len(body.IDs) == 0 {
		writeError(w, http.StatusBadRequest, msgNoIDs)
		return body, false
	}
	return body, true
}

func countMessage(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WarningLog.Printf("taskserver: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.InfoLog.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

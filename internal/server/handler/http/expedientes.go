package http

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atinyakov/expedientes/internal/client/export"
	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/models"
	"github.com/atinyakov/expedientes/internal/service"
)

// ExpedienteService defines the expediente operations used by the console.
type ExpedienteService interface {
	Search(ctx context.Context, filters map[string]any) (models.Page[models.Expediente], error)
	Get(ctx context.Context, id int64) (models.Expediente, error)
	Create(ctx context.Context, dto models.CreateExpedienteDTO) (models.Expediente, error)
	Update(ctx context.Context, id int64, dto models.UpdateExpedienteDTO) (models.Expediente, error)
	ChangeEstado(ctx context.Context, id int64, estado, justificacion string) (models.Expediente, error)
	Dashboard(ctx context.Context, user models.User) (service.Summary, error)
}

// Exporter streams spreadsheet exports through a Saver.
type Exporter interface {
	ExportAllTo(ctx context.Context, s export.Saver, f models.ExpedienteFilters) (string, error)
	ExportOneTo(ctx context.Context, s export.Saver, id int64) (string, error)
}

// ExpedienteHandler serves the dashboard and the expediente views.
type ExpedienteHandler struct {
	Expedientes ExpedienteService
	Exporter    Exporter
	Auth        AuthService
}

// Dashboard handles GET /dashboard.
func (h *ExpedienteHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := h.Auth.Current()
	summary, err := h.Expedientes.Dashboard(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// List handles GET /expedientes. Query parameters are passed through the
// mapper, so both page/pagina naming conventions work.
func (h *ExpedienteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.Expedientes.Search(r.Context(), queryMap(r.URL.Query()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ExpedienteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	exp, err := h.Expedientes.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (h *ExpedienteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto models.CreateExpedienteDTO
	if !decode(w, r, &dto) {
		return
	}
	exp, err := h.Expedientes.Create(r.Context(), dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

func (h *ExpedienteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var dto models.UpdateExpedienteDTO
	if !decode(w, r, &dto) {
		return
	}
	exp, err := h.Expedientes.Update(r.Context(), id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// ChangeEstado handles PATCH /expedientes/{id}/estado. The estado may be
// sent in any casing.
func (h *ExpedienteHandler) ChangeEstado(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Estado        string `json:"estado"`
		Justificacion string `json:"justificacion"`
	}
	if !decode(w, r, &req) {
		return
	}
	exp, err := h.Expedientes.ChangeEstado(r.Context(), id, req.Estado, req.Justificacion)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// Export handles GET /expedientes/export.
func (h *ExpedienteHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := expedienteFilters(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	aw := &attachmentWriter{w: w}
	if _, err := h.Exporter.ExportAllTo(r.Context(), aw, f); err != nil && !aw.started {
		writeError(w, err)
	}
}

// ExportOne handles GET /expedientes/{id}/export.
func (h *ExpedienteHandler) ExportOne(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	aw := &attachmentWriter{w: w}
	if _, err := h.Exporter.ExportOneTo(r.Context(), aw, id); err != nil && !aw.started {
		writeError(w, err)
	}
}

// attachmentWriter is an export.Saver that streams the file to the
// console caller as an attachment.
type attachmentWriter struct {
	w       http.ResponseWriter
	started bool
}

func (a *attachmentWriter) Save(name, contentType string, r io.Reader) (string, error) {
	a.started = true
	a.w.Header().Set("Content-Type", contentType)
	a.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	a.w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(a.w, r); err != nil {
		return "", err
	}
	return "attachment:" + name, nil
}

func queryMap(values url.Values) map[string]any {
	m := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) > 0 && v[0] != "" {
			m[k] = v[0]
		}
	}
	return m
}

func expedienteFilters(values url.Values) (models.ExpedienteFilters, error) {
	var f models.ExpedienteFilters
	str := func(key string) *string {
		if v := values.Get(key); v != "" {
			return &v
		}
		return nil
	}
	f.Q = str("q")
	f.FechaInicio = str("fechaInicio")
	f.FechaFin = str("fechaFin")
	if v := values.Get("estado"); v != "" {
		estado, ok := models.ParseEstado(v)
		if !ok {
			return f, gateway.Invalid("estado", fmt.Sprintf("Estado desconocido: %q", v))
		}
		f.Estado = &estado
	}
	if v := values.Get("tecnicoId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, gateway.Invalid("tecnicoId", fmt.Sprintf("tecnicoId inválido: %q", v))
		}
		f.TecnicoID = &id
	}
	return f, nil
}

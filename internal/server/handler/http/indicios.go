package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/atinyakov/expedientes/internal/models"
)

// IndicioService defines the indicio operations used by the console.
type IndicioService interface {
	List(ctx context.Context, expedienteID int64, f models.IndicioFilters) (models.Page[models.Indicio], error)
	Create(ctx context.Context, expedienteID int64, dto models.CreateIndicioDTO) (models.Indicio, error)
	Update(ctx context.Context, id int64, dto models.UpdateIndicioDTO) (models.Indicio, error)
	SetActivo(ctx context.Context, id int64, activo bool) (models.Indicio, error)
}

// IndicioHandler serves the indicio list of the expediente detail view.
type IndicioHandler struct {
	Indicios IndicioService
}

// List handles GET /expedientes/{id}/indicios.
func (h *IndicioHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	f, ok := pagingFilters(w, r)
	if !ok {
		return
	}
	var filters models.IndicioFilters
	filters.Page, filters.PageSize = f.page, f.size
	if v := r.URL.Query().Get("activo"); v != "" {
		activo, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "invalid activo")
			return
		}
		filters.Activo = &activo
	}
	page, err := h.Indicios.List(r.Context(), id, filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Create handles POST /expedientes/{id}/indicios.
func (h *IndicioHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var dto models.CreateIndicioDTO
	if !decode(w, r, &dto) {
		return
	}
	ind, err := h.Indicios.Create(r.Context(), id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ind)
}

// Update handles PUT /indicios/{id}.
func (h *IndicioHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var dto models.UpdateIndicioDTO
	if !decode(w, r, &dto) {
		return
	}
	ind, err := h.Indicios.Update(r.Context(), id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// SetActivo handles PATCH /indicios/{id}/activo.
func (h *IndicioHandler) SetActivo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var dto models.ToggleActivoDTO
	if !decode(w, r, &dto) {
		return
	}
	ind, err := h.Indicios.SetActivo(r.Context(), id, dto.Activo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

type paging struct {
	page, size *int
}

// pagingFilters reads page/pagina and pageSize/tamanoPagina.
func pagingFilters(w http.ResponseWriter, r *http.Request) (paging, bool) {
	var p paging
	q := r.URL.Query()
	read := func(keys ...string) (*int, bool) {
		for _, k := range keys {
			if v := q.Get(k); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n <= 0 {
					badRequest(w, "invalid "+k)
					return nil, false
				}
				return &n, true
			}
		}
		return nil, true
	}
	var ok bool
	if p.page, ok = read("pagina", "page"); !ok {
		return p, false
	}
	if p.size, ok = read("tamanoPagina", "pageSize"); !ok {
		return p, false
	}
	return p, true
}

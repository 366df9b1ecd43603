package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/expedientes/internal/models"
)

// UsuarioService defines the user administration operations used by the
// console.
type UsuarioService interface {
	List(ctx context.Context, f models.UsuarioFilters) (models.Page[models.Usuario], error)
	Get(ctx context.Context, id int64) (models.Usuario, error)
	Create(ctx context.Context, dto models.CreateUsuarioDTO) (models.Usuario, error)
	Update(ctx context.Context, id int64, dto models.UpdateUsuarioDTO) (models.Usuario, error)
	ChangePassword(ctx context.Context, id int64, newPassword string) (models.Usuario, error)
	SetActivo(ctx context.Context, id int64, activo bool) (models.Usuario, error)
	Delete(ctx context.Context, id int64) error
}

// UsuarioHandler serves the user administration view.
type UsuarioHandler struct {
	Usuarios UsuarioService
}

func (h *UsuarioHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := pagingFilters(w, r)
	if !ok {
		return
	}
	f := models.UsuarioFilters{Page: p.page, PageSize: p.size}
	q := r.URL.Query()
	if v := q.Get("q"); v != "" {
		f.Q = &v
	}
	if v := q.Get("rol"); v != "" {
		role, valid := models.ParseRole(v)
		if !valid {
			badRequest(w, "invalid rol")
			return
		}
		f.Role = &role
	}
	if v := q.Get("activo"); v != "" {
		activo := v == "true"
		f.Activo = &activo
	}
	page, err := h.Usuarios.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *UsuarioHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	u, err := h.Usuarios.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsuarioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto models.CreateUsuarioDTO
	if !decode(w, r, &dto) {
		return
	}
	u, err := h.Usuarios.Create(r.Context(), dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UsuarioHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var dto models.UpdateUsuarioDTO
	if !decode(w, r, &dto) {
		return
	}
	u, err := h.Usuarios.Update(r.Context(), id, dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ChangePassword handles PATCH /usuarios/{id}/password. Either field name
// is accepted from the caller.
func (h *UsuarioHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var dto models.ChangePasswordDTO
	if !decode(w, r, &dto) {
		return
	}
	pw := dto.NewPassword
	if pw == "" {
		pw = dto.Password
	}
	u, err := h.Usuarios.ChangePassword(r.Context(), id, pw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsuarioHandler) SetActivo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var dto models.ToggleActivoDTO
	if !decode(w, r, &dto) {
		return
	}
	u, err := h.Usuarios.SetActivo(r.Context(), id, dto.Activo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsuarioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Usuarios.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

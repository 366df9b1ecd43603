package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/client/query"
	"github.com/atinyakov/expedientes/internal/models"
)

const minPassword = 6

// UsuarioService is the client of /usuarios. The service only grants these
// endpoints to coordinators.
type UsuarioService struct {
	api API
}

func NewUsuarioService(api API) *UsuarioService {
	return &UsuarioService{api: api}
}

func (s *UsuarioService) List(ctx context.Context, f models.UsuarioFilters) (models.Page[models.Usuario], error) {
	var page models.Page[models.Usuario]
	err := s.api.Get(ctx, "/usuarios", query.Of(query.Usuarios, f), &page)
	return page, err
}

func (s *UsuarioService) Get(ctx context.Context, id int64) (models.Usuario, error) {
	var u models.Usuario
	if err := validID("id", id); err != nil {
		return u, err
	}
	err := s.api.Get(ctx, fmt.Sprintf("/usuarios/%d", id), nil, &u)
	return u, err
}

func (s *UsuarioService) Create(ctx context.Context, dto models.CreateUsuarioDTO) (models.Usuario, error) {
	var u models.Usuario
	dto.Username = strings.TrimSpace(dto.Username)
	if err := between("username", "El nombre de usuario", dto.Username, 3, 30); err != nil {
		return u, err
	}
	if err := validatePassword("password", dto.Password); err != nil {
		return u, err
	}
	if !dto.Role.Valid() {
		return u, gateway.Invalid("rol", "El rol debe ser 'tecnico' o 'coordinador'")
	}
	err := s.api.Post(ctx, "/usuarios", dto, &u)
	return u, err
}

func (s *UsuarioService) Update(ctx context.Context, id int64, dto models.UpdateUsuarioDTO) (models.Usuario, error) {
	var u models.Usuario
	if err := validID("id", id); err != nil {
		return u, err
	}
	if dto.Username == nil && dto.Role == nil {
		return u, gateway.Invalid("", "No hay cambios para guardar")
	}
	if dto.Username != nil {
		name := strings.TrimSpace(*dto.Username)
		if err := between("username", "El nombre de usuario", name, 3, 30); err != nil {
			return u, err
		}
		dto.Username = &name
	}
	if dto.Role != nil && !dto.Role.Valid() {
		return u, gateway.Invalid("rol", "El rol debe ser 'tecnico' o 'coordinador'")
	}
	err := s.api.Put(ctx, fmt.Sprintf("/usuarios/%d", id), dto, &u)
	return u, err
}

// ChangePassword sets a new password for any user. Both accepted field
// names are sent.
func (s *UsuarioService) ChangePassword(ctx context.Context, id int64, newPassword string) (models.Usuario, error) {
	var u models.Usuario
	if err := validID("id", id); err != nil {
		return u, err
	}
	if err := validatePassword("newPassword", newPassword); err != nil {
		return u, err
	}
	dto := models.ChangePasswordDTO{NewPassword: newPassword, Password: newPassword}
	err := s.api.Patch(ctx, fmt.Sprintf("/usuarios/%d/password", id), dto, &u)
	return u, err
}

// SetActivo enables or disables an account. Disabled users cannot log in.
func (s *UsuarioService) SetActivo(ctx context.Context, id int64, activo bool) (models.Usuario, error) {
	var u models.Usuario
	if err := validID("id", id); err != nil {
		return u, err
	}
	err := s.api.Patch(ctx, fmt.Sprintf("/usuarios/%d/activo", id), models.ToggleActivoDTO{Activo: activo}, &u)
	return u, err
}

func (s *UsuarioService) Delete(ctx context.Context, id int64) error {
	if err := validID("id", id); err != nil {
		return err
	}
	return s.api.Delete(ctx, fmt.Sprintf("/usuarios/%d", id), nil)
}

func validatePassword(field, password string) error {
	if strings.TrimSpace(password) == "" {
		return gateway.Invalid(field, "La contraseña es obligatoria")
	}
	if len([]rune(password)) < minPassword {
		return gateway.Invalid(field, fmt.Sprintf("La contraseña debe tener al menos %d caracteres", minPassword))
	}
	return nil
}

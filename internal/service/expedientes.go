package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/client/query"
	"github.com/atinyakov/expedientes/internal/models"
)

// ExpedienteService is the client of /expedientes.
type ExpedienteService struct {
	api API
}

func NewExpedienteService(api API) *ExpedienteService {
	return &ExpedienteService{api: api}
}

// List returns one page of expedientes.
func (s *ExpedienteService) List(ctx context.Context, f models.ExpedienteFilters) (models.Page[models.Expediente], error) {
	var page models.Page[models.Expediente]
	err := s.api.Get(ctx, "/expedientes", query.Of(query.Expedientes, f), &page)
	return page, err
}

// Search is List for loosely typed filters such as shell arguments.
// Unknown keys are dropped by the mapper; estado is accepted in any casing.
func (s *ExpedienteService) Search(ctx context.Context, filters map[string]any) (models.Page[models.Expediente], error) {
	params := query.Map(query.Expedientes, filters)
	if v := params.Get("estado"); v != "" {
		estado, valid := models.ParseEstado(v)
		if !valid {
			return models.Page[models.Expediente]{}, gateway.Invalid("estado", fmt.Sprintf("Estado desconocido: %q", v))
		}
		params.Set("estado", string(estado))
	}
	var page models.Page[models.Expediente]
	err := s.api.Get(ctx, "/expedientes", params, &page)
	return page, err
}

func (s *ExpedienteService) Get(ctx context.Context, id int64) (models.Expediente, error) {
	var exp models.Expediente
	if err := validID("id", id); err != nil {
		return exp, err
	}
	err := s.api.Get(ctx, fmt.Sprintf("/expedientes/%d", id), nil, &exp)
	return exp, err
}

func (s *ExpedienteService) Create(ctx context.Context, dto models.CreateExpedienteDTO) (models.Expediente, error) {
	var exp models.Expediente
	if err := validateExpediente(&dto.Codigo, &dto.Titulo, &dto.Descripcion); err != nil {
		return exp, err
	}
	dto.Codigo = strings.TrimSpace(dto.Codigo)
	dto.Titulo = strings.TrimSpace(dto.Titulo)
	dto.Descripcion = strings.TrimSpace(dto.Descripcion)
	err := s.api.Post(ctx, "/expedientes", dto, &exp)
	return exp, err
}

// Update applies a partial update. Only the fields present are validated,
// and at least one must be.
func (s *ExpedienteService) Update(ctx context.Context, id int64, dto models.UpdateExpedienteDTO) (models.Expediente, error) {
	var exp models.Expediente
	if err := validID("id", id); err != nil {
		return exp, err
	}
	if dto.Codigo == nil && dto.Titulo == nil && dto.Descripcion == nil {
		return exp, gateway.Invalid("", "No hay cambios para guardar")
	}
	if err := validateExpediente(dto.Codigo, dto.Titulo, dto.Descripcion); err != nil {
		return exp, err
	}
	dto.Codigo = trimmed(dto.Codigo)
	dto.Titulo = trimmed(dto.Titulo)
	dto.Descripcion = trimmed(dto.Descripcion)
	err := s.api.Put(ctx, fmt.Sprintf("/expedientes/%d", id), dto, &exp)
	return exp, err
}

// ChangeEstado approves or rejects an expediente. A rejection needs a
// justification. The estado goes out lower case whatever the input casing.
func (s *ExpedienteService) ChangeEstado(ctx context.Context, id int64, estado, justificacion string) (models.Expediente, error) {
	var exp models.Expediente
	if err := validID("id", id); err != nil {
		return exp, err
	}
	target, ok := models.ParseEstado(estado)
	if !ok || !target.Terminal() {
		return exp, gateway.Invalid("estado", "El estado debe ser Aprobado o Rechazado")
	}
	justificacion = strings.TrimSpace(justificacion)
	if target == models.EstadoRechazado && justificacion == "" {
		return exp, gateway.Invalid("justificacion", "La justificación es obligatoria para rechazar")
	}

	dto := models.UpdateEstadoDTO{Estado: target, Justificacion: justificacion}
	err := s.api.Patch(ctx, fmt.Sprintf("/expedientes/%d/estado", id), dto, &exp)
	return exp, err
}

// trimmed returns a trimmed copy of a present field, leaving the caller's
// string alone.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func validateExpediente(codigo, titulo, descripcion *string) error {
	if codigo != nil {
		if err := between("codigo", "El código", *codigo, 3, 30); err != nil {
			return err
		}
	}
	if titulo != nil {
		if err := between("titulo", "El título", *titulo, 3, 100); err != nil {
			return err
		}
	}
	if descripcion != nil {
		if err := between("descripcion", "La descripción", *descripcion, 5, 1000); err != nil {
			return err
		}
	}
	return nil
}

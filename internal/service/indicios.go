package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/client/query"
	"github.com/atinyakov/expedientes/internal/models"
)

// IndicioService is the client of the indicios of an expediente.
type IndicioService struct {
	api API
}

func NewIndicioService(api API) *IndicioService {
	return &IndicioService{api: api}
}

func (s *IndicioService) List(ctx context.Context, expedienteID int64, f models.IndicioFilters) (models.Page[models.Indicio], error) {
	var page models.Page[models.Indicio]
	if err := validID("expedienteId", expedienteID); err != nil {
		return page, err
	}
	path := fmt.Sprintf("/expedientes/%d/indicios", expedienteID)
	err := s.api.Get(ctx, path, query.Of(query.Indicios, f), &page)
	return page, err
}

func (s *IndicioService) Get(ctx context.Context, id int64) (models.Indicio, error) {
	var ind models.Indicio
	if err := validID("id", id); err != nil {
		return ind, err
	}
	err := s.api.Get(ctx, fmt.Sprintf("/indicios/%d", id), nil, &ind)
	return ind, err
}

func (s *IndicioService) Create(ctx context.Context, expedienteID int64, dto models.CreateIndicioDTO) (models.Indicio, error) {
	var ind models.Indicio
	if err := validID("expedienteId", expedienteID); err != nil {
		return ind, err
	}
	if err := validateIndicio(&dto.Descripcion, dto.Peso, dto.Color, dto.Tamano); err != nil {
		return ind, err
	}
	dto.Descripcion = strings.TrimSpace(dto.Descripcion)
	err := s.api.Post(ctx, fmt.Sprintf("/expedientes/%d/indicios", expedienteID), dto, &ind)
	return ind, err
}

func (s *IndicioService) Update(ctx context.Context, id int64, dto models.UpdateIndicioDTO) (models.Indicio, error) {
	var ind models.Indicio
	if err := validID("id", id); err != nil {
		return ind, err
	}
	if dto.Descripcion == nil && dto.Peso == nil && dto.Color == nil && dto.Tamano == nil {
		return ind, gateway.Invalid("", "No hay cambios para guardar")
	}
	if err := validateIndicio(dto.Descripcion, dto.Peso, dto.Color, dto.Tamano); err != nil {
		return ind, err
	}
	err := s.api.Put(ctx, fmt.Sprintf("/indicios/%d", id), dto, &ind)
	return ind, err
}

// SetActivo activates or deactivates an indicio.
func (s *IndicioService) SetActivo(ctx context.Context, id int64, activo bool) (models.Indicio, error) {
	var ind models.Indicio
	if err := validID("id", id); err != nil {
		return ind, err
	}
	err := s.api.Patch(ctx, fmt.Sprintf("/indicios/%d/activo", id), models.ToggleActivoDTO{Activo: activo}, &ind)
	return ind, err
}

func validateIndicio(descripcion *string, peso *float64, color, tamano *string) error {
	if descripcion != nil {
		if err := between("descripcion", "La descripción", *descripcion, 3, 500); err != nil {
			return err
		}
	}
	if peso != nil && (math.IsNaN(*peso) || math.IsInf(*peso, 0)) {
		return gateway.Invalid("peso", "El peso debe ser un número válido")
	}
	if peso != nil && *peso < 0 {
		return gateway.Invalid("peso", "El peso no puede ser negativo")
	}
	if color != nil {
		if err := atMost("color", "El color", *color, 50); err != nil {
			return err
		}
	}
	if tamano != nil {
		if err := atMost("tamano", "El tamaño", *tamano, 50); err != nil {
			return err
		}
	}
	return nil
}

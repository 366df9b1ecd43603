package service

import (
	"context"

	"github.com/atinyakov/expedientes/internal/models"
)

// Summary is what the dashboard shows about the current page of
// expedientes.
type Summary struct {
	Total      int
	Abiertos   int
	Aprobados  int
	Rechazados int
	// Mine counts the expedientes assigned to the user; only set for
	// technicians.
	Mine   *int
	Recent []models.Expediente
}

const recentCount = 5

// Summarize counts the page by estado.
func Summarize(page models.Page[models.Expediente], user models.User) Summary {
	s := Summary{Total: page.Total}
	mine := 0
	for _, e := range page.Data {
		switch e.Estado {
		case models.EstadoAbierto:
			s.Abiertos++
		case models.EstadoAprobado:
			s.Aprobados++
		case models.EstadoRechazado:
			s.Rechazados++
		}
		if e.TecnicoID == user.ID {
			mine++
		}
	}
	if user.Role == models.RoleTecnico {
		s.Mine = &mine
	}
	n := min(recentCount, len(page.Data))
	s.Recent = page.Data[:n]
	return s
}

// Dashboard loads the first page of expedientes and summarizes it.
func (s *ExpedienteService) Dashboard(ctx context.Context, user models.User) (Summary, error) {
	page, err := s.List(ctx, models.ExpedienteFilters{})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(page, user), nil
}

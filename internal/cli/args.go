package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/models"
)

// args is a key=value map as produced by query.Parse.
type args map[string]any

func (a args) str(key string) *string {
	v, ok := a[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func (a args) positive(key string) (*int, error) {
	v := a.str(key)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil || n <= 0 {
		return nil, gateway.Invalid(key, fmt.Sprintf("%s debe ser un entero positivo", key))
	}
	return &n, nil
}

func (a args) flag(key string) (*bool, error) {
	v := a.str(key)
	if v == nil {
		return nil, nil
	}
	b, err := parseBool(key, *v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func parseBool(field, raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "on", "si", "sí", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, gateway.Invalid(field, fmt.Sprintf("%s debe ser on u off", field))
}

func (a args) paging() (page, size *int, err error) {
	if page, err = a.positive("pagina"); err != nil {
		return nil, nil, err
	}
	if page == nil {
		if page, err = a.positive("page"); err != nil {
			return nil, nil, err
		}
	}
	if size, err = a.positive("tamanoPagina"); err != nil {
		return nil, nil, err
	}
	if size == nil {
		if size, err = a.positive("pageSize"); err != nil {
			return nil, nil, err
		}
	}
	return page, size, nil
}

func expedienteFilters(m map[string]any) (models.ExpedienteFilters, error) {
	a := args(m)
	var f models.ExpedienteFilters
	var err error
	if f.Pagina, f.TamanoPagina, err = a.paging(); err != nil {
		return f, err
	}
	f.Q = a.str("q")
	f.FechaInicio = a.str("fechaInicio")
	f.FechaFin = a.str("fechaFin")
	if v := a.str("estado"); v != nil {
		e, ok := models.ParseEstado(*v)
		if !ok {
			return f, gateway.Invalid("estado", fmt.Sprintf("Estado desconocido: %q", *v))
		}
		f.Estado = &e
	}
	if v := a.str("tecnicoId"); v != nil {
		id, err := parseID(*v)
		if err != nil {
			return f, gateway.Invalid("tecnicoId", fmt.Sprintf("tecnicoId inválido: %q", *v))
		}
		f.TecnicoID = &id
	}
	return f, nil
}

func indicioFilters(m map[string]any) (models.IndicioFilters, error) {
	a := args(m)
	var f models.IndicioFilters
	var err error
	if f.Pagina, f.TamanoPagina, err = a.paging(); err != nil {
		return f, err
	}
	f.Activo, err = a.flag("activo")
	return f, err
}

func usuarioFilters(m map[string]any) (models.UsuarioFilters, error) {
	a := args(m)
	var f models.UsuarioFilters
	var err error
	if f.Pagina, f.TamanoPagina, err = a.paging(); err != nil {
		return f, err
	}
	f.Q = a.str("q")
	if v := a.str("rol"); v != nil {
		r, ok := models.ParseRole(*v)
		if !ok {
			return f, gateway.Invalid("rol", "El rol debe ser 'tecnico' o 'coordinador'")
		}
		f.Role = &r
	}
	f.Activo, err = a.flag("activo")
	return f, err
}

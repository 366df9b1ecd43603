package models

// ExpedienteFilters filters GET /expedientes. Nil fields are undefined and
// never reach the wire. Page/Pagina and PageSize/TamanoPagina are the two
// naming conventions used by callers; the query mapper reconciles them.
type ExpedienteFilters struct {
	Page         *int
	Pagina       *int
	PageSize     *int
	TamanoPagina *int
	Q            *string
	Estado       *Estado
	TecnicoID    *int64
	FechaInicio  *string
	FechaFin     *string
}

// Fields returns the defined filter fields keyed by their caller-side name.
func (f ExpedienteFilters) Fields() map[string]any {
	m := paging(f.Page, f.Pagina, f.PageSize, f.TamanoPagina)
	if f.Q != nil {
		m["q"] = *f.Q
	}
	if f.Estado != nil {
		m["estado"] = *f.Estado
	}
	if f.TecnicoID != nil {
		m["tecnicoId"] = *f.TecnicoID
	}
	if f.FechaInicio != nil {
		m["fechaInicio"] = *f.FechaInicio
	}
	if f.FechaFin != nil {
		m["fechaFin"] = *f.FechaFin
	}
	return m
}

// IndicioFilters filters GET /expedientes/:id/indicios.
type IndicioFilters struct {
	Page         *int
	Pagina       *int
	PageSize     *int
	TamanoPagina *int
	Activo       *bool
}

func (f IndicioFilters) Fields() map[string]any {
	m := paging(f.Page, f.Pagina, f.PageSize, f.TamanoPagina)
	if f.Activo != nil {
		m["activo"] = *f.Activo
	}
	return m
}

// UsuarioFilters filters GET /usuarios.
type UsuarioFilters struct {
	Page         *int
	Pagina       *int
	PageSize     *int
	TamanoPagina *int
	Q            *string
	Role         *Role
	Activo       *bool
}

func (f UsuarioFilters) Fields() map[string]any {
	m := paging(f.Page, f.Pagina, f.PageSize, f.TamanoPagina)
	if f.Q != nil {
		m["q"] = *f.Q
	}
	if f.Role != nil {
		m["rol"] = *f.Role
	}
	if f.Activo != nil {
		m["activo"] = *f.Activo
	}
	return m
}

func paging(page, pagina, pageSize, tamano *int) map[string]any {
	m := make(map[string]any)
	if page != nil {
		m["page"] = *page
	}
	if pagina != nil {
		m["pagina"] = *pagina
	}
	if pageSize != nil {
		m["pageSize"] = *pageSize
	}
	if tamano != nil {
		m["tamanoPagina"] = *tamano
	}
	return m
}

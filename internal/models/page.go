package models

import "encoding/json"

// Page is one page of a paginated list. The service has used both
// {pagina, tamanoPagina} and {page, pageSize}; Page accepts either and
// keeps a single internal representation.
type Page[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// UnmarshalJSON decodes either list convention.
func (p *Page[T]) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data         []T  `json:"data"`
		Page         *int `json:"page"`
		Pagina       *int `json:"pagina"`
		PageSize     *int `json:"pageSize"`
		TamanoPagina *int `json:"tamanoPagina"`
		Total        int  `json:"total"`
		TotalPages   *int `json:"totalPages"`
		TotalPaginas *int `json:"totalPaginas"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Data = raw.Data
	if p.Data == nil {
		p.Data = []T{}
	}
	p.Total = raw.Total
	p.Page = firstInt(raw.Pagina, raw.Page)
	p.PageSize = firstInt(raw.TamanoPagina, raw.PageSize)
	switch {
	case raw.TotalPaginas != nil:
		p.TotalPages = *raw.TotalPaginas
	case raw.TotalPages != nil:
		p.TotalPages = *raw.TotalPages
	case p.PageSize > 0:
		p.TotalPages = (p.Total + p.PageSize - 1) / p.PageSize
	}
	return nil
}

func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

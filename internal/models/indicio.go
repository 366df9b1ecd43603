package models

import "time"

// Indicio is an evidence item attached to an expediente.
type Indicio struct {
	ID           int64     `json:"id"`
	Descripcion  string    `json:"descripcion"`
	Peso         *float64  `json:"peso,omitempty"`
	Color        *string   `json:"color,omitempty"`
	Tamano       *string   `json:"tamano,omitempty"`
	Activo       bool      `json:"activo"`
	ExpedienteID int64     `json:"expedienteId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateIndicioDTO is the body of POST /expedientes/:id/indicios.
type CreateIndicioDTO struct {
	Descripcion string   `json:"descripcion"`
	Peso        *float64 `json:"peso,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Tamano      *string  `json:"tamano,omitempty"`
}

// UpdateIndicioDTO is a partial update of an indicio.
type UpdateIndicioDTO struct {
	Descripcion *string  `json:"descripcion,omitempty"`
	Peso        *float64 `json:"peso,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Tamano      *string  `json:"tamano,omitempty"`
}

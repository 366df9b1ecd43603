package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Estado is the lifecycle status of an expediente. The canonical internal
// form is lower case, which is also what the service expects on the wire.
type Estado string

const (
	EstadoAbierto   Estado = "abierto"
	EstadoAprobado  Estado = "aprobado"
	EstadoRechazado Estado = "rechazado"
)

// ParseEstado accepts any casing ("Aprobado", "APROBADO", "aprobado").
func ParseEstado(s string) (Estado, bool) {
	e := Estado(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case EstadoAbierto, EstadoAprobado, EstadoRechazado:
		return e, true
	}
	return e, false
}

// Terminal reports whether no further transition is possible from e.
func (e Estado) Terminal() bool {
	return e == EstadoAprobado || e == EstadoRechazado
}

// Display returns the capitalized form shown to users.
func (e Estado) Display() string {
	if e == "" {
		return ""
	}
	return strings.ToUpper(string(e[:1])) + string(e[1:])
}

// UnmarshalJSON normalizes whatever casing the service sends.
func (e *Estado) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*e, _ = ParseEstado(s)
	return nil
}

// TecnicoRef is the denormalized technician snapshot embedded in a record.
type TecnicoRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Expediente is a case file tracked by the system.
type Expediente struct {
	ID                  int64       `json:"id"`
	Codigo              string      `json:"codigo"`
	Titulo              string      `json:"titulo"`
	Descripcion         string      `json:"descripcion"`
	Estado              Estado      `json:"estado"`
	TecnicoID           int64       `json:"tecnicoId"`
	Tecnico             *TecnicoRef `json:"tecnico,omitempty"`
	JustificacionEstado *string     `json:"justificacionEstado,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// CreateExpedienteDTO is the body of POST /expedientes.
type CreateExpedienteDTO struct {
	Codigo      string `json:"codigo"`
	Titulo      string `json:"titulo"`
	Descripcion string `json:"descripcion"`
}

// UpdateExpedienteDTO is a partial update; nil fields are left untouched.
type UpdateExpedienteDTO struct {
	Codigo      *string `json:"codigo,omitempty"`
	Titulo      *string `json:"titulo,omitempty"`
	Descripcion *string `json:"descripcion,omitempty"`
}

// UpdateEstadoDTO is the body of PATCH /expedientes/:id/estado.
type UpdateEstadoDTO struct {
	Estado        Estado `json:"estado"`
	Justificacion string `json:"justificacion,omitempty"`
}

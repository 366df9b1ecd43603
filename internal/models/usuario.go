package models

import "time"

// Usuario is a user account as seen by the administration endpoints.
type Usuario struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Role      Role       `json:"rol"`
	Activo    bool       `json:"activo"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// CreateUsuarioDTO is the body of POST /usuarios.
type CreateUsuarioDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"rol"`
}

// UpdateUsuarioDTO is a partial update of a user account.
type UpdateUsuarioDTO struct {
	Username *string `json:"username,omitempty"`
	Role     *Role   `json:"rol,omitempty"`
}

// ChangePasswordDTO is the body of PATCH /usuarios/:id/password. The
// service has accepted both field names over time, so both are sent.
type ChangePasswordDTO struct {
	NewPassword string `json:"newPassword"`
	Password    string `json:"password"`
}

// ToggleActivoDTO is the body of the activo toggles for users and indicios.
type ToggleActivoDTO struct {
	Activo bool `json:"activo"`
}

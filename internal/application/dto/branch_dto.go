package dto

// CreateBranchRequest cuerpo de POST /sucursales.
type CreateBranchRequest struct {
	Nombre                     string `json:"nombre"`
	Direccion                  string `json:"direccion"`
	PermitirInventarioNegativo bool   `json:"permitirInventarioNegativo"`
	CorreoNotificaciones       string `json:"correoNotificaciones"`
}

// UpdateBranchRequest cuerpo de PUT /sucursales/:id.
type UpdateBranchRequest struct {
	Nombre                     string  `json:"nombre"`
	Direccion                  string  `json:"direccion"`
	PermitirInventarioNegativo *bool   `json:"permitirInventarioNegativo"`
	CorreoNotificaciones       *string `json:"correoNotificaciones"`
}

// BranchResponse sucursal en respuestas.
type BranchResponse struct {
	ID                         string `json:"id"`
	Nombre                     string `json:"nombre"`
	Direccion                  string `json:"direccion"`
	PermitirInventarioNegativo bool   `json:"permitirInventarioNegativo"`
	CorreoNotificaciones       string `json:"correoNotificaciones,omitempty"`
}

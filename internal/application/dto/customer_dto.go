package dto

// CreateCustomerRequest cuerpo de POST /clientes.
type CreateCustomerRequest struct {
	Nombre   string `json:"nombre"`
	RFC      string `json:"rfc"`
	Correo   string `json:"correo"`
	Telefono string `json:"telefono"`
}

// UpdateCustomerRequest cuerpo de PUT /clientes/:id.
type UpdateCustomerRequest struct {
	Nombre   string `json:"nombre"`
	RFC      string `json:"rfc"`
	Correo   string `json:"correo"`
	Telefono string `json:"telefono"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID         string `json:"id"`
	SucursalID string `json:"sucursalId"`
	Nombre     string `json:"nombre"`
	RFC        string `json:"rfc,omitempty"`
	Correo     string `json:"correo,omitempty"`
	Telefono   string `json:"telefono,omitempty"`
}

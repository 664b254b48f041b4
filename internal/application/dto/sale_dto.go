package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea de venta recibida en la API (nombres del POS).
type SaleLineRequest struct {
	IDProducto string          `json:"id_producto"`
	Cantidad   decimal.Decimal `json:"cantidad"`
	Precio     decimal.Decimal `json:"precio"`
	Descuento  decimal.Decimal `json:"descuento"` // porcentaje 0..100
}

// CreateSaleRequest cuerpo de POST /venta.
type CreateSaleRequest struct {
	SucursalID       string            `json:"sucursalId"`
	IDCliente        string            `json:"id_cliente"`
	Estado           string            `json:"estado"` // COTIZACION | CONTADO | CREDITO | TARJETA
	DescuentoGeneral decimal.Decimal   `json:"descuentoGeneral"`
	Anticipo         decimal.Decimal   `json:"anticipo"` // pago inicial en CREDITO
	Detalles         []SaleLineRequest `json:"detalles"`
}

// DetallesPayload acepta las dos formas históricas del campo detalles en
// PUT /venta/:id: un arreglo plano de líneas, o el objeto
// {"deleteMany": {...}, "create": [...]} del cliente anterior. En ambos casos
// la semántica es reemplazo completo (delete-then-recreate).
type DetallesPayload struct {
	Lines   []SaleLineRequest
	Present bool
}

// UnmarshalJSON decodifica arreglo u objeto {create: [...]}.
func (d *DetallesPayload) UnmarshalJSON(data []byte) error {
	d.Present = true
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &d.Lines)
	}
	var wrapper struct {
		Create []SaleLineRequest `json:"create"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	d.Lines = wrapper.Create
	return nil
}

// UpdateSaleRequest cuerpo de PUT /venta/:id. Campos omitidos conservan el
// valor actual; Detalles presente reemplaza el conjunto de líneas.
type UpdateSaleRequest struct {
	Estado           string           `json:"estado"`
	IDCliente        *string          `json:"id_cliente"`
	DescuentoGeneral *decimal.Decimal `json:"descuentoGeneral"`
	Detalles         *DetallesPayload `json:"detalles"`
}

// SaleLineResponse línea de venta en respuestas.
type SaleLineResponse struct {
	ID         string          `json:"id"`
	IDProducto string          `json:"id_producto"`
	Cantidad   decimal.Decimal `json:"cantidad"`
	Precio     decimal.Decimal `json:"precio"`
	Descuento  decimal.Decimal `json:"descuento"`
	Importe    decimal.Decimal `json:"importe"`
	Activo     bool            `json:"activo"`
}

// SaleResponse venta completa en respuestas.
type SaleResponse struct {
	ID                  string             `json:"id"`
	Folio               int64              `json:"folio"`
	SucursalID          string             `json:"sucursalId"`
	IDCliente           string             `json:"id_cliente,omitempty"`
	Estado              string             `json:"estado"`
	Fecha               string             `json:"fecha"`
	Subtotal            decimal.Decimal    `json:"subtotal"`
	Impuesto            decimal.Decimal    `json:"impuesto"`
	Total               decimal.Decimal    `json:"total"`
	DescuentoGeneral    decimal.Decimal    `json:"descuentoGeneral"`
	DescuentoIndividual decimal.Decimal    `json:"descuentoIndividual"`
	MontoPagado         decimal.Decimal    `json:"montoPagado"`
	SaldoPendiente      decimal.Decimal    `json:"saldoPendiente"`
	Activa              bool               `json:"activa"`
	FechaDevolucion     string             `json:"fechaDevolucion,omitempty"`
	Detalles            []SaleLineResponse `json:"detalles"`
}

// AbonoRequest cuerpo de POST /venta/abono.
type AbonoRequest struct {
	VentaID string          `json:"ventaId"`
	Monto   decimal.Decimal `json:"monto"`
}

// AbonoResponse resultado de un abono a una venta.
type AbonoResponse struct {
	Aplicado       decimal.Decimal `json:"aplicado"`
	Restante       decimal.Decimal `json:"restante"`
	SaldoPendiente decimal.Decimal `json:"saldoPendiente"`
}

// AbonoGeneralRequest cuerpo de POST /venta/abono-general.
type AbonoGeneralRequest struct {
	ClienteID  string          `json:"clienteId"`
	SucursalID string          `json:"sucursalId"`
	Monto      decimal.Decimal `json:"monto"`
}

// AbonoAplicacion porción del abono general absorbida por una venta.
type AbonoAplicacion struct {
	VentaID  string          `json:"ventaId"`
	Folio    int64           `json:"folio"`
	Aplicado decimal.Decimal `json:"aplicado"`
}

// AbonoGeneralResponse resultado de un abono general.
type AbonoGeneralResponse struct {
	Aplicado     decimal.Decimal   `json:"aplicado"`
	Restante     decimal.Decimal   `json:"restante"`
	Aplicaciones []AbonoAplicacion `json:"aplicaciones"`
}

// FolioResponse respuesta de GET /venta/ultimoFolio.
type FolioResponse struct {
	Consecutivo int64 `json:"consecutivo"`
}

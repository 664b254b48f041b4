package dto

import "github.com/shopspring/decimal"

// BomEntryRequest insumo de la receta de un producto.
type BomEntryRequest struct {
	IDProductoComponente string          `json:"id_producto_componente"`
	CantidadPorUnidad    decimal.Decimal `json:"cantidad_por_unidad"`
}

// CreateProductRequest cuerpo de POST /productos. SucursalID vacío toma la
// sucursal del token.
type CreateProductRequest struct {
	SucursalID   string            `json:"sucursalId"`
	SKU          string            `json:"sku"`
	Nombre       string            `json:"nombre"`
	Precio       decimal.Decimal   `json:"precio"`
	Costo        decimal.Decimal   `json:"costo"`
	TasaImpuesto decimal.Decimal   `json:"tasaImpuesto"`
	Stock        decimal.Decimal   `json:"stock"`
	StockMin     decimal.Decimal   `json:"stockMin"`
	EsServicio   bool              `json:"esServicio"`
	Insumos      []BomEntryRequest `json:"insumos"`
}

// UpdateProductRequest cuerpo de PUT /productos/:id. El stock no se edita aquí:
// solo lo mutan ventas y devoluciones.
type UpdateProductRequest struct {
	Nombre       string            `json:"nombre"`
	Precio       decimal.Decimal   `json:"precio"`
	Costo        decimal.Decimal   `json:"costo"`
	TasaImpuesto decimal.Decimal   `json:"tasaImpuesto"`
	StockMin     decimal.Decimal   `json:"stockMin"`
	Insumos      []BomEntryRequest `json:"insumos"` // nil = conservar receta
}

// BomEntryResponse insumo en respuestas.
type BomEntryResponse struct {
	ID                   string          `json:"id"`
	IDProductoComponente string          `json:"id_producto_componente"`
	CantidadPorUnidad    decimal.Decimal `json:"cantidad_por_unidad"`
}

// ProductResponse producto en respuestas.
type ProductResponse struct {
	ID           string             `json:"id"`
	SucursalID   string             `json:"sucursalId"`
	SKU          string             `json:"sku"`
	Nombre       string             `json:"nombre"`
	Precio       decimal.Decimal    `json:"precio"`
	Costo        decimal.Decimal    `json:"costo"`
	TasaImpuesto decimal.Decimal    `json:"tasaImpuesto"`
	Stock        decimal.Decimal    `json:"stock"`
	StockMin     decimal.Decimal    `json:"stockMin"`
	EsServicio   bool               `json:"esServicio"`
	Insumos      []BomEntryResponse `json:"insumos,omitempty"`
}

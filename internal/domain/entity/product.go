package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o servicio del catálogo de una sucursal.
// Stock se maneja en unidades; StockMin es el umbral de alerta de stock bajo.
// IsService marca productos de servicio: nunca consumen ni restauran inventario.
// Insumos define la receta (BOM) del producto: si no está vacía, vender el
// producto consume sus componentes y no el producto mismo (ítem ensamblado/virtual).
type Product struct {
	ID         string
	SucursalID string
	SKU        string // código único por sucursal
	Name       string
	Price      decimal.Decimal // precio de venta
	Cost       decimal.Decimal // costo actual (snapshot al vender)
	TaxRate    decimal.Decimal // IVA: 0, 0.08, 0.16
	Stock      decimal.Decimal
	StockMin   decimal.Decimal
	IsService  bool
	Insumos    []BomEntry // receta; cascada con el producto
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasBOM indica si el producto es un ítem ensamblado (tiene receta de insumos).
func (p *Product) HasBOM() bool {
	return len(p.Insumos) > 0
}

// BomEntry representa un insumo de la receta de un producto:
// el componente consumido y su multiplicador por unidad vendida.
// Solo lectura durante una venta.
type BomEntry struct {
	ID                 string
	ProductID          string // producto padre (ensamblado)
	ComponentProductID string
	QuantityPerUnit    decimal.Decimal
}

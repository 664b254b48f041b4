package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus es el estado de una venta. Una COTIZACION no consume inventario;
// al convertirse a un estado final (CONTADO, CREDITO, TARJETA) el consumo de
// stock se dispara una única vez. Una venta final nunca vuelve a COTIZACION.
type SaleStatus string

const (
	StatusCotizacion SaleStatus = "COTIZACION"
	StatusContado    SaleStatus = "CONTADO"
	StatusCredito    SaleStatus = "CREDITO"
	StatusTarjeta    SaleStatus = "TARJETA"
)

// ParseSaleStatus normaliza y valida el estado recibido en la API.
func ParseSaleStatus(s string) (SaleStatus, error) {
	status := SaleStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusCotizacion, StatusContado, StatusCredito, StatusTarjeta:
		return status, nil
	}
	return "", fmt.Errorf("estado de venta desconocido: %q", s)
}

// IsFinal indica si el estado es de venta cerrada (consume inventario).
func (s SaleStatus) IsFinal() bool {
	return s == StatusContado || s == StatusCredito || s == StatusTarjeta
}

// CanTransitionTo define la tabla de transiciones:
// COTIZACION -> cualquier estado; final -> final (solo metadatos); final -> COTIZACION prohibido.
func (s SaleStatus) CanTransitionTo(to SaleStatus) bool {
	if s == StatusCotizacion {
		return true
	}
	return to != StatusCotizacion
}

// Sale representa una venta (o cotización) con sus líneas de detalle.
// Nunca se elimina físicamente: una devolución la marca Active=false.
type Sale struct {
	ID                 string
	Folio              int64 // consecutivo por sucursal, visible al usuario
	SucursalID         string
	CustomerID         string // vacío = venta de mostrador sin cliente
	UserID             string
	Status             SaleStatus
	Date               time.Time
	Subtotal           decimal.Decimal
	Tax                decimal.Decimal
	Total              decimal.Decimal
	IndividualDiscount decimal.Decimal // suma de descuentos por línea
	GeneralDiscount    decimal.Decimal // descuento global sobre el subtotal
	AmountPaid         decimal.Decimal
	PendingBalance     decimal.Decimal // solo significativo en CREDITO
	Active             bool
	ReturnDate         *time.Time
	ReturnedBy         string
	Lines              []SaleLine
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Pending devuelve el saldo pendiente real: max(total - pagado, 0).
func (s *Sale) Pending() decimal.Decimal {
	pending := s.Total.Sub(s.AmountPaid)
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}

// SaleLine representa una línea de venta. CostAtSale es el costo del producto
// congelado al momento de finalizar la venta, no el costo vivo del catálogo.
type SaleLine struct {
	ID              string
	SaleID          string
	ProductID       string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal // 0..100
	CostAtSale      decimal.Decimal
	LineTotal       decimal.Decimal
	Active          bool
}

// Total calcula el importe de la línea: cantidad * precio * (1 - descuento/100).
func (l *SaleLine) Total() decimal.Decimal {
	gross := l.Quantity.Mul(l.UnitPrice)
	if l.DiscountPercent.IsZero() {
		return gross
	}
	factor := decimal.NewFromInt(1).Sub(l.DiscountPercent.Div(decimal.NewFromInt(100)))
	return gross.Mul(factor)
}

// DiscountAmount devuelve el importe descontado de la línea.
func (l *SaleLine) DiscountAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Sub(l.Total())
}

package entity

import "time"

// Customer representa un cliente de la sucursal (ventas a crédito y abonos).
type Customer struct {
	ID         string
	SucursalID string
	Name       string
	TaxID      string // RFC o cédula
	Email      string
	Phone      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
// Las operaciones de mutación se usan dentro de transacciones (TxRunner).
type SaleRepository interface {
	// Create persiste la cabecera y todas sus líneas.
	Create(sale *entity.Sale) error
	GetByID(id string) (*entity.Sale, error)
	// GetForUpdate obtiene la venta con sus líneas bloqueando la cabecera (SELECT FOR UPDATE).
	GetForUpdate(id string) (*entity.Sale, error)
	// UpdateHeader actualiza los campos escalares de la cabecera (estado, totales, cliente).
	UpdateHeader(sale *entity.Sale) error
	// ReplaceLines elimina las líneas actuales y persiste el nuevo conjunto
	// (semántica delete-then-recreate de la edición de ventas).
	ReplaceLines(saleID string, lines []entity.SaleLine) error
	// MarkReturned marca la venta como devuelta: active=false, fecha y usuario de devolución.
	MarkReturned(saleID, returnedBy string, at time.Time) error
	// UpdatePayment actualiza monto pagado y saldo pendiente tras un abono.
	UpdatePayment(saleID string, amountPaid, pendingBalance decimal.Decimal) error
	// ListOpenCreditForUpdate lista las ventas CREDITO activas de un cliente en una
	// sucursal, ordenadas por fecha ascendente (FIFO) y bloqueadas FOR UPDATE.
	ListOpenCreditForUpdate(customerID, sucursalID string) ([]*entity.Sale, error)
	ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Sale, error)
	// LastFolio devuelve el último folio asignado en la sucursal (0 si no hay ventas).
	LastFolio(sucursalID string) (int64, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, folio, sucursal_id, cliente_id, usuario_id, estado, fecha,
	subtotal, impuesto, total, descuento_individual, descuento_general,
	monto_pagado, saldo_pendiente, activa, fecha_devolucion, devuelto_por,
	created_at, updated_at`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var customerID, returnedBy *string
	err := row.Scan(
		&s.ID, &s.Folio, &s.SucursalID, &customerID, &s.UserID, &s.Status, &s.Date,
		&s.Subtotal, &s.Tax, &s.Total, &s.IndividualDiscount, &s.GeneralDiscount,
		&s.AmountPaid, &s.PendingBalance, &s.Active, &s.ReturnDate, &returnedBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if customerID != nil {
		s.CustomerID = *customerID
	}
	if returnedBy != nil {
		s.ReturnedBy = *returnedBy
	}
	return &s, nil
}

// Create persiste la cabecera y todas sus líneas en el Querier actual.
func (r *SaleRepo) Create(sale *entity.Sale) error {
	query := `
		INSERT INTO ventas (id, folio, sucursal_id, cliente_id, usuario_id, estado, fecha,
			subtotal, impuesto, total, descuento_individual, descuento_general,
			monto_pagado, saldo_pendiente, activa, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(context.Background(), query,
		sale.ID, sale.Folio, sale.SucursalID, nullIfEmpty(sale.CustomerID), sale.UserID,
		sale.Status, sale.Date, sale.Subtotal, sale.Tax, sale.Total,
		sale.IndividualDiscount, sale.GeneralDiscount, sale.AmountPaid,
		sale.PendingBalance, sale.Active, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		// uq_ventas_sucursal_folio: otro proceso ganó el mismo consecutivo;
		// el caso de uso reintenta la tx con el folio siguiente.
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert venta: %w", err)
	}
	return r.insertLines(sale.ID, sale.Lines)
}

// GetByID obtiene la venta con sus líneas.
func (r *SaleRepo) GetByID(id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM ventas WHERE id = $1`
	return r.getOne(query, id)
}

// GetForUpdate obtiene la venta con sus líneas bloqueando la cabecera.
func (r *SaleRepo) GetForUpdate(id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM ventas WHERE id = $1 FOR UPDATE`
	return r.getOne(query, id)
}

func (r *SaleRepo) getOne(query, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		return nil, fmt.Errorf("get venta: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	if err := r.loadLines(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SaleRepo) loadLines(s *entity.Sale) error {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, venta_id, producto_id, cantidad, precio_unitario, descuento_pct, costo_venta, importe, activa
		FROM venta_detalles WHERE venta_id = $1 ORDER BY id`, s.ID)
	if err != nil {
		return fmt.Errorf("list detalles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice,
			&l.DiscountPercent, &l.CostAtSale, &l.LineTotal, &l.Active); err != nil {
			return fmt.Errorf("scan detalle: %w", err)
		}
		s.Lines = append(s.Lines, l)
	}
	return rows.Err()
}

// UpdateHeader actualiza los campos escalares de la cabecera.
func (r *SaleRepo) UpdateHeader(sale *entity.Sale) error {
	query := `
		UPDATE ventas SET cliente_id = $2, estado = $3, subtotal = $4, impuesto = $5, total = $6,
			descuento_individual = $7, descuento_general = $8, monto_pagado = $9,
			saldo_pendiente = $10, updated_at = $11
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		sale.ID, nullIfEmpty(sale.CustomerID), sale.Status, sale.Subtotal, sale.Tax,
		sale.Total, sale.IndividualDiscount, sale.GeneralDiscount, sale.AmountPaid,
		sale.PendingBalance, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update venta: %w", err)
	}
	return nil
}

// ReplaceLines elimina las líneas actuales y persiste el nuevo conjunto.
func (r *SaleRepo) ReplaceLines(saleID string, lines []entity.SaleLine) error {
	_, err := r.q.Exec(context.Background(),
		`DELETE FROM venta_detalles WHERE venta_id = $1`, saleID)
	if err != nil {
		return fmt.Errorf("delete detalles: %w", err)
	}
	return r.insertLines(saleID, lines)
}

func (r *SaleRepo) insertLines(saleID string, lines []entity.SaleLine) error {
	for _, l := range lines {
		_, err := r.q.Exec(context.Background(), `
			INSERT INTO venta_detalles (id, venta_id, producto_id, cantidad, precio_unitario, descuento_pct, costo_venta, importe, activa)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.ID, saleID, l.ProductID, l.Quantity, l.UnitPrice, l.DiscountPercent,
			l.CostAtSale, l.LineTotal, l.Active,
		)
		if err != nil {
			return fmt.Errorf("insert detalle: %w", err)
		}
	}
	return nil
}

// MarkReturned marca la venta como devuelta (soft delete) y sus líneas como inactivas.
func (r *SaleRepo) MarkReturned(saleID, returnedBy string, at time.Time) error {
	_, err := r.q.Exec(context.Background(), `
		UPDATE ventas SET activa = false, fecha_devolucion = $2, devuelto_por = $3, updated_at = $2
		WHERE id = $1`, saleID, at, returnedBy)
	if err != nil {
		return fmt.Errorf("mark devuelta: %w", err)
	}
	_, err = r.q.Exec(context.Background(),
		`UPDATE venta_detalles SET activa = false WHERE venta_id = $1`, saleID)
	if err != nil {
		return fmt.Errorf("mark detalles devueltos: %w", err)
	}
	return nil
}

// UpdatePayment actualiza monto pagado y saldo pendiente tras un abono.
func (r *SaleRepo) UpdatePayment(saleID string, amountPaid, pendingBalance decimal.Decimal) error {
	_, err := r.q.Exec(context.Background(), `
		UPDATE ventas SET monto_pagado = $2, saldo_pendiente = $3, updated_at = now()
		WHERE id = $1`, saleID, amountPaid, pendingBalance)
	if err != nil {
		return fmt.Errorf("update abono: %w", err)
	}
	return nil
}

// ListOpenCreditForUpdate lista ventas CREDITO activas con saldo del cliente,
// en orden FIFO por fecha y bloqueadas para la asignación de abonos.
func (r *SaleRepo) ListOpenCreditForUpdate(customerID, sucursalID string) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM ventas
		WHERE cliente_id = $1 AND sucursal_id = $2 AND estado = 'CREDITO' AND activa AND saldo_pendiente > 0
		ORDER BY fecha ASC, folio ASC
		FOR UPDATE`
	return r.list(query, customerID, sucursalID)
}

// ListBySucursal lista ventas de una sucursal, más recientes primero.
func (r *SaleRepo) ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM ventas
		WHERE sucursal_id = $1 ORDER BY fecha DESC, folio DESC LIMIT $2 OFFSET $3`
	return r.list(query, sucursalID, limit, offset)
}

func (r *SaleRepo) list(query string, args ...any) ([]*entity.Sale, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ventas: %w", err)
	}
	defer rows.Close()
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venta: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, s := range list {
		if err := r.loadLines(s); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// LastFolio devuelve el último folio asignado en la sucursal (0 si no hay ventas).
// Se llama dentro de la transacción de creación para que el consecutivo sea correcto.
func (r *SaleRepo) LastFolio(sucursalID string) (int64, error) {
	var folio int64
	err := r.q.QueryRow(context.Background(),
		`SELECT COALESCE(MAX(folio), 0) FROM ventas WHERE sucursal_id = $1`, sucursalID).Scan(&folio)
	if err != nil {
		return 0, fmt.Errorf("last folio: %w", err)
	}
	return folio, nil
}

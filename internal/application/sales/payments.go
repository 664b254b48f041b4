package sales

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

// PaymentUseCase aplica abonos sobre ventas a crédito: a una venta concreta o
// en modo general sobre todas las ventas CREDITO abiertas de un cliente en una
// sucursal, de la más antigua a la más reciente (FIFO), recortando al saldo de
// cada una. La operación completa es una transacción: un fallo tras aplicación
// parcial no persiste nada.
type PaymentUseCase struct {
	txRunner TxRunner
	saleRepo repository.SaleRepository
	log      *logger.Logger
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(txRunner TxRunner, saleRepo repository.SaleRepository, log *logger.Logger) *PaymentUseCase {
	return &PaymentUseCase{txRunner: txRunner, saleRepo: saleRepo, log: log}
}

// AllocationResult resultado de un abono a una sola venta.
type AllocationResult struct {
	SaleID         string
	Applied        decimal.Decimal // min(saldo pendiente, monto)
	Remaining      decimal.Decimal // monto - aplicado
	PendingBalance decimal.Decimal // saldo de la venta tras el abono
}

// SaleApplication es la porción de un abono general absorbida por una venta.
type SaleApplication struct {
	SaleID  string
	Folio   int64
	Applied decimal.Decimal
}

// GeneralAllocationResult resultado de un abono general (varias ventas).
type GeneralAllocationResult struct {
	Applied      decimal.Decimal
	Remaining    decimal.Decimal
	Applications []SaleApplication
}

// Apply abona monto a una venta: pending = max(total - pagado, 0); si no hay
// saldo falla con ErrNoPendingBalance; si no, aplica min(pending, monto).
func (uc *PaymentUseCase) Apply(ctx context.Context, saleID string, amount decimal.Decimal) (*AllocationResult, error) {
	if saleID == "" || !amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	var result *AllocationResult
	err := uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		_ repository.ProductRepository,
	) error {
		sale, err := saleRepo.GetForUpdate(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		pending := sale.Pending()
		if !pending.GreaterThan(decimal.Zero) {
			return domain.ErrNoPendingBalance
		}
		applied := decimal.Min(pending, amount)
		newPaid := sale.AmountPaid.Add(applied)
		newPending := pending.Sub(applied)
		if err := saleRepo.UpdatePayment(sale.ID, newPaid, newPending); err != nil {
			return err
		}
		result = &AllocationResult{
			SaleID:         sale.ID,
			Applied:        applied,
			Remaining:      amount.Sub(applied),
			PendingBalance: newPending,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyGeneral reparte monto entre las ventas CREDITO activas del cliente en la
// sucursal, de la más antigua a la más reciente, sin exceder el saldo de cada
// una y deteniéndose cuando el remanente llega a cero. Si ninguna venta absorbe
// nada falla con ErrNoPendingBalance.
func (uc *PaymentUseCase) ApplyGeneral(ctx context.Context, customerID, sucursalID string, amount decimal.Decimal) (*GeneralAllocationResult, error) {
	if customerID == "" || sucursalID == "" || !amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	var result *GeneralAllocationResult
	err := uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		_ repository.ProductRepository,
	) error {
		sales, err := saleRepo.ListOpenCreditForUpdate(customerID, sucursalID)
		if err != nil {
			return err
		}

		remaining := amount
		var applications []SaleApplication
		for _, sale := range sales {
			if !remaining.GreaterThan(decimal.Zero) {
				break
			}
			pending := sale.Pending()
			if !pending.GreaterThan(decimal.Zero) {
				continue
			}
			applied := decimal.Min(pending, remaining)
			newPaid := sale.AmountPaid.Add(applied)
			newPending := pending.Sub(applied)
			if err := saleRepo.UpdatePayment(sale.ID, newPaid, newPending); err != nil {
				return err
			}
			applications = append(applications, SaleApplication{
				SaleID:  sale.ID,
				Folio:   sale.Folio,
				Applied: applied,
			})
			remaining = remaining.Sub(applied)
		}

		if len(applications) == 0 {
			return domain.ErrNoPendingBalance
		}
		result = &GeneralAllocationResult{
			Applied:      amount.Sub(remaining),
			Remaining:    remaining,
			Applications: applications,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

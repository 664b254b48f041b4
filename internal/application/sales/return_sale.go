package sales

import (
	"context"
	"time"

	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// Return registra la devolución de una venta: la marca inactiva, estampa fecha
// y usuario, y restaura el stock de cada línea activa no-servicio (expansión
// BOM con delta positivo), todo en una transacción. Devolver una venta ya
// inactiva falla con ErrAlreadyReturned. Tras el commit se envía una única
// notificación listando los productos restaurados.
func (uc *SaleUseCase) Return(ctx context.Context, saleID, userID string) (*entity.Sale, error) {
	if saleID == "" {
		return nil, domain.ErrInvalidInput
	}

	var sale *entity.Sale
	var restored []MutationResult
	err := uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
	) error {
		var err error
		sale, err = saleRepo.GetForUpdate(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if !sale.Active {
			return domain.ErrAlreadyReturned
		}

		// Una cotización nunca consumió stock: su devolución solo la desactiva.
		if sale.Status.IsFinal() {
			catalog := make(map[string]*entity.Product, len(sale.Lines))
			for _, line := range sale.Lines {
				if _, ok := catalog[line.ProductID]; ok {
					continue
				}
				p, err := productRepo.GetWithBOM(line.ProductID)
				if err != nil {
					return err
				}
				if p == nil {
					return domain.ErrNotFound
				}
				catalog[line.ProductID] = p
			}
			restored, err = restoreLines(productRepo, catalog, sale.Lines)
			if err != nil {
				return err
			}
		}

		now := time.Now()
		if err := saleRepo.MarkReturned(saleID, userID, now); err != nil {
			return err
		}
		sale.Active = false
		sale.ReturnDate = &now
		sale.ReturnedBy = userID
		return nil
	})
	if err != nil {
		return nil, err
	}

	branch, berr := uc.branchRepo.GetByID(sale.SucursalID)
	if berr == nil && branch != nil {
		uc.notifyReturn(branch, sale, restored)
	}
	return sale, nil
}

package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// UpdateSaleInput entrada para editar una venta. Los campos nil/vacíos conservan
// el valor actual. Lines == nil conserva las líneas; una lista (incluso vacía no
// permitida) las reemplaza con semántica delete-then-recreate.
type UpdateSaleInput struct {
	SaleID          string
	UserID          string
	Status          string // vacío = conservar estado
	CustomerID      *string
	GeneralDiscount *decimal.Decimal
	Lines           []SaleLineInput // nil = conservar líneas
}

// Update edita una venta. La tabla de transiciones rechaza final -> COTIZACION.
// Si la venta era COTIZACION y el nuevo estado es final (conversión), el consumo
// de stock de TODO el conjunto nuevo de líneas se dispara una única vez dentro
// de la transacción, y CostAtSale se congela del costo vivo del producto en ese
// momento. Editar una venta ya final nunca vuelve a disparar consumo: los
// cambios de líneas sobre ventas finales son solo de metadatos y no reconcilian
// stock (decisión registrada; ver DESIGN.md). El estado actual, la validez de
// la transición y la condición de conversión se deciden sobre la fila
// bloqueada (SELECT FOR UPDATE), nunca sobre una lectura previa a la tx.
func (uc *SaleUseCase) Update(ctx context.Context, in UpdateSaleInput) (*entity.Sale, error) {
	if in.SaleID == "" {
		return nil, domain.ErrInvalidInput
	}
	var requested *entity.SaleStatus
	if in.Status != "" {
		st, err := entity.ParseSaleStatus(in.Status)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		requested = &st
	}
	if in.Lines != nil {
		if len(in.Lines) == 0 {
			return nil, domain.ErrInvalidInput
		}
		if err := validateLines(in.Lines); err != nil {
			return nil, err
		}
	}
	if in.GeneralDiscount != nil && in.GeneralDiscount.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	// Lectura previa solo para respuestas rápidas y para resolver sucursal y
	// cliente; todo lo que decide consumo se recalcula bajo el lock de fila.
	current, err := uc.saleRepo.GetByID(in.SaleID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if !current.Active {
		return nil, domain.ErrAlreadyReturned
	}

	branch, err := uc.branchRepo.GetByID(current.SucursalID)
	if err != nil || branch == nil {
		return nil, domain.ErrNotFound
	}
	if in.CustomerID != nil && *in.CustomerID != "" && *in.CustomerID != current.CustomerID {
		customer, err := uc.customerRepo.GetByID(*in.CustomerID)
		if err != nil || customer == nil {
			return nil, domain.ErrNotFound
		}
	}

	var updated *entity.Sale
	var lowStock []MutationResult
	var conversion bool
	var catalog map[string]*entity.Product
	err = uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
	) error {
		sale, err := saleRepo.GetForUpdate(in.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if !sale.Active {
			return domain.ErrAlreadyReturned
		}

		// Dos conversiones concurrentes de la misma cotización: la segunda ya
		// ve la fila en estado final y no vuelve a consumir.
		newStatus := sale.Status
		if requested != nil {
			if !sale.Status.CanTransitionTo(*requested) {
				return domain.ErrInvalidTransition
			}
			newStatus = *requested
		}
		conversion = sale.Status == entity.StatusCotizacion && newStatus.IsFinal()

		customerID := sale.CustomerID
		if in.CustomerID != nil {
			customerID = *in.CustomerID
		}
		if newStatus == entity.StatusCredito && customerID == "" {
			return domain.ErrInvalidInput
		}

		lineInputs := in.Lines
		if lineInputs == nil {
			lineInputs = lineInputsFrom(sale.Lines)
		}
		if len(lineInputs) == 0 {
			return domain.ErrInvalidInput
		}
		catalog, err = uc.loadCatalog(lineInputs)
		if err != nil {
			return err
		}

		generalDiscount := sale.GeneralDiscount
		if in.GeneralDiscount != nil {
			generalDiscount = *in.GeneralDiscount
		}

		previous := sale.Lines
		sale.CustomerID = customerID
		sale.Status = newStatus
		// Snapshot de costo: solo al finalizar (conversión); una venta ya final
		// conserva el costo congelado en su primera finalización.
		snapshot := conversion
		sale.Lines = buildLines(sale.ID, lineInputs, catalog, snapshot)
		if !snapshot {
			preserveCostSnapshots(sale.Lines, previous)
		}
		computeTotals(sale, catalog, generalDiscount)
		rebalancePayment(sale)
		sale.UpdatedAt = time.Now()

		if conversion {
			lowStock, err = consumeLines(productRepo, catalog, sale.Lines, branch.AllowNegativeInventory)
			if err != nil {
				return err
			}
		}

		if err := saleRepo.ReplaceLines(sale.ID, sale.Lines); err != nil {
			return err
		}
		if err := saleRepo.UpdateHeader(sale); err != nil {
			return err
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	if conversion {
		uc.notifyLowStock(branch, updated, lowStock)
		uc.notifyDiscounts(branch, updated, catalog)
	}
	return updated, nil
}

// lineInputsFrom reconstruye entradas a partir de las líneas persistidas.
func lineInputsFrom(lines []entity.SaleLine) []SaleLineInput {
	in := make([]SaleLineInput, 0, len(lines))
	for _, l := range lines {
		if !l.Active {
			continue
		}
		in = append(in, SaleLineInput{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
		})
	}
	return in
}

// preserveCostSnapshots conserva el costo congelado de la primera finalización
// para líneas del mismo producto en ediciones posteriores.
func preserveCostSnapshots(lines []entity.SaleLine, previous []entity.SaleLine) {
	byProduct := make(map[string]decimal.Decimal, len(previous))
	for _, p := range previous {
		byProduct[p.ProductID] = p.CostAtSale
	}
	for i := range lines {
		if cost, ok := byProduct[lines[i].ProductID]; ok {
			lines[i].CostAtSale = cost
		}
	}
}

// rebalancePayment reajusta pagado/saldo tras recalcular el total:
// CONTADO/TARJETA quedan liquidadas; CREDITO conserva lo abonado y recalcula
// el pendiente con clamp en cero; COTIZACION no registra pagos.
func rebalancePayment(sale *entity.Sale) {
	switch sale.Status {
	case entity.StatusContado, entity.StatusTarjeta:
		sale.AmountPaid = sale.Total
		sale.PendingBalance = decimal.Zero
	case entity.StatusCredito:
		if sale.AmountPaid.GreaterThan(sale.Total) {
			sale.AmountPaid = sale.Total
		}
		sale.PendingBalance = sale.Pending()
	default:
		sale.AmountPaid = decimal.Zero
		sale.PendingBalance = decimal.Zero
	}
}

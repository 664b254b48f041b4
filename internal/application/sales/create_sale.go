package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

// SaleUseCase orquesta el ciclo de vida de la venta: creación, edición
// (incluida la conversión cotización -> venta final), devolución y consultas.
// Toda operación que afecta stock corre dentro de una única transacción
// (TxRunner); las notificaciones se despachan después del commit y sus fallos
// solo se registran en el log.
type SaleUseCase struct {
	txRunner     TxRunner
	branchRepo   repository.BranchRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	saleRepo     repository.SaleRepository
	notifier     NotificationPort
	log          *logger.Logger
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(
	txRunner TxRunner,
	branchRepo repository.BranchRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	notifier NotificationPort,
	log *logger.Logger,
) *SaleUseCase {
	return &SaleUseCase{
		txRunner:     txRunner,
		branchRepo:   branchRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		saleRepo:     saleRepo,
		notifier:     notifier,
		log:          log,
	}
}

// SaleLineInput entrada para una línea de venta.
type SaleLineInput struct {
	ProductID       string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// CreateSaleInput entrada para crear una venta o cotización.
type CreateSaleInput struct {
	SucursalID      string
	CustomerID      string
	UserID          string
	Status          string
	GeneralDiscount decimal.Decimal
	AmountPaid      decimal.Decimal // pago inicial en ventas CREDITO
	Lines           []SaleLineInput
}

// Create persiste la venta con sus líneas. Si el estado es final (no COTIZACION),
// cada línea no-servicio se expande vía BOM y se descuenta del stock dentro de la
// misma transacción; cualquier fallo de stock aborta todo (sin venta parcial ni
// stock parcial). Las alertas de stock bajo y los avisos de descuento se envían
// tras el commit.
func (uc *SaleUseCase) Create(ctx context.Context, in CreateSaleInput) (*entity.Sale, error) {
	status, err := uc.validateCreate(in)
	if err != nil {
		return nil, err
	}

	branch, err := uc.branchRepo.GetByID(in.SucursalID)
	if err != nil || branch == nil {
		return nil, domain.ErrNotFound
	}
	if in.CustomerID != "" {
		customer, err := uc.customerRepo.GetByID(in.CustomerID)
		if err != nil || customer == nil {
			return nil, domain.ErrNotFound
		}
	}

	// Catálogo con recetas, fuera de la tx (solo lectura). El guard de stock
	// es atómico en el UPDATE, así que leer aquí no abre carrera de sobreventa.
	catalog, err := uc.loadCatalog(in.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sale := &entity.Sale{
		ID:         uuid.New().String(),
		SucursalID: in.SucursalID,
		CustomerID: in.CustomerID,
		UserID:     in.UserID,
		Status:     status,
		Date:       now,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sale.Lines = buildLines(sale.ID, in.Lines, catalog, status.IsFinal())
	computeTotals(sale, catalog, in.GeneralDiscount)
	applyInitialPayment(sale, in.AmountPaid)

	// El folio se asigna dentro de la tx. Bajo READ COMMITTED dos creaciones
	// concurrentes en la misma sucursal pueden calcular el mismo consecutivo;
	// el índice único (sucursal_id, folio) rechaza a la segunda y se reintenta
	// la transacción completa con el folio siguiente.
	var lowStock []MutationResult
	for attempt := 0; ; attempt++ {
		lowStock = nil
		err = uc.txRunner.Run(ctx, func(
			saleRepo repository.SaleRepository,
			productRepo repository.ProductRepository,
		) error {
			last, err := saleRepo.LastFolio(in.SucursalID)
			if err != nil {
				return err
			}
			sale.Folio = last + 1

			if status.IsFinal() {
				lowStock, err = consumeLines(productRepo, catalog, sale.Lines, branch.AllowNegativeInventory)
				if err != nil {
					return err
				}
			}
			return saleRepo.Create(sale)
		})
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicate) && attempt < folioRetries {
			uc.log.Warn().Int64("folio", sale.Folio).Str("sucursal", in.SucursalID).
				Msg("colisión de folio, reintentando")
			continue
		}
		return nil, err
	}

	// Los avisos aplican solo a ventas finales: una cotización no consume stock
	// ni formaliza descuentos hasta su conversión.
	if status.IsFinal() {
		uc.notifyLowStock(branch, sale, lowStock)
		uc.notifyDiscounts(branch, sale, catalog)
	}
	return sale, nil
}

// folioRetries reintentos ante colisión de folio concurrente.
const folioRetries = 3

func (uc *SaleUseCase) validateCreate(in CreateSaleInput) (entity.SaleStatus, error) {
	if in.SucursalID == "" || len(in.Lines) == 0 {
		return "", domain.ErrInvalidInput
	}
	status, err := entity.ParseSaleStatus(in.Status)
	if err != nil {
		return "", domain.ErrInvalidInput
	}
	if status == entity.StatusCredito && in.CustomerID == "" {
		return "", domain.ErrInvalidInput
	}
	if err := validateLines(in.Lines); err != nil {
		return "", err
	}
	if in.GeneralDiscount.IsNegative() || in.AmountPaid.IsNegative() {
		return "", domain.ErrInvalidInput
	}
	return status, nil
}

func validateLines(lines []SaleLineInput) error {
	hundred := decimal.NewFromInt(100)
	for _, l := range lines {
		if l.ProductID == "" || !l.Quantity.GreaterThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
		if l.UnitPrice.IsNegative() {
			return domain.ErrInvalidInput
		}
		if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// loadCatalog carga cada producto de las líneas con su receta (BOM).
func (uc *SaleUseCase) loadCatalog(lines []SaleLineInput) (map[string]*entity.Product, error) {
	catalog := make(map[string]*entity.Product, len(lines))
	for _, l := range lines {
		if _, ok := catalog[l.ProductID]; ok {
			continue
		}
		p, err := uc.productRepo.GetWithBOM(l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrNotFound
		}
		catalog[l.ProductID] = p
	}
	return catalog, nil
}

// buildLines convierte la entrada en líneas de venta. snapshotCost congela el
// costo vivo del producto en CostAtSale (solo al finalizar; una cotización lo
// congela al convertirse).
func buildLines(saleID string, in []SaleLineInput, catalog map[string]*entity.Product, snapshotCost bool) []entity.SaleLine {
	lines := make([]entity.SaleLine, 0, len(in))
	for _, l := range in {
		p := catalog[l.ProductID]
		price := l.UnitPrice
		if price.IsZero() {
			price = p.Price
		}
		line := entity.SaleLine{
			ID:              uuid.New().String(),
			SaleID:          saleID,
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			UnitPrice:       price,
			DiscountPercent: l.DiscountPercent,
			Active:          true,
		}
		if snapshotCost {
			line.CostAtSale = p.Cost
		}
		line.LineTotal = line.Total()
		lines = append(lines, line)
	}
	return lines
}

// computeTotals calcula subtotal, descuentos, impuesto (tasa por producto sobre
// el importe ya descontado de la línea) y total; el descuento general se aplica
// antes del impuesto.
func computeTotals(sale *entity.Sale, catalog map[string]*entity.Product, generalDiscount decimal.Decimal) {
	var subtotal, tax, individual decimal.Decimal
	for i := range sale.Lines {
		line := &sale.Lines[i]
		lineTotal := line.Total()
		line.LineTotal = lineTotal
		subtotal = subtotal.Add(lineTotal)
		individual = individual.Add(line.DiscountAmount())
		tax = tax.Add(lineTotal.Mul(catalog[line.ProductID].TaxRate))
	}
	if generalDiscount.GreaterThan(subtotal) {
		generalDiscount = subtotal
	}
	sale.Subtotal = subtotal
	sale.IndividualDiscount = individual
	sale.GeneralDiscount = generalDiscount
	sale.Tax = tax
	sale.Total = subtotal.Sub(generalDiscount).Add(tax)
}

// applyInitialPayment fija pagado y saldo según el estado: CONTADO/TARJETA se
// liquidan de inmediato; CREDITO arranca con el pago inicial recibido y saldo
// pendiente max(total - pagado, 0); COTIZACION no registra pagos.
func applyInitialPayment(sale *entity.Sale, amountPaid decimal.Decimal) {
	switch sale.Status {
	case entity.StatusContado, entity.StatusTarjeta:
		sale.AmountPaid = sale.Total
		sale.PendingBalance = decimal.Zero
	case entity.StatusCredito:
		if amountPaid.GreaterThan(sale.Total) {
			amountPaid = sale.Total
		}
		sale.AmountPaid = amountPaid
		sale.PendingBalance = sale.Pending()
	default:
		sale.AmountPaid = decimal.Zero
		sale.PendingBalance = decimal.Zero
	}
}

// consumeLines descuenta stock por cada línea no-servicio: expansión BOM y un
// delta negativo por componente, en el orden de entrada. Acumula los resultados
// con stock bajo para el lote de alertas.
func consumeLines(
	products repository.ProductRepository,
	catalog map[string]*entity.Product,
	lines []entity.SaleLine,
	allowNegative bool,
) ([]MutationResult, error) {
	var lowStock []MutationResult
	for _, line := range lines {
		p := catalog[line.ProductID]
		if p.IsService {
			continue
		}
		for _, c := range ExpandConsumption(p, line.Quantity) {
			res, err := ApplyStockDelta(products, c.ProductID, c.Quantity.Neg(), allowNegative)
			if err != nil {
				return nil, err
			}
			if res.LowStock {
				lowStock = append(lowStock, *res)
			}
		}
	}
	return lowStock, nil
}

// restoreLines repone el stock de cada línea activa no-servicio (devoluciones):
// misma expansión BOM con delta positivo. Siempre permite la restauración.
func restoreLines(
	products repository.ProductRepository,
	catalog map[string]*entity.Product,
	lines []entity.SaleLine,
) ([]MutationResult, error) {
	var restored []MutationResult
	for _, line := range lines {
		if !line.Active {
			continue
		}
		p := catalog[line.ProductID]
		if p.IsService {
			continue
		}
		for _, c := range ExpandConsumption(p, line.Quantity) {
			res, err := ApplyStockDelta(products, c.ProductID, c.Quantity, true)
			if err != nil {
				return nil, err
			}
			restored = append(restored, *res)
		}
	}
	return restored, nil
}

package sales

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// TicketLine es una línea de venta resuelta con el nombre del producto,
// lista para imprimir.
type TicketLine struct {
	ProductName     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	LineTotal       decimal.Decimal
}

// TicketData agrupa todo lo que el generador necesita para armar el ticket.
type TicketData struct {
	Sale     *entity.Sale
	Branch   *entity.Branch
	Customer *entity.Customer // nil en venta de mostrador
	Lines    []TicketLine
}

// TicketPDFGenerator es el puerto de generación del ticket en PDF.
type TicketPDFGenerator interface {
	GenerateTicketPDF(ctx context.Context, data *TicketData) ([]byte, error)
}

// TicketUseCase arma los datos del ticket de una venta y delega el PDF al generador.
type TicketUseCase struct {
	saleRepo     repository.SaleRepository
	branchRepo   repository.BranchRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	generator    TicketPDFGenerator
}

// NewTicketUseCase construye el caso de uso de tickets.
func NewTicketUseCase(
	saleRepo repository.SaleRepository,
	branchRepo repository.BranchRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	generator TicketPDFGenerator,
) *TicketUseCase {
	return &TicketUseCase{
		saleRepo:     saleRepo,
		branchRepo:   branchRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		generator:    generator,
	}
}

// Generate produce el PDF del ticket de la venta indicada.
func (uc *TicketUseCase) Generate(ctx context.Context, saleID string) ([]byte, error) {
	sale, err := uc.saleRepo.GetByID(saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}

	branch, err := uc.branchRepo.GetByID(sale.SucursalID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, fmt.Errorf("sucursal %s de la venta no existe: %w", sale.SucursalID, domain.ErrNotFound)
	}

	var customer *entity.Customer
	if sale.CustomerID != "" {
		customer, err = uc.customerRepo.GetByID(sale.CustomerID)
		if err != nil {
			return nil, err
		}
	}

	lines := make([]TicketLine, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		name := l.ProductID
		if p, err := uc.productRepo.GetByID(l.ProductID); err == nil && p != nil {
			name = p.Name
		}
		lines = append(lines, TicketLine{
			ProductName:     name,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			LineTotal:       l.LineTotal,
		})
	}

	return uc.generator.GenerateTicketPDF(ctx, &TicketData{
		Sale:     sale,
		Branch:   branch,
		Customer: customer,
		Lines:    lines,
	})
}

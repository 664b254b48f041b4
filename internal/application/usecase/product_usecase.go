package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos y sus recetas (insumos).
// El stock no se edita por aquí: solo lo mutan ventas y devoluciones.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto con su receta opcional. Un producto de servicio no
// puede llevar receta ni stock.
func (uc *ProductUseCase) Create(sucursalID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if sucursalID == "" || in.Nombre == "" || in.SKU == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Precio.IsNegative() || in.Costo.IsNegative() || in.Stock.IsNegative() || in.StockMin.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.EsServicio && (len(in.Insumos) > 0 || !in.Stock.IsZero()) {
		return nil, domain.ErrInvalidInput
	}
	existing, _ := uc.repo.GetBySucursalAndSKU(sucursalID, in.SKU)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:         uuid.New().String(),
		SucursalID: sucursalID,
		SKU:        in.SKU,
		Name:       in.Nombre,
		Price:      in.Precio,
		Cost:       in.Costo,
		TaxRate:    in.TasaImpuesto,
		Stock:      in.Stock,
		StockMin:   in.StockMin,
		IsService:  in.EsServicio,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	product.Insumos = buildBOM(product.ID, in.Insumos)
	if err := validateBOM(uc.repo, product); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto con su receta.
func (uc *ProductUseCase) GetByID(id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetWithBOM(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto; Insumos != nil reemplaza la receta completa.
func (uc *ProductUseCase) Update(id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetWithBOM(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Precio.IsNegative() || in.Costo.IsNegative() || in.StockMin.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.Nombre != "" {
		product.Name = in.Nombre
	}
	if !in.Precio.IsZero() {
		product.Price = in.Precio
	}
	if !in.Costo.IsZero() {
		product.Cost = in.Costo
	}
	product.TaxRate = in.TasaImpuesto
	product.StockMin = in.StockMin
	product.UpdatedAt = time.Now()

	if in.Insumos != nil {
		if product.IsService {
			return nil, domain.ErrInvalidInput
		}
		product.Insumos = buildBOM(product.ID, in.Insumos)
		if err := validateBOM(uc.repo, product); err != nil {
			return nil, err
		}
		if err := uc.repo.ReplaceBOM(product.ID, product.Insumos); err != nil {
			return nil, err
		}
	}
	if err := uc.repo.Update(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// ListBySucursal lista productos de la sucursal con paginación.
func (uc *ProductUseCase) ListBySucursal(sucursalID string, page dto.PageRequest) ([]*dto.ProductResponse, error) {
	page.DefaultPage()
	products, err := uc.repo.ListBySucursal(sucursalID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

func buildBOM(productID string, in []dto.BomEntryRequest) []entity.BomEntry {
	entries := make([]entity.BomEntry, 0, len(in))
	for _, e := range in {
		entries = append(entries, entity.BomEntry{
			ID:                 uuid.New().String(),
			ProductID:          productID,
			ComponentProductID: e.IDProductoComponente,
			QuantityPerUnit:    e.CantidadPorUnidad,
		})
	}
	return entries
}

// validateBOM verifica que cada insumo exista, no sea el propio producto,
// no sea servicio y tenga multiplicador positivo. La expansión es de un nivel:
// un insumo con receta propia se consume como producto plano.
func validateBOM(repo repository.ProductRepository, product *entity.Product) error {
	for _, e := range product.Insumos {
		if e.ComponentProductID == "" || e.ComponentProductID == product.ID {
			return domain.ErrInvalidInput
		}
		if !e.QuantityPerUnit.GreaterThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
		component, err := repo.GetByID(e.ComponentProductID)
		if err != nil {
			return err
		}
		if component == nil {
			return domain.ErrNotFound
		}
		if component.IsService {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:           p.ID,
		SucursalID:   p.SucursalID,
		SKU:          p.SKU,
		Nombre:       p.Name,
		Precio:       p.Price,
		Costo:        p.Cost,
		TasaImpuesto: p.TaxRate,
		Stock:        p.Stock,
		StockMin:     p.StockMin,
		EsServicio:   p.IsService,
	}
	for _, e := range p.Insumos {
		resp.Insumos = append(resp.Insumos, dto.BomEntryResponse{
			ID:                   e.ID,
			IDProductoComponente: e.ComponentProductID,
			CantidadPorUnidad:    e.QuantityPerUnit,
		})
	}
	return resp
}

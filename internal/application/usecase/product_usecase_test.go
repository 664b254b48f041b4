package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/usecase"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// stubProductRepo: repositorio de productos en memoria para validar reglas
// de catálogo (SKU duplicado, recetas, servicios).
type stubProductRepo struct {
	products map[string]*entity.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[string]*entity.Product)}
}

func (r *stubProductRepo) Create(p *entity.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.products[id], nil
}

func (r *stubProductRepo) GetWithBOM(id string) (*entity.Product, error) {
	return r.products[id], nil
}

func (r *stubProductRepo) GetBySucursalAndSKU(sucursalID, sku string) (*entity.Product, error) {
	for _, p := range r.products {
		if p.SucursalID == sucursalID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (r *stubProductRepo) Update(p *entity.Product) error { return nil }

func (r *stubProductRepo) ReplaceBOM(productID string, entries []entity.BomEntry) error {
	if p, ok := r.products[productID]; ok {
		p.Insumos = entries
	}
	return nil
}

func (r *stubProductRepo) ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.products {
		if p.SucursalID == sucursalID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) AdjustStock(productID string, delta decimal.Decimal, allowNegative bool) (*repository.StockLevel, error) {
	return nil, domain.ErrNotFound
}

func seed(r *stubProductRepo, id string, isService bool) {
	r.products[id] = &entity.Product{
		ID:         id,
		SucursalID: "suc1",
		SKU:        "SKU-" + id,
		Name:       "Producto " + id,
		IsService:  isService,
	}
}

func TestProductCreate_SKUDuplicadoEnSucursal(t *testing.T) {
	repo := newStubProductRepo()
	seed(repo, "p1", false)
	uc := usecase.NewProductUseCase(repo)

	_, err := uc.Create("suc1", dto.CreateProductRequest{
		SKU:    "SKU-p1",
		Nombre: "Otro producto",
		Precio: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductCreate_ServicioNoLlevaRecetaNiStock(t *testing.T) {
	repo := newStubProductRepo()
	seed(repo, "comp", false)
	uc := usecase.NewProductUseCase(repo)

	_, err := uc.Create("suc1", dto.CreateProductRequest{
		SKU:        "SRV-1",
		Nombre:     "Instalación",
		EsServicio: true,
		Insumos: []dto.BomEntryRequest{
			{IDProductoComponente: "comp", CantidadPorUnidad: decimal.NewFromInt(1)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "un servicio con receta debe rechazarse")

	_, err = uc.Create("suc1", dto.CreateProductRequest{
		SKU:        "SRV-2",
		Nombre:     "Flete",
		EsServicio: true,
		Stock:      decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "un servicio con stock debe rechazarse")
}

func TestProductCreate_RecetaValida(t *testing.T) {
	repo := newStubProductRepo()
	seed(repo, "harina", false)
	uc := usecase.NewProductUseCase(repo)

	resp, err := uc.Create("suc1", dto.CreateProductRequest{
		SKU:    "PIZZA",
		Nombre: "Pizza",
		Precio: decimal.NewFromInt(120),
		Insumos: []dto.BomEntryRequest{
			{IDProductoComponente: "harina", CantidadPorUnidad: decimal.NewFromFloat(0.5)},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Insumos, 1)
	assert.Equal(t, "harina", resp.Insumos[0].IDProductoComponente)
}

func TestProductCreate_RecetaConInsumoInvalido(t *testing.T) {
	repo := newStubProductRepo()
	seed(repo, "srv", true)
	uc := usecase.NewProductUseCase(repo)

	// Insumo inexistente.
	_, err := uc.Create("suc1", dto.CreateProductRequest{
		SKU:    "X1",
		Nombre: "Combo",
		Insumos: []dto.BomEntryRequest{
			{IDProductoComponente: "no-existe", CantidadPorUnidad: decimal.NewFromInt(1)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Insumo de servicio.
	_, err = uc.Create("suc1", dto.CreateProductRequest{
		SKU:    "X2",
		Nombre: "Combo",
		Insumos: []dto.BomEntryRequest{
			{IDProductoComponente: "srv", CantidadPorUnidad: decimal.NewFromInt(1)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Multiplicador no positivo.
	seed(repo, "comp", false)
	_, err = uc.Create("suc1", dto.CreateProductRequest{
		SKU:    "X3",
		Nombre: "Combo",
		Insumos: []dto.BomEntryRequest{
			{IDProductoComponente: "comp", CantidadPorUnidad: decimal.Zero},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

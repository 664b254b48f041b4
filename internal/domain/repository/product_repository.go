package repository

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// StockLevel es el resultado de una mutación atómica de stock.
type StockLevel struct {
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
	StockMin    decimal.Decimal
}

// ProductRepository define el puerto de persistencia para Product e insumos (BOM).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	// GetWithBOM obtiene el producto con sus insumos cargados (lectura para expansión BOM).
	GetWithBOM(id string) (*entity.Product, error)
	GetBySucursalAndSKU(sucursalID, sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	// ReplaceBOM reemplaza la receta completa del producto (delete + insert).
	ReplaceBOM(productID string, entries []entity.BomEntry) error
	ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Product, error)
	// AdjustStock aplica un delta con signo en una sola sentencia condicional:
	// UPDATE ... SET stock = stock + delta WHERE allowNegative OR stock + delta >= 0.
	// Si el guard falla retorna *domain.InsufficientStockError con nombre y cantidades.
	// Debe usarse dentro de una transacción para que el rollback deshaga la mutación.
	AdjustStock(productID string, delta decimal.Decimal, allowNegative bool) (*StockLevel, error)
}

package sales

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// MutationResult es el resultado de aplicar un delta de stock a un producto.
type MutationResult struct {
	ProductID   string
	ProductName string
	NewQuantity decimal.Decimal
	LowStock    bool
}

// ApplyStockDelta aplica un delta con signo sobre el stock de un producto:
// negativo consume, positivo restaura (devoluciones). El guard de inventario
// negativo y el decremento ocurren en una sola sentencia condicional del
// repositorio, de modo que ventas concurrentes sobre el mismo producto no
// pueden sobrevender. LowStock solo se evalúa en consumos; las restauraciones
// siempre tienen éxito y no disparan alerta.
func ApplyStockDelta(
	products repository.ProductRepository,
	productID string,
	delta decimal.Decimal,
	allowNegative bool,
) (*MutationResult, error) {
	level, err := products.AdjustStock(productID, delta, allowNegative)
	if err != nil {
		return nil, err
	}
	result := &MutationResult{
		ProductID:   level.ProductID,
		ProductName: level.ProductName,
		NewQuantity: level.Quantity,
	}
	if delta.IsNegative() {
		result.LowStock = level.Quantity.LessThanOrEqual(level.StockMin) ||
			level.Quantity.LessThanOrEqual(decimal.Zero)
	}
	return result, nil
}

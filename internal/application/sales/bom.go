package sales

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// Consumption es un par (producto componente, cantidad a consumir) resultado
// de expandir una línea de venta.
type Consumption struct {
	ProductID string
	Quantity  decimal.Decimal
}

// ExpandConsumption expande un producto vendido en su lista de consumos elementales:
//   - sin receta: el propio producto por la cantidad vendida;
//   - con receta: un consumo por insumo (cantidad * multiplicador) y el producto
//     padre NO se descuenta (ítem ensamblado/virtual).
//
// Los productos de servicio nunca se expanden; el caller debe saltarlos antes.
func ExpandConsumption(p *entity.Product, quantitySold decimal.Decimal) []Consumption {
	if !p.HasBOM() {
		return []Consumption{{ProductID: p.ID, Quantity: quantitySold}}
	}
	out := make([]Consumption, 0, len(p.Insumos))
	for _, entry := range p.Insumos {
		out = append(out, Consumption{
			ProductID: entry.ComponentProductID,
			Quantity:  quantitySold.Mul(entry.QuantityPerUnit),
		})
	}
	return out
}

package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrNoPendingBalance  = errors.New("la venta no tiene saldo pendiente")
	ErrAlreadyReturned   = errors.New("la venta ya fue devuelta")
	ErrInvalidTransition = errors.New("transición de estado de venta inválida")
)

// InsufficientStockError indica que un producto no tiene existencias para cubrir
// la cantidad solicitada y la sucursal no permite inventario negativo.
// El mensaje debe nombrar el producto y las cantidades (disponible vs solicitada).
type InsufficientStockError struct {
	ProductName string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %q: disponible %s, solicitado %s",
		e.ProductName, e.Available.String(), e.Requested.String())
}

// IsInsufficientStock verifica si err (o su cadena) es un InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

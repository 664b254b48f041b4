package sales

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza atomicidad para el motor de ventas: cualquier error
// devuelto por fn deshace ventas, líneas y mutaciones de stock por igual.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// Notification es un envío fire-and-forget al correo de la sucursal.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// NotificationPort despacha notificaciones (stock bajo, descuentos, devoluciones).
// Los fallos aquí jamás afectan el estado confirmado de la venta: el caller los
// registra en el log y continúa.
type NotificationPort interface {
	Send(n Notification) error
}

// NoopNotifier descarta las notificaciones (sucursales sin correo, tests).
type NoopNotifier struct{}

func (NoopNotifier) Send(Notification) error { return nil }

package sales

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// Las notificaciones se despachan en una goroutine después del commit:
// un SMTP lento o caído jamás bloquea ni revierte la venta. Los fallos
// solo se registran en el log.

func (uc *SaleUseCase) dispatch(to, subject, body string) {
	if to == "" {
		return
	}
	go func() {
		if err := uc.notifier.Send(Notification{To: to, Subject: subject, Body: body}); err != nil {
			uc.log.Error().Err(err).Str("subject", subject).Msg("envío de notificación fallido")
		}
	}()
}

// notifyLowStock envía un único correo con el lote de productos que quedaron
// en o por debajo de su mínimo tras la venta.
func (uc *SaleUseCase) notifyLowStock(branch *entity.Branch, sale *entity.Sale, hits []MutationResult) {
	if len(hits) == 0 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "La venta con folio %d dejó productos en stock bajo:\n\n", sale.Folio)
	for _, h := range hits {
		fmt.Fprintf(&b, "  - %s: quedan %s unidades\n", h.ProductName, h.NewQuantity.String())
	}
	uc.dispatch(branch.NotificationEmail, "Alerta de stock bajo", b.String())
}

// notifyDiscounts envía un aviso con las líneas que llevaron descuento.
func (uc *SaleUseCase) notifyDiscounts(branch *entity.Branch, sale *entity.Sale, catalog map[string]*entity.Product) {
	var b strings.Builder
	count := 0
	for _, line := range sale.Lines {
		if !line.DiscountPercent.GreaterThan(decimal.Zero) {
			continue
		}
		count++
		fmt.Fprintf(&b, "  - %s: %s%% de descuento (importe %s)\n",
			catalog[line.ProductID].Name, line.DiscountPercent.String(), line.DiscountAmount().StringFixed(2))
	}
	if count == 0 {
		return
	}
	subject := fmt.Sprintf("Descuentos aplicados en venta %d", sale.Folio)
	body := fmt.Sprintf("Se aplicaron descuentos en la venta con folio %d:\n\n%s", sale.Folio, b.String())
	uc.dispatch(branch.NotificationEmail, subject, body)
}

// notifyReturn envía un único correo listando los productos restaurados.
func (uc *SaleUseCase) notifyReturn(branch *entity.Branch, sale *entity.Sale, restored []MutationResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "Se registró la devolución de la venta con folio %d.\n", sale.Folio)
	if len(restored) > 0 {
		b.WriteString("\nStock restaurado:\n")
		for _, r := range restored {
			fmt.Fprintf(&b, "  - %s: ahora %s unidades\n", r.ProductName, r.NewQuantity.String())
		}
	}
	uc.dispatch(branch.NotificationEmail, "Devolución registrada", b.String())
}

// Package pdf implementa la generación del ticket de venta en PDF.
//
// Layout de la página A5:
//
//	┌───────────────────────────────────────────────┐
//	│  HEADER: Sucursal + Dirección │ Folio + Fecha │
//	│  ───────────────────────────────────────────  │
//	│  CLIENTE: Nombre + RFC (si hay)               │
//	│  ───────────────────────────────────────────  │
//	│  TABLA: Cant | Producto | P.Unit | Importe    │
//	│  ───────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuentos / IVA / TOTAL │
//	│           Pagado / Saldo pendiente (CREDITO)  │
//	└───────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 30, Green: 60, Blue: 90}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ sales.TicketPDFGenerator = (*MarotoTicketGenerator)(nil)

// MarotoTicketGenerator implementa sales.TicketPDFGenerator usando Maroto v2.
type MarotoTicketGenerator struct{}

// NewMarotoTicketGenerator construye el generador.
func NewMarotoTicketGenerator() *MarotoTicketGenerator { return &MarotoTicketGenerator{} }

// GenerateTicketPDF genera el PDF del ticket y devuelve sus bytes.
func (g *MarotoTicketGenerator) GenerateTicketPDF(_ context.Context, data *sales.TicketData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A5).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("Ticket de venta %d", data.Sale.Folio), true).
		WithAuthor(data.Branch.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data.Sale, data.Branch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	if data.Customer != nil {
		m.AddRows(customerRow(data.Customer))
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(data.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Sale))

	if !data.Sale.Active {
		m.AddRows(returnedRow(data.Sale))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar ticket: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: sucursal + dirección (izq) y folio + fecha + estado (der).
func headerRow(sale *entity.Sale, branch *entity.Branch) core.Row {
	fecha := sale.Date.Format("02/01/2006 15:04")
	titulo := "TICKET DE VENTA"
	if sale.Status == entity.StatusCotizacion {
		titulo = "COTIZACIÓN"
	}

	return row.New(18).Add(
		col.New(7).Add(
			text.New(branch.Name, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New(branch.Address, props.Text{
				Size: 8, Top: 8, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(titulo, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Folio %d", sale.Folio), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New(fecha+"  |  "+string(sale.Status), props.Text{
				Size: 7.5, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// customerRow: datos del cliente cuando la venta lo tiene.
func customerRow(customer *entity.Customer) core.Row {
	detalle := customer.Name
	if customer.TaxID != "" {
		detalle += "   |   RFC: " + customer.TaxID
	}
	return row.New(10).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 7.5, Color: colorPrimary, Top: 1,
			}),
			text.New(detalle, props.Text{Size: 8.5, Top: 5.5}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(7).Add(
		h("Cant.", 2, align.Center),
		h("Producto", 5, align.Left),
		h("P.Unit.", 2, align.Right),
		h("Importe", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea; el descuento se anota bajo el nombre.
func tableDetailRows(lines []sales.TicketLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		name := l.ProductName
		if l.DiscountPercent.IsPositive() {
			name = fmt.Sprintf("%s (desc. %s%%)", name, l.DiscountPercent.String())
		}
		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(
				l.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				name,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+l.UnitPrice.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"$"+l.LineTotal.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(sale *entity.Sale) core.Row {
	type entry struct {
		label, value string
		grand        bool
	}
	entries := []entry{
		{label: "Subtotal:", value: "$" + sale.Subtotal.StringFixed(2)},
	}
	if sale.IndividualDiscount.IsPositive() {
		entries = append(entries, entry{label: "Desc. por línea:", value: "-$" + sale.IndividualDiscount.StringFixed(2)})
	}
	if sale.GeneralDiscount.IsPositive() {
		entries = append(entries, entry{label: "Desc. general:", value: "-$" + sale.GeneralDiscount.StringFixed(2)})
	}
	entries = append(entries,
		entry{label: "IVA:", value: "$" + sale.Tax.StringFixed(2)},
		entry{label: "TOTAL:", value: "$" + sale.Total.StringFixed(2), grand: true},
	)
	if sale.Status == entity.StatusCredito {
		entries = append(entries,
			entry{label: "Pagado:", value: "$" + sale.AmountPaid.StringFixed(2)},
			entry{label: "Saldo pendiente:", value: "$" + sale.PendingBalance.StringFixed(2)},
		)
	}

	labels := make([]core.Component, 0, len(entries))
	values := make([]core.Component, 0, len(entries))
	top := 0.0
	for _, e := range entries {
		p := props.Text{Size: 9, Align: align.Right, Right: 2, Top: top}
		if e.grand {
			p.Style = fontstyle.Bold
			p.Size = 10.5
			p.Color = colorPrimary
		}
		labels = append(labels, text.New(e.label, p))
		pv := p
		pv.Right = 1
		values = append(values, text.New(e.value, pv))
		top += 5
	}

	return row.New(top + 2).Add(
		col.New(4), // espacio izquierdo
		col.New(5).Add(labels...),
		col.New(3).Add(values...),
	)
}

// returnedRow: leyenda de venta devuelta.
func returnedRow(sale *entity.Sale) core.Row {
	leyenda := "VENTA DEVUELTA"
	if sale.ReturnDate != nil {
		leyenda += " el " + sale.ReturnDate.Format("02/01/2006")
	}
	return row.New(10).Add(col.New(12).Add(
		text.New(leyenda, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Center,
			Color: colorPrimary, Top: 3,
		}),
	))
}

package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests de creación de ventas: consumo de inventario, expansión BOM,
// todo-o-nada, cotizaciones y totales.
// ──────────────────────────────────────────────────────────────────────────────

func line(productID string, qty float64) sales.SaleLineInput {
	return sales.SaleLineInput{ProductID: productID, Quantity: dec(qty)}
}

func TestCreate_ContadoDescuentaStock(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 2)

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 3)},
	})
	require.NoError(t, err)

	assert.True(t, f.stockOf("p1").Equal(dec(7)), "el stock debe bajar de 10 a 7")
	assert.Equal(t, int64(1), sale.Folio, "la primera venta de la sucursal lleva folio 1")
	assert.True(t, sale.AmountPaid.Equal(sale.Total), "CONTADO queda liquidada")
	assert.True(t, sale.PendingBalance.IsZero())
}

func TestCreate_ServicioNoTocaInventario(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 2)
	f.addService("srv1")

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 1), line("srv1", 2)},
	})
	require.NoError(t, err)

	assert.True(t, f.stockOf("p1").Equal(dec(9)))
	assert.True(t, f.stockOf("srv1").IsZero(), "un servicio jamás registra consumo")
}

func TestCreate_BOMConsumeComponentesNoElPadre(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("harina", 100, 10)
	f.addProduct("queso", 50, 5)
	pizza := f.addProduct("pizza", 0, 0)
	pizza.Insumos = []entity.BomEntry{
		{ID: "i1", ProductID: "pizza", ComponentProductID: "harina", QuantityPerUnit: dec(0.5)},
		{ID: "i2", ProductID: "pizza", ComponentProductID: "queso", QuantityPerUnit: dec(0.2)},
	}

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("pizza", 4)},
	})
	require.NoError(t, err)

	assert.True(t, f.stockOf("harina").Equal(dec(98)), "4 * 0.5 = 2 de harina")
	assert.True(t, f.stockOf("queso").Equal(dec(49.2)), "4 * 0.2 = 0.8 de queso")
	assert.True(t, f.stockOf("pizza").IsZero(), "el producto ensamblado no se descuenta")
}

func TestCreate_StockInsuficienteAbortaTodo(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 2)
	f.addProduct("p2", 1, 0)

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 5), line("p2", 3)},
	})
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientStock(err), "debe reportar stock insuficiente")

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Producto p2", stockErr.ProductName)
	assert.True(t, stockErr.Available.Equal(dec(1)))
	assert.True(t, stockErr.Requested.Equal(dec(3)))

	// Todo-o-nada: la primera línea también se revierte y no queda venta.
	assert.True(t, f.stockOf("p1").Equal(dec(10)), "el consumo de p1 debe revertirse")
	assert.True(t, f.stockOf("p2").Equal(dec(1)))
	list, _ := f.saleUC.ListBySucursal(context.Background(), "suc1", 10, 0)
	assert.Empty(t, list, "no debe persistir venta parcial")
}

func TestCreate_SucursalPermisivaPermiteNegativo(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", true)
	f.addProduct("p1", 2, 0)

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 5)},
	})
	require.NoError(t, err)
	assert.True(t, f.stockOf("p1").Equal(dec(-3)), "la sucursal permisiva admite stock negativo")
}

func TestCreate_CotizacionNoConsumeStock(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 2)

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "COTIZACION",
		Lines:      []sales.SaleLineInput{line("p1", 8)},
	})
	require.NoError(t, err)

	assert.True(t, f.stockOf("p1").Equal(dec(10)), "una cotización no toca inventario")
	assert.True(t, sale.AmountPaid.IsZero())
	assert.True(t, sale.Lines[0].CostAtSale.IsZero(), "el costo no se congela hasta finalizar")
}

func TestCreate_CotizacionPuedeExcederStock(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 2, 0)

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "COTIZACION",
		Lines:      []sales.SaleLineInput{line("p1", 100)},
	})
	assert.NoError(t, err, "la cotización no valida stock: el guard corre al convertir")
}

func TestCreate_TotalesConDescuentosEImpuesto(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	p := f.addProduct("p1", 50, 5)
	p.TaxRate = dec(0.16)

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID:      "suc1",
		UserID:          "u1",
		Status:          "CONTADO",
		GeneralDiscount: dec(30),
		Lines: []sales.SaleLineInput{{
			ProductID:       "p1",
			Quantity:        dec(2),
			UnitPrice:       dec(100),
			DiscountPercent: dec(10),
		}},
	})
	require.NoError(t, err)

	// línea: 2 * 100 * 0.90 = 180; descuento individual = 20
	assert.True(t, sale.Subtotal.Equal(dec(180)), "subtotal %s", sale.Subtotal)
	assert.True(t, sale.IndividualDiscount.Equal(dec(20)))
	assert.True(t, sale.GeneralDiscount.Equal(dec(30)))
	// impuesto: 180 * 0.16 = 28.8; total: 180 - 30 + 28.8 = 178.8
	assert.True(t, sale.Tax.Equal(dec(28.8)), "impuesto %s", sale.Tax)
	assert.True(t, sale.Total.Equal(dec(178.8)), "total %s", sale.Total)
}

func TestCreate_DescuentoGeneralSeRecortaAlSubtotal(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 0)

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID:      "suc1",
		UserID:          "u1",
		Status:          "CONTADO",
		GeneralDiscount: dec(9999),
		Lines:           []sales.SaleLineInput{line("p1", 1)},
	})
	require.NoError(t, err)
	assert.True(t, sale.GeneralDiscount.Equal(sale.Subtotal), "el descuento general se recorta al subtotal")
	assert.False(t, sale.Total.IsNegative(), "el total nunca es negativo")
}

func TestCreate_CreditoRequiereCliente(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 0)

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CREDITO",
		Lines:      []sales.SaleLineInput{line("p1", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "CREDITO sin cliente debe rechazarse")
}

func TestCreate_CreditoConAnticipo(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addCustomer("c1", "suc1")
	f.addProduct("p1", 10, 0)

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		CustomerID: "c1",
		UserID:     "u1",
		Status:     "CREDITO",
		AmountPaid: dec(40),
		Lines:      []sales.SaleLineInput{line("p1", 1)}, // total 100
	})
	require.NoError(t, err)

	assert.True(t, sale.AmountPaid.Equal(dec(40)))
	assert.True(t, sale.PendingBalance.Equal(dec(60)))
}

func TestCreate_AnticipoMayorAlTotalSeRecorta(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addCustomer("c1", "suc1")
	f.addProduct("p1", 10, 0)

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		CustomerID: "c1",
		UserID:     "u1",
		Status:     "CREDITO",
		AmountPaid: dec(500),
		Lines:      []sales.SaleLineInput{line("p1", 1)},
	})
	require.NoError(t, err)
	assert.True(t, sale.AmountPaid.Equal(sale.Total), "el anticipo se recorta al total")
	assert.True(t, sale.PendingBalance.IsZero())
}

func TestCreate_FoliosConsecutivosPorSucursal(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addBranch("suc2", false)
	f.addProduct("p1", 100, 0)

	mk := func(sucursal string) *entity.Sale {
		s, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
			SucursalID: sucursal,
			UserID:     "u1",
			Status:     "CONTADO",
			Lines:      []sales.SaleLineInput{line("p1", 1)},
		})
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, int64(1), mk("suc1").Folio)
	assert.Equal(t, int64(2), mk("suc1").Folio)
	assert.Equal(t, int64(1), mk("suc2").Folio, "el consecutivo es por sucursal")

	folio, err := f.saleUC.LastFolio(context.Background(), "suc1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), folio)
}

func TestCreate_PrecioCeroTomaPrecioDeCatalogo(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 0) // precio de catálogo 100

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 2)},
	})
	require.NoError(t, err)
	assert.True(t, sale.Lines[0].UnitPrice.Equal(dec(100)))
	assert.True(t, sale.Subtotal.Equal(dec(200)))
}

func TestCreate_VentaFinalCongelaCosto(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 0) // costo 60

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 1)},
	})
	require.NoError(t, err)
	assert.True(t, sale.Lines[0].CostAtSale.Equal(dec(60)), "CostAtSale toma el costo vivo al finalizar")
}

func TestCreate_AlertaDeStockBajoTrasCommit(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 5, 3)

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 2)}, // queda 3 == stock_min
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return f.notifier.count() == 1 },
		time.Second, 10*time.Millisecond, "debe despacharse una alerta de stock bajo")
	assert.Contains(t, f.notifier.subjects(), "Alerta de stock bajo")
}

func TestCreate_SinLineasEsInvalido(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_CantidadNoPositivaEsInvalida(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 0)

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 0)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", -2)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_EstadoDesconocidoEsInvalido(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 0)

	_, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "APARTADO",
		Lines:      []sales.SaleLineInput{line("p1", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_CotizacionNoDespachaAvisos(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 0)

	quote, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "COTIZACION",
		Lines: []sales.SaleLineInput{
			{ProductID: "p1", Quantity: dec(1), DiscountPercent: dec(10)},
		},
	})
	require.NoError(t, err)
	assert.Never(t, func() bool { return f.notifier.count() > 0 },
		200*time.Millisecond, 20*time.Millisecond,
		"una cotización con descuento no dispara avisos")

	// El descuento se formaliza al convertir: exactamente un aviso.
	_, err = f.saleUC.Update(context.Background(), sales.UpdateSaleInput{
		SaleID: quote.ID,
		UserID: "u1",
		Status: "CONTADO",
	})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return f.notifier.count() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Contains(t, f.notifier.subjects()[0], "Descuentos aplicados")
}

// collidingSaleRepo simula las primeras colisiones del índice único
// (sucursal_id, folio) antes de delegar en el repo real.
type collidingSaleRepo struct {
	repository.SaleRepository
	collisions int
}

func (r *collidingSaleRepo) Create(s *entity.Sale) error {
	if r.collisions > 0 {
		r.collisions--
		return domain.ErrDuplicate
	}
	return r.SaleRepository.Create(s)
}

func TestCreate_ColisionDeFolioReintenta(t *testing.T) {
	f := newFixture()
	f.addBranch("suc1", false)
	f.addProduct("p1", 10, 0)

	colliding := &collidingSaleRepo{collisions: 1}
	f.tx.wrapSale = func(inner repository.SaleRepository) repository.SaleRepository {
		colliding.SaleRepository = inner
		return colliding
	}

	sale, err := f.saleUC.Create(context.Background(), sales.CreateSaleInput{
		SucursalID: "suc1",
		UserID:     "u1",
		Status:     "CONTADO",
		Lines:      []sales.SaleLineInput{line("p1", 2)},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), sale.Folio)
	assert.True(t, f.stockOf("p1").Equal(dec(8)),
		"el reintento revierte el intento fallido: el consumo es uno solo")
	assert.Zero(t, colliding.collisions, "la colisión simulada se agotó")
}

package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// SaleHandler maneja las peticiones HTTP de ventas, devoluciones y abonos (protegido).
type SaleHandler struct {
	saleUC    *sales.SaleUseCase
	paymentUC *sales.PaymentUseCase
	ticketUC  *sales.TicketUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(saleUC *sales.SaleUseCase, paymentUC *sales.PaymentUseCase, ticketUC *sales.TicketUseCase) *SaleHandler {
	return &SaleHandler{saleUC: saleUC, paymentUC: paymentUC, ticketUC: ticketUC}
}

// saleError traduce errores de dominio del ciclo de venta a respuestas HTTP.
func saleError(c *fiber.Ctx, err error) error {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: fmt.Sprintf("stock insuficiente para %q: disponible %s, solicitado %s", stockErr.ProductName, stockErr.Available.String(), stockErr.Requested.String()),
		})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: "una venta finalizada no puede volver a cotización"})
	case errors.Is(err, domain.ErrAlreadyReturned):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_RETURNED", Message: "la venta ya fue devuelta"})
	case errors.Is(err, domain.ErrNoPendingBalance):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "NO_PENDING_BALANCE", Message: "no hay saldo pendiente por abonar"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

// Create crea una venta o cotización; una venta final descuenta inventario.
// POST /api/venta
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sucursalID := in.SucursalID
	if sucursalID == "" {
		sucursalID = GetSucursalID(c)
	}

	sale, err := h.saleUC.Create(c.Context(), sales.CreateSaleInput{
		SucursalID:      sucursalID,
		CustomerID:      in.IDCliente,
		UserID:          userID,
		Status:          in.Estado,
		GeneralDiscount: in.DescuentoGeneral,
		AmountPaid:      in.Anticipo,
		Lines:           toLineInputs(in.Detalles),
	})
	if err != nil {
		return saleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSaleResponse(sale))
}

// Update edita una venta; la conversión cotización -> final descuenta inventario.
// PUT /api/venta/:id
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	var in dto.UpdateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	input := sales.UpdateSaleInput{
		SaleID:          id,
		UserID:          userID,
		Status:          in.Estado,
		CustomerID:      in.IDCliente,
		GeneralDiscount: in.DescuentoGeneral,
	}
	if in.Detalles != nil && in.Detalles.Present {
		input.Lines = toLineInputs(in.Detalles.Lines)
	}

	sale, err := h.saleUC.Update(c.Context(), input)
	if err != nil {
		return saleError(c, err)
	}
	return c.JSON(toSaleResponse(sale))
}

// GetByID obtiene una venta con sus líneas.
// GET /api/venta/:id
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	sale, err := h.saleUC.GetByID(c.Context(), id)
	if err != nil {
		return saleError(c, err)
	}
	return c.JSON(toSaleResponse(sale))
}

// List lista las ventas de una sucursal.
// GET /api/venta?sucursalId=&limit=&offset=
func (h *SaleHandler) List(c *fiber.Ctx) error {
	sucursalID := c.Query("sucursalId")
	if sucursalID == "" {
		sucursalID = GetSucursalID(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	list, err := h.saleUC.ListBySucursal(c.Context(), sucursalID, page.Limit, page.Offset)
	if err != nil {
		return saleError(c, err)
	}
	out := make([]*dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSaleResponse(s))
	}
	return c.JSON(out)
}

// Return registra la devolución de una venta y restaura el inventario.
// POST /api/venta/:id/devolucion
func (h *SaleHandler) Return(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	sale, err := h.saleUC.Return(c.Context(), id, userID)
	if err != nil {
		return saleError(c, err)
	}
	return c.JSON(fiber.Map{
		"mensaje": "venta devuelta",
		"venta":   toSaleResponse(sale),
	})
}

// Abono aplica un pago parcial a una venta a crédito.
// POST /api/venta/abono
func (h *SaleHandler) Abono(c *fiber.Ctx) error {
	var in dto.AbonoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.paymentUC.Apply(c.Context(), in.VentaID, in.Monto)
	if err != nil {
		return saleError(c, err)
	}
	return c.JSON(dto.AbonoResponse{
		Aplicado:       result.Applied,
		Restante:       result.Remaining,
		SaldoPendiente: result.PendingBalance,
	})
}

// AbonoGeneral reparte un pago entre las ventas a crédito del cliente (FIFO).
// POST /api/venta/abono-general
func (h *SaleHandler) AbonoGeneral(c *fiber.Ctx) error {
	var in dto.AbonoGeneralRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sucursalID := in.SucursalID
	if sucursalID == "" {
		sucursalID = GetSucursalID(c)
	}
	result, err := h.paymentUC.ApplyGeneral(c.Context(), in.ClienteID, sucursalID, in.Monto)
	if err != nil {
		return saleError(c, err)
	}
	out := dto.AbonoGeneralResponse{
		Aplicado: result.Applied,
		Restante: result.Remaining,
	}
	for _, a := range result.Applications {
		out.Aplicaciones = append(out.Aplicaciones, dto.AbonoAplicacion{
			VentaID:  a.SaleID,
			Folio:    a.Folio,
			Aplicado: a.Applied,
		})
	}
	return c.JSON(out)
}

// UltimoFolio devuelve el último consecutivo asignado en la sucursal.
// GET /api/venta/ultimoFolio?sucursalId=
func (h *SaleHandler) UltimoFolio(c *fiber.Ctx) error {
	sucursalID := c.Query("sucursalId")
	if sucursalID == "" {
		sucursalID = GetSucursalID(c)
	}
	folio, err := h.saleUC.LastFolio(c.Context(), sucursalID)
	if err != nil {
		return saleError(c, err)
	}
	return c.JSON(dto.FolioResponse{Consecutivo: folio})
}

// Ticket genera el ticket de la venta en PDF.
// GET /api/venta/:id/ticket
func (h *SaleHandler) Ticket(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	pdfBytes, err := h.ticketUC.Generate(c.Context(), id)
	if err != nil {
		return saleError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="ticket-%s.pdf"`, id))
	return c.Send(pdfBytes)
}

// ── mapeo DTO ─────────────────────────────────────────────────────────────────

func toLineInputs(in []dto.SaleLineRequest) []sales.SaleLineInput {
	lines := make([]sales.SaleLineInput, 0, len(in))
	for _, l := range in {
		lines = append(lines, sales.SaleLineInput{
			ProductID:       l.IDProducto,
			Quantity:        l.Cantidad,
			UnitPrice:       l.Precio,
			DiscountPercent: l.Descuento,
		})
	}
	return lines
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:                  s.ID,
		Folio:               s.Folio,
		SucursalID:          s.SucursalID,
		IDCliente:           s.CustomerID,
		Estado:              string(s.Status),
		Fecha:               s.Date.Format("2006-01-02T15:04:05Z07:00"),
		Subtotal:            s.Subtotal,
		Impuesto:            s.Tax,
		Total:               s.Total,
		DescuentoGeneral:    s.GeneralDiscount,
		DescuentoIndividual: s.IndividualDiscount,
		MontoPagado:         s.AmountPaid,
		SaldoPendiente:      s.PendingBalance,
		Activa:              s.Active,
	}
	if s.ReturnDate != nil {
		resp.FechaDevolucion = s.ReturnDate.Format("2006-01-02T15:04:05Z07:00")
	}
	for _, l := range s.Lines {
		resp.Detalles = append(resp.Detalles, dto.SaleLineResponse{
			ID:         l.ID,
			IDProducto: l.ProductID,
			Cantidad:   l.Quantity,
			Precio:     l.UnitPrice,
			Descuento:  l.DiscountPercent,
			Importe:    l.LineTotal,
			Activo:     l.Active,
		})
	}
	return resp
}

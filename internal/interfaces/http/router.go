package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backoffice/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SaleHandler *SaleHandler
	ProductUC   *usecase.ProductUseCase
	BranchUC    *usecase.BranchUseCase
	CustomerUC  *usecase.CustomerUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Health (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Sucursales (protegido; escritura solo admin)
	branches := protected.Group("/sucursales")
	branchHandler := NewBranchHandler(deps.BranchUC)
	branches.Get("/", branchHandler.List)
	branches.Get("/:id", branchHandler.GetByID)
	branches.Post("/", RequireRole("admin"), branchHandler.Create)
	branches.Put("/:id", RequireRole("admin"), branchHandler.Update)

	// Productos (protegido)
	products := protected.Group("/productos")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)

	// Clientes (protegido)
	customers := protected.Group("/clientes")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)

	// Ventas, devoluciones y abonos (protegido).
	// Las rutas fijas van antes de /:id para que Fiber no las capture como parámetro.
	ventas := protected.Group("/venta")
	ventas.Get("/ultimoFolio", deps.SaleHandler.UltimoFolio)
	ventas.Post("/abono", deps.SaleHandler.Abono)
	ventas.Post("/abono-general", deps.SaleHandler.AbonoGeneral)
	ventas.Post("/", deps.SaleHandler.Create)
	ventas.Get("/", deps.SaleHandler.List)
	ventas.Get("/:id", deps.SaleHandler.GetByID)
	ventas.Put("/:id", deps.SaleHandler.Update)
	ventas.Post("/:id/devolucion", deps.SaleHandler.Return)
	ventas.Get("/:id/ticket", deps.SaleHandler.Ticket)
}

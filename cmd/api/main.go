package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/application/usecase"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/mail"
	infrapdf "github.com/tu-usuario/pos-backoffice/internal/infrastructure/pdf"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/pos-backoffice/internal/interfaces/http"
	"github.com/tu-usuario/pos-backoffice/pkg/config"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	branchRepo := postgres.NewBranchRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Notificaciones: SMTP si está configurado, no-op si no.
	var notifier sales.NotificationPort = sales.NoopNotifier{}
	if cfg.SMTP.Enabled() {
		notifier = mail.NewSMTPNotifier(cfg.SMTP)
		log.Info().Str("host", cfg.SMTP.Host).Msg("notificaciones SMTP habilitadas")
	}

	saleUC := sales.NewSaleUseCase(txRunner, branchRepo, customerRepo, productRepo, saleRepo, notifier, log)
	paymentUC := sales.NewPaymentUseCase(txRunner, saleRepo, log)
	ticketUC := sales.NewTicketUseCase(saleRepo, branchRepo, customerRepo, productRepo, infrapdf.NewMarotoTicketGenerator())

	productUC := usecase.NewProductUseCase(productRepo)
	branchUC := usecase.NewBranchUseCase(branchRepo)
	customerUC := usecase.NewCustomerUseCase(customerRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS Backoffice API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		SaleHandler: httpRouter.NewSaleHandler(saleUC, paymentUC, ticketUC),
		ProductUC:   productUC,
		BranchUC:    branchUC,
		CustomerUC:  customerUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

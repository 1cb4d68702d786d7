package routes

import (
	"time"

	"github.com/anjiri1684/medical_consult/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Handlers struct {
	Consultations *handlers.ConsultationHandler
	Reviews       *handlers.ReviewHandler
	Payments      *handlers.PaymentHandler
	Internal      *handlers.InternalHandler
	PaymentSocket *handlers.PaymentSocketHandler
}

type Config struct {
	JWTSecret      string
	InternalAPIKey string
	AccessLog      bool
}

func NewApp(h Handlers, cfg Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Medical Consultation",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  handlers.ErrorHandler(log.Named("http")),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			TimeFormat: "2006-01-02 15:04:05",
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	PublicRoutes(app)
	ConsultationRoutes(app, h, cfg)
	PaymentRoutes(app, h, cfg)
	InternalRoutes(app, h, cfg)
	PaymentSocketRoutes(app, h)

	return app
}

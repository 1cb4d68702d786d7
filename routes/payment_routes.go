package routes

import (
	"github.com/anjiri1684/medical_consult/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, h Handlers, cfg Config) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments", middleware.Protected(cfg.JWTSecret))
	payments.Post("/create-order", h.Payments.CreateOrder)
	payments.Post("/verify", h.Payments.Verify)
}

func InternalRoutes(app *fiber.App, h Handlers, cfg Config) {
	internal := app.Group("/api/v1/internal", middleware.InternalKey(cfg.InternalAPIKey))
	internal.Put("/consultations/:id/paid", h.Internal.MarkPaid)
}

package routes

import (
	"github.com/anjiri1684/medical_consult/middleware"
	"github.com/gofiber/fiber/v2"
)

func ConsultationRoutes(app *fiber.App, h Handlers, cfg Config) {
	api := app.Group("/api/v1")

	consultations := api.Group("/consultations", middleware.Protected(cfg.JWTSecret))
	consultations.Post("", middleware.PatientRequired(), h.Consultations.Create)
	consultations.Get("/pending", middleware.RoleRequired(middleware.RoleDoctor, middleware.RoleAdmin), h.Consultations.ListPending)
	consultations.Get("/patient/:patientId", h.Consultations.ListByPatient)
	consultations.Get("/doctor/:doctorId", h.Consultations.ListByDoctor)
	consultations.Get("/:id", h.Consultations.Get)
	consultations.Put("/:id/accept", middleware.DoctorRequired(), h.Consultations.Accept)
	consultations.Put("/:id/prescription", middleware.DoctorRequired(), h.Consultations.AddPrescription)

	consultations.Post("/doctors/:doctorId/reviews", middleware.PatientRequired(), h.Reviews.Upsert)
	consultations.Get("/doctors/:doctorId/reviews", h.Reviews.ListByDoctor)
	consultations.Get("/doctors/:doctorId/rating", h.Reviews.Rating)
	consultations.Get("/reviews/patient/:patientId", h.Reviews.ListByPatient)
}

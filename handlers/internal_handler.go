package handlers

import (
	"github.com/anjiri1684/medical_consult/services"
	"github.com/gofiber/fiber/v2"
)

// InternalHandler serves calls from sibling services, not end users.
type InternalHandler struct {
	consultations *services.ConsultationService
}

func NewInternalHandler(consultations *services.ConsultationService) *InternalHandler {
	return &InternalHandler{consultations: consultations}
}

func (h *InternalHandler) MarkPaid(c *fiber.Ctx) error {
	consultation, err := h.consultations.MarkPaid(c.UserContext(), c.Params("id"), c.Query("paymentId"))
	if err != nil {
		return err
	}
	return c.JSON(consultation)
}

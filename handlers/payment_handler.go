package handlers

import (
	"github.com/anjiri1684/medical_consult/services"
	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrder responds with the gateway's order payload as received.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.payments.CreateOrder(c.UserContext(), req)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(order.Raw)
}

func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	var req services.VerifyPaymentInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	record, err := h.payments.VerifyPayment(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Payment verified successfully",
		"data":    record,
	})
}

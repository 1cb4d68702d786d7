package handlers

import (
	"fmt"

	"github.com/anjiri1684/medical_consult/middleware"
	"github.com/anjiri1684/medical_consult/models"
	"github.com/anjiri1684/medical_consult/services"
	"github.com/gofiber/fiber/v2"
)

type ConsultationHandler struct {
	consultations *services.ConsultationService
}

func NewConsultationHandler(consultations *services.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{consultations: consultations}
}

type CreateConsultationRequest struct {
	Specialization string `json:"specialization"`
	Description    string `json:"description"`
	DoctorID       string `json:"doctor_id"`
}

func (h *ConsultationHandler) Create(c *fiber.Ctx) error {
	patientID, _, _ := middleware.Claims(c)

	var req CreateConsultationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	consultation, err := h.consultations.Create(c.UserContext(), services.CreateConsultationInput{
		PatientID:      patientID,
		Specialization: req.Specialization,
		Description:    req.Description,
		DoctorID:       req.DoctorID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(consultation)
}

func (h *ConsultationHandler) Accept(c *fiber.Ctx) error {
	doctorID, _, _ := middleware.Claims(c)

	consultation, err := h.consultations.Accept(c.UserContext(), c.Params("id"), doctorID)
	if err != nil {
		return err
	}
	return c.JSON(consultation)
}

// AddPrescription is restricted to the consultation's assigned doctor.
func (h *ConsultationHandler) AddPrescription(c *fiber.Ctx) error {
	doctorID, _, _ := middleware.Claims(c)
	id := c.Params("id")

	var req services.PrescriptionInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	current, err := h.consultations.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !current.AssignedTo(doctorID) {
		return fmt.Errorf("%w: only the assigned doctor may prescribe", models.ErrForbidden)
	}

	consultation, err := h.consultations.AddPrescription(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(consultation)
}

func (h *ConsultationHandler) Get(c *fiber.Ctx) error {
	consultation, err := h.consultations.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(consultation)
}

func (h *ConsultationHandler) ListByPatient(c *fiber.Ctx) error {
	list, err := h.consultations.ListByPatient(c.UserContext(), c.Params("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *ConsultationHandler) ListByDoctor(c *fiber.Ctx) error {
	list, err := h.consultations.ListByDoctor(c.UserContext(), c.Params("doctorId"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *ConsultationHandler) ListPending(c *fiber.Ctx) error {
	list, err := h.consultations.ListPendingBySpecialization(c.UserContext(), c.Query("specialization"), c.Query("doctorId"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

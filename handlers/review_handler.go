package handlers

import (
	"github.com/anjiri1684/medical_consult/middleware"
	"github.com/anjiri1684/medical_consult/services"
	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	reviews *services.ReviewService
}

func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type ReviewRequest struct {
	ConsultationID string `json:"consultation_id"`
	Rating         int    `json:"rating"`
	Review         string `json:"review"`
}

func (h *ReviewHandler) Upsert(c *fiber.Ctx) error {
	patientID, _, _ := middleware.Claims(c)

	var req ReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	review, err := h.reviews.UpsertReview(c.UserContext(), services.ReviewInput{
		DoctorID:       c.Params("doctorId"),
		PatientID:      patientID,
		ConsultationID: req.ConsultationID,
		Rating:         req.Rating,
		Review:         req.Review,
	})
	if err != nil {
		return err
	}
	return c.JSON(review)
}

func (h *ReviewHandler) ListByDoctor(c *fiber.Ctx) error {
	reviews, err := h.reviews.ListByDoctor(c.UserContext(), c.Params("doctorId"))
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) ListByPatient(c *fiber.Ctx) error {
	reviews, err := h.reviews.ListByPatient(c.UserContext(), c.Params("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) Rating(c *fiber.Ctx) error {
	summary, err := h.reviews.RatingSummary(c.UserContext(), c.Params("doctorId"))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

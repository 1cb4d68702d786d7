package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anjiri1684/medical_consult/middleware"
	"github.com/anjiri1684/medical_consult/models"
)

// ConsultationClient marks consultations paid on a remote consultation service.
type ConsultationClient struct {
	baseURL     string
	internalKey string
	client      *http.Client
}

func NewConsultationClient(baseURL, internalKey string, timeout time.Duration) *ConsultationClient {
	return &ConsultationClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		internalKey: internalKey,
		client:      &http.Client{Timeout: timeout},
	}
}

func (c *ConsultationClient) MarkConsultationPaid(ctx context.Context, consultationID, paymentID string) error {
	endpoint := fmt.Sprintf("%s/api/v1/internal/consultations/%s/paid", c.baseURL, url.PathEscape(consultationID))
	if paymentID != "" {
		endpoint += "?paymentId=" + url.QueryEscape(paymentID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create mark-paid request: %w", err)
	}
	req.Header.Set(middleware.InternalKeyHeader, c.internalKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach consultation service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("consultation %s: %w", consultationID, models.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("consultation service returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

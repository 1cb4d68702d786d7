// Package clients talks to the collaborators this service does not own: the
// identity service for doctor profiles and, when deployed apart, the
// consultation service's internal mark-paid endpoint.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anjiri1684/medical_consult/models"
)

type UserClient struct {
	baseURL string
	client  *http.Client
}

func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	return &UserClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// GetUserByID fetches GET {base}/user/{id}. A 404 maps to models.ErrNotFound.
func (c *UserClient) GetUserByID(ctx context.Context, id string) (*models.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/user/%s", c.baseURL, url.PathEscape(id)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach user service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("user service returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var profile models.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	if profile.ID == "" {
		profile.ID = id
	}
	return &profile, nil
}

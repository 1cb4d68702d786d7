package clients

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/medical_consult/middleware"
	"github.com/anjiri1684/medical_consult/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserClientGetUserByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/user/d1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"d1","role":"doctor","consultationFee":750.5,"name":"Dr. Who"}`))
		case "/user/broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewUserClient(server.URL+"/", time.Second)

	profile, err := client.GetUserByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "doctor", profile.Role)
	require.NotNil(t, profile.ConsultationFee)
	assert.Equal(t, 750.5, *profile.ConsultationFee)

	_, err = client.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = client.GetUserByID(context.Background(), "broken")
	assert.ErrorContains(t, err, "boom")
}

func TestUserClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewUserClient(server.URL, 20*time.Millisecond).GetUserByID(context.Background(), "d1")
	assert.Error(t, err)
}

func TestConsultationClientMarkPaid(t *testing.T) {
	var gotPath, gotKey, gotPaymentID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotKey = r.Header.Get(middleware.InternalKeyHeader)
		gotPaymentID = r.URL.Query().Get("paymentId")
		if r.URL.Path == "/api/v1/internal/consultations/missing/paid" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewConsultationClient(server.URL, "internal-secret", time.Second)

	require.NoError(t, client.MarkConsultationPaid(context.Background(), "c1", "pay_1"))
	assert.Equal(t, "/api/v1/internal/consultations/c1/paid", gotPath)
	assert.Equal(t, "internal-secret", gotKey)
	assert.Equal(t, "pay_1", gotPaymentID)

	err := client.MarkConsultationPaid(context.Background(), "missing", "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConsultationClientPassesInternalKeyGuard(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	var marked string
	app.Put("/api/v1/internal/consultations/:id/paid", middleware.InternalKey("internal-secret"), func(c *fiber.Ctx) error {
		marked = c.Params("id")
		return c.SendStatus(fiber.StatusOK)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	base := "http://" + ln.Addr().String()
	require.NoError(t, NewConsultationClient(base, "internal-secret", time.Second).
		MarkConsultationPaid(context.Background(), "c1", "pay_1"))
	assert.Equal(t, "c1", marked)

	err = NewConsultationClient(base, "wrong-key", time.Second).
		MarkConsultationPaid(context.Background(), "c2", "pay_2")
	assert.Error(t, err)
	assert.Equal(t, "c1", marked)
}

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/medical_consult/events"
	"github.com/anjiri1684/medical_consult/handlers"
	"github.com/anjiri1684/medical_consult/jobs"
	"github.com/anjiri1684/medical_consult/middleware"
	"github.com/anjiri1684/medical_consult/payments"
	"github.com/anjiri1684/medical_consult/repository"
	"github.com/anjiri1684/medical_consult/services"
	"github.com/anjiri1684/medical_consult/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testJWTSecret   = "jwt-test-secret"
	testInternalKey = "internal-test-key"
	testKeySecret   = "rzp-test-secret"
)

type stubGateway struct{}

func (stubGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string) (*payments.Order, error) {
	raw, _ := json.Marshal(map[string]any{"id": "order_" + receipt, "amount": amountMinorUnits, "currency": currency, "receipt": receipt})
	return &payments.Order{ID: "order_" + receipt, Raw: raw}, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := repository.NewMemoryStore()

	broker := events.NewMemoryBroker(events.DefaultDeliveryPolicy(), log)
	t.Cleanup(func() { _ = broker.Close() })
	dispatcher := jobs.NewDispatcher(1, 16, time.Second, log)
	t.Cleanup(func() { _ = dispatcher.Shutdown(context.Background()) })

	consultations := services.NewConsultationService(store.Consultations(), services.NewFeeResolver(nil, 500, log), log)
	reviews := services.NewReviewService(store.Reviews(), store.Consultations(), log)
	paymentSvc := services.NewPaymentService(stubGateway{}, payments.NewSignatureVerifier(testKeySecret), store.Payments(),
		broker, nil, dispatcher, services.PaymentConfig{Currency: "INR", GatewayTimeout: time.Second}, log)

	return NewApp(Handlers{
		Consultations: handlers.NewConsultationHandler(consultations),
		Reviews:       handlers.NewReviewHandler(reviews),
		Payments:      handlers.NewPaymentHandler(paymentSvc),
		Internal:      handlers.NewInternalHandler(consultations),
		PaymentSocket: handlers.NewPaymentSocketHandler(websocket.NewHub(log), testJWTSecret, log),
	}, Config{JWTSecret: testJWTSecret, InternalAPIKey: testInternalKey}, log)
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func call(t *testing.T, app *fiber.App, method, path, bearer string, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: raw}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp := call(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "ok", resp.decode(t)["status"])
}

func TestAuthentication(t *testing.T) {
	app := newTestApp(t)

	resp := call(t, app, http.MethodGet, "/api/v1/consultations/c1", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = call(t, app, http.MethodGet, "/api/v1/consultations/c1", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = call(t, app, http.MethodPost, "/api/v1/consultations", token(t, "d1", middleware.RoleDoctor),
		map[string]string{"specialization": "CARDIOLOGY"})
	assert.Equal(t, http.StatusForbidden, resp.status)
}

func TestConsultationFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)
	patient := token(t, "p1", middleware.RolePatient)
	doctor := token(t, "d1", middleware.RoleDoctor)
	otherDoctor := token(t, "d2", middleware.RoleDoctor)

	resp := call(t, app, http.MethodPost, "/api/v1/consultations", patient,
		map[string]string{"specialization": "CARDIOLOGY", "description": "palpitations"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	created := resp.decode(t)
	id := created["id"].(string)
	assert.Equal(t, "PENDING", created["status"])
	assert.Equal(t, "p1", created["patient_id"])

	resp = call(t, app, http.MethodGet, "/api/v1/consultations/pending?specialization=CARDIOLOGY", doctor, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var pending []map[string]any
	require.NoError(t, json.Unmarshal(resp.body, &pending))
	assert.Len(t, pending, 1)

	resp = call(t, app, http.MethodPut, "/api/v1/consultations/"+id+"/accept", doctor, nil)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "ACCEPTED", resp.decode(t)["status"])

	resp = call(t, app, http.MethodPut, "/api/v1/consultations/"+id+"/accept", otherDoctor, nil)
	assert.Equal(t, http.StatusConflict, resp.status)
	conflict := resp.decode(t)
	assert.Equal(t, "error", conflict["status"])
	assert.Equal(t, float64(http.StatusConflict), conflict["code"])

	prescription := map[string]any{"medicine_ids": []string{"m1", "m2"}, "precautions": "rest", "doctor_notes": "follow up"}
	resp = call(t, app, http.MethodPut, "/api/v1/consultations/"+id+"/prescription", otherDoctor, prescription)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = call(t, app, http.MethodPut, "/api/v1/consultations/"+id+"/prescription", doctor, prescription)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	prescribed := resp.decode(t)
	assert.Equal(t, "PAYMENT_PENDING", prescribed["status"])
	assert.Equal(t, 500.0, prescribed["consultation_fee"])

	resp = call(t, app, http.MethodGet, "/api/v1/consultations/"+id, patient, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Nil(t, resp.decode(t)["medicine_ids"])

	resp = call(t, app, http.MethodPost, "/api/v1/payments/create-order", patient,
		map[string]any{"referenceId": id, "paymentType": "CONSULTATION", "amount": 500})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	order := resp.decode(t)
	orderID := order["id"].(string)
	assert.Equal(t, float64(50000), order["amount"])

	signer := payments.NewSignatureVerifier(testKeySecret)
	resp = call(t, app, http.MethodPost, "/api/v1/payments/verify", patient, map[string]string{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = call(t, app, http.MethodPost, "/api/v1/payments/verify", patient, map[string]string{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  signer.Sign(orderID, "pay_1"),
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "success", resp.decode(t)["status"])

	resp = call(t, app, http.MethodPut, "/api/v1/internal/consultations/"+id+"/paid?paymentId=pay_1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = call(t, app, http.MethodPut, "/api/v1/internal/consultations/"+id+"/paid?paymentId=pay_1", "", nil,
		middleware.InternalKeyHeader, testInternalKey)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "PAID", resp.decode(t)["status"])

	resp = call(t, app, http.MethodGet, "/api/v1/consultations/"+id, patient, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []any{"m1", "m2"}, resp.decode(t)["medicine_ids"])

	resp = call(t, app, http.MethodPost, "/api/v1/consultations/doctors/d1/reviews", patient,
		map[string]any{"consultation_id": id, "rating": 4, "review": "thorough"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = call(t, app, http.MethodPost, "/api/v1/consultations/doctors/d1/reviews", patient,
		map[string]any{"consultation_id": id, "rating": 9})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = call(t, app, http.MethodGet, "/api/v1/consultations/doctors/d1/rating", patient, nil)
	require.Equal(t, http.StatusOK, resp.status)
	rating := resp.decode(t)
	assert.Equal(t, float64(1), rating["total_reviews"])
	assert.Equal(t, 4.0, rating["average_rating"])

	resp = call(t, app, http.MethodGet, "/api/v1/consultations/missing", patient, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestDirectBookingNeedsAcceptBeforePrescription(t *testing.T) {
	app := newTestApp(t)
	patient := token(t, "p1", middleware.RolePatient)
	doctor := token(t, "d1", middleware.RoleDoctor)

	resp := call(t, app, http.MethodPost, "/api/v1/consultations", patient,
		map[string]string{"specialization": "CARDIOLOGY", "doctor_id": "d1"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	id := resp.decode(t)["id"].(string)

	prescription := map[string]any{"medicine_ids": []string{"m1"}, "precautions": "rest"}
	resp = call(t, app, http.MethodPut, "/api/v1/consultations/"+id+"/prescription", doctor, prescription)
	assert.Equal(t, http.StatusConflict, resp.status, string(resp.body))

	resp = call(t, app, http.MethodGet, "/api/v1/consultations/"+id, patient, nil)
	require.Equal(t, http.StatusOK, resp.status)
	current := resp.decode(t)
	assert.Equal(t, "PENDING", current["status"])
	assert.Nil(t, current["consultation_fee"])

	resp = call(t, app, http.MethodPut, "/api/v1/consultations/"+id+"/accept", doctor, nil)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	resp = call(t, app, http.MethodPut, "/api/v1/consultations/"+id+"/prescription", doctor, prescription)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "PAYMENT_PENDING", resp.decode(t)["status"])
}

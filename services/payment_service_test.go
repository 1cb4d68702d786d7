package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/medical_consult/events"
	"github.com/anjiri1684/medical_consult/models"
	"github.com/anjiri1684/medical_consult/payments"
	"github.com/anjiri1684/medical_consult/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testKeySecret = "rzp_test_secret"

type paymentFixture struct {
	svc       *PaymentService
	gateway   *fakeGateway
	ledger    repository.PaymentRepository
	publisher *capturePublisher
	notifier  *fakeNotifier
	runner    *syncRunner
	signer    *payments.SignatureVerifier
}

func newPaymentFixture(t *testing.T) paymentFixture {
	t.Helper()
	f := paymentFixture{
		gateway:   &fakeGateway{},
		ledger:    repository.NewMemoryStore().Payments(),
		publisher: &capturePublisher{},
		notifier:  &fakeNotifier{},
		runner:    &syncRunner{},
		signer:    payments.NewSignatureVerifier(testKeySecret),
	}
	f.svc = NewPaymentService(f.gateway, f.signer, f.ledger, f.publisher, f.notifier, f.runner,
		PaymentConfig{Currency: "INR", GatewayTimeout: time.Second}, zaptest.NewLogger(t))
	return f
}

func (f paymentFixture) createOrder(t *testing.T, referenceID string, paymentType models.PaymentType, amount float64) *payments.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{ReferenceID: referenceID, PaymentType: paymentType, Amount: amount})
	require.NoError(t, err)
	return order
}

func (f paymentFixture) verifyInput(orderID, paymentID string) VerifyPaymentInput {
	return VerifyPaymentInput{
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		Signature:        f.signer.Sign(orderID, paymentID),
	}
}

func TestCreateOrder(t *testing.T) {
	f := newPaymentFixture(t)

	order := f.createOrder(t, "c1", models.PaymentTypeConsultation, 500.0)

	require.Len(t, f.gateway.calls, 1)
	assert.Equal(t, gatewayCall{amount: 50000, currency: "INR", receipt: "c1"}, f.gateway.calls[0])

	var raw map[string]any
	require.NoError(t, json.Unmarshal(order.Raw, &raw))
	assert.Equal(t, order.ID, raw["id"])

	record, err := f.ledger.GetByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCreated, record.Status)
	assert.Equal(t, "c1", record.ReferenceID)
	assert.Equal(t, models.PaymentTypeConsultation, record.PaymentType)
	assert.Equal(t, 500.0, record.Amount)
	assert.Equal(t, "INR", record.Currency)
	assert.Nil(t, record.GatewayPaymentID)
}

func TestCreateOrderFailures(t *testing.T) {
	t.Run("invalid input never reaches the gateway", func(t *testing.T) {
		f := newPaymentFixture(t)
		for _, in := range []CreateOrderInput{
			{ReferenceID: "", PaymentType: models.PaymentTypeConsultation, Amount: 10},
			{ReferenceID: "c1", PaymentType: " ", Amount: 10},
			{ReferenceID: "c1", PaymentType: models.PaymentTypeConsultation, Amount: 0},
			{ReferenceID: "c1", PaymentType: models.PaymentTypeConsultation, Amount: -5},
		} {
			_, err := f.svc.CreateOrder(context.Background(), in)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		}
		assert.Empty(t, f.gateway.calls)
	})

	t.Run("gateway failure writes nothing", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.gateway.err = errors.New("connection refused")

		_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{ReferenceID: "c1", PaymentType: "CONSULTATION", Amount: 10})
		assert.ErrorIs(t, err, models.ErrGateway)

		expired, err := f.ledger.ExpireStale(context.Background(), time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, expired, "no ledger row should exist")
	})
}

func TestVerifyPaymentConsultation(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	order := f.createOrder(t, "c1", models.PaymentTypeConsultation, 500.0)

	record, err := f.svc.VerifyPayment(ctx, f.verifyInput(order.ID, "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, record.Status)
	require.NotNil(t, record.GatewayPaymentID)
	assert.Equal(t, "pay_1", *record.GatewayPaymentID)

	assert.Equal(t, []string{"publish-payment-completed", "notify-consultation-paid"}, f.runner.names)
	require.Len(t, f.publisher.payloads, 1)
	assert.Equal(t, events.PaymentSuccessTopic, f.publisher.topics[0])

	event, err := events.DecodePaymentCompleted(f.publisher.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, events.PaymentCompleted{
		ReferenceID:      "c1",
		PaymentType:      models.PaymentTypeConsultation,
		Amount:           500.0,
		GatewayPaymentID: "pay_1",
	}, *event)
	assert.Equal(t, []notifyCall{{"c1", "pay_1"}}, f.notifier.calls)
}

func TestVerifyPaymentSubscriptionSkipsDirectNotify(t *testing.T) {
	f := newPaymentFixture(t)
	order := f.createOrder(t, "sub_1", "subscription", 999)

	_, err := f.svc.VerifyPayment(context.Background(), f.verifyInput(order.ID, "pay_1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"publish-payment-completed"}, f.runner.names)
	assert.Empty(t, f.notifier.calls)
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	order := f.createOrder(t, "c1", models.PaymentTypeConsultation, 500.0)

	in := f.verifyInput(order.ID, "pay_1")
	in.GatewayPaymentID = "pay_2"

	_, err := f.svc.VerifyPayment(ctx, in)
	assert.ErrorIs(t, err, models.ErrInvalidSignature)

	record, err := f.ledger.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCreated, record.Status)
	assert.Nil(t, record.GatewayPaymentID)
	assert.Empty(t, f.runner.names)
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.VerifyPayment(context.Background(), f.verifyInput("order_unknown", "pay_1"))
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, f.runner.names)
}

func TestVerifyPaymentRetryRefiresNotifications(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	order := f.createOrder(t, "c1", models.PaymentTypeConsultation, 500.0)

	_, err := f.svc.VerifyPayment(ctx, f.verifyInput(order.ID, "pay_1"))
	require.NoError(t, err)
	record, err := f.svc.VerifyPayment(ctx, f.verifyInput(order.ID, "pay_1"))
	require.NoError(t, err)

	assert.Equal(t, models.PaymentSuccess, record.Status)
	assert.Len(t, f.publisher.payloads, 2)
	assert.Len(t, f.notifier.calls, 2)
}

func TestVerifyPaymentSucceedsWhenDownstreamFails(t *testing.T) {
	f := newPaymentFixture(t)
	f.publisher.err = errors.New("broker unavailable")
	f.notifier.err = errors.New("consultation service unavailable")
	order := f.createOrder(t, "c1", models.PaymentTypeConsultation, 500.0)

	record, err := f.svc.VerifyPayment(context.Background(), f.verifyInput(order.ID, "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, record.Status)
	assert.Len(t, f.runner.errors, 2)
}

func TestVerifyPaymentLateCaptureOnExpiredOrder(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	order := f.createOrder(t, "c1", models.PaymentTypeConsultation, 500.0)

	_, err := f.ledger.ExpireStale(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)

	record, err := f.svc.VerifyPayment(ctx, f.verifyInput(order.ID, "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, record.Status)
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anjiri1684/medical_consult/jobs"
	"github.com/anjiri1684/medical_consult/models"
	"github.com/anjiri1684/medical_consult/payments"
	"go.uber.org/zap"
)

type fakeProfiles struct {
	profiles map[string]*models.UserProfile
	err      error
	calls    int
}

func (f *fakeProfiles) GetUserByID(ctx context.Context, id string) (*models.UserProfile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[id], nil
}

func feePtr(v float64) *float64 { return &v }

type gatewayCall struct {
	amount   int64
	currency string
	receipt  string
}

type fakeGateway struct {
	mu    sync.Mutex
	seq   int
	err   error
	calls []gatewayCall
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string) (*payments.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, gatewayCall{amount: amountMinorUnits, currency: currency, receipt: receipt})
	if g.err != nil {
		return nil, g.err
	}
	g.seq++
	id := fmt.Sprintf("order_%d", g.seq)
	raw, _ := json.Marshal(map[string]any{"id": id, "amount": amountMinorUnits, "currency": currency, "receipt": receipt})
	return &payments.Order{ID: id, Raw: raw}, nil
}

type capturePublisher struct {
	mu       sync.Mutex
	err      error
	topics   []string
	payloads [][]byte
}

func (p *capturePublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

type notifyCall struct {
	consultationID string
	paymentID      string
}

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	calls []notifyCall
}

func (n *fakeNotifier) MarkConsultationPaid(ctx context.Context, consultationID, paymentID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{consultationID, paymentID})
	return n.err
}

// syncRunner runs background tasks inline and, like the real dispatcher,
// swallows their errors.
type syncRunner struct {
	names  []string
	errors []error
}

func (r *syncRunner) Go(name string, task jobs.Task, fields ...zap.Field) bool {
	r.names = append(r.names, name)
	if err := task(context.Background()); err != nil {
		r.errors = append(r.errors, err)
	}
	return true
}

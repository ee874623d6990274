package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/api"
	"github.com/Farizu224/vending-machine-web/internal/auth"
	"github.com/Farizu224/vending-machine-web/internal/cart"
	"github.com/Farizu224/vending-machine-web/internal/consult"
	"github.com/Farizu224/vending-machine-web/internal/domain"
	"github.com/Farizu224/vending-machine-web/internal/payment"
	"github.com/Farizu224/vending-machine-web/internal/sensor"
	"github.com/Farizu224/vending-machine-web/internal/session"
)

// mockBackend stands in for the remote API across every handler.
type mockBackend struct {
	products map[int64]domain.Product

	diagnosisSteps []domain.DiagnosisStep
	diagnosisCalls int

	paySession *domain.PaymentSession
	checkouts  []domain.CreateTransactionRequest

	loginBody map[string]interface{}
	loginErr  error

	initializeCalls int
}

func (m *mockBackend) Products(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockBackend) SearchProducts(_ context.Context, query string) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		if p.Name == query {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockBackend) ProductByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, &api.Error{Kind: api.KindRemote, Status: http.StatusNotFound, Message: "product not found"}
	}
	return &p, nil
}

func (m *mockBackend) InitializeDiagnosis(context.Context) error {
	m.initializeCalls++
	return nil
}

func (m *mockBackend) StartDiagnosis(context.Context) (*domain.DiagnosisStart, error) {
	return &domain.DiagnosisStart{
		SessionID: "diag-1",
		Question: domain.Question{
			ID:   "q1",
			Text: "Apa keluhan utama Anda?",
			Options: []domain.Option{
				{ID: "opt-tired", Text: "Mudah lelah"},
				{ID: "opt-sleep", Text: "Sulit tidur"},
			},
		},
	}, nil
}

func (m *mockBackend) Diagnose(context.Context, domain.DiagnosisAnswer) (*domain.DiagnosisStep, error) {
	if m.diagnosisCalls >= len(m.diagnosisSteps) {
		return nil, &api.Error{Kind: api.KindRemote, Status: http.StatusInternalServerError, Message: "no scripted step"}
	}
	step := m.diagnosisSteps[m.diagnosisCalls]
	m.diagnosisCalls++
	return &step, nil
}

func (m *mockBackend) CreateTransaction(_ context.Context, req domain.CreateTransactionRequest) (*domain.PaymentSession, error) {
	m.checkouts = append(m.checkouts, req)
	if m.paySession == nil {
		return &domain.PaymentSession{OrderID: "ORDER-1", SnapToken: "snap-token"}, nil
	}
	return m.paySession, nil
}

func (m *mockBackend) TransactionDetails(_ context.Context, orderID string) (*domain.Transaction, error) {
	return &domain.Transaction{OrderID: orderID, Status: domain.StatusPending}, nil
}

func (m *mockBackend) LatestSensorReading(context.Context) (*domain.SensorReading, error) {
	return &domain.SensorReading{DeviceID: "vend-1", Temperature: 27.5, Humidity: 61.0}, nil
}

func (m *mockBackend) Login(context.Context, string, string) (map[string]interface{}, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginBody, nil
}

func (m *mockBackend) Register(context.Context, domain.RegisterRequest) (map[string]interface{}, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginBody, nil
}

// testServer drives the router the way a browser would, carrying the session
// cookie between requests.
type testServer struct {
	t       *testing.T
	router  http.Handler
	backend *mockBackend
	manager *auth.Manager
	cookie  *http.Cookie
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	backend := &mockBackend{
		products: map[int64]domain.Product{
			1: {ID: 1, Name: "Jamu Kunyit Asam", Price: 15000, Stock: 4},
			2: {ID: 2, Name: "Jamu Beras Kencur", Price: 12000, Stock: 2},
			3: {ID: 3, Name: "Jamu Temulawak", Price: 18000, Stock: 0},
		},
		loginBody: map[string]interface{}{
			"access_token": "tok-1",
			"user":         map[string]interface{}{"name": "Sari", "email": "sari@example.com"},
		},
	}

	registry := session.NewRegistry(session.Options{
		NewCart:    func() *cart.Store { return cart.NewStore(nil) },
		NewConsult: func() *consult.Session { return consult.NewSession(backend, nil) },
	})
	t.Cleanup(func() { _ = registry.Close() })

	manager := auth.NewManager(backend, auth.NewMemoryStore(), zap.NewNop())
	tracker := payment.NewTracker(backend, time.Minute, 1, zap.NewNop())
	t.Cleanup(tracker.Wait)

	trackCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	handlers := Handlers{
		Products: NewProductHandler(backend),
		Cart:     NewCartHandler(backend, registry),
		Consult:  NewConsultHandler(registry, backend),
		Auth:     NewAuthHandler(manager),
		Payment: NewPaymentHandler(trackCtx, payment.NewService(backend, zap.NewNop()),
			tracker, manager, registry, nil, zap.NewNop()),
		Sensor: NewSensorHandler(sensor.NewPoller(backend, time.Minute, nil, zap.NewNop())),
	}

	return &testServer{
		t:       t,
		router:  NewRouter(handlers, registry, zap.NewNop(), 5*time.Second),
		backend: backend,
		manager: manager,
	}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			s.cookie = c
		}
	}
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/guonaihong/gout"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

// Products lists the full catalog.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	raw, err := c.do(ctx, http.MethodGet, "/products", nil, nil)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// SearchProducts lists products matching the query.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	raw, err := c.do(ctx, http.MethodGet, "/products", gout.H{"search": query}, nil)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// ProductByID fetches a single product. Concurrent fetches for the same id
// collapse into one upstream request.
func (c *Client) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := c.products.Do(fmt.Sprintf("product:%d", id), func() (interface{}, error) {
		raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, nil)
		if err != nil {
			return nil, err
		}
		var product domain.Product
		if err := json.Unmarshal(raw, &product); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		return &product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// InitializeDiagnosis reseeds the expert-system knowledge base. Only needed
// when the backend starts with an empty rule set.
func (c *Client) InitializeDiagnosis(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/expert-system/initialize", nil, nil)
	return err
}

// StartDiagnosis opens an expert-system session and returns its first
// question.
func (c *Client) StartDiagnosis(ctx context.Context) (*domain.DiagnosisStart, error) {
	raw, err := c.do(ctx, http.MethodGet, "/expert-system/start", nil, nil)
	if err != nil {
		return nil, err
	}
	var start domain.DiagnosisStart
	if err := json.Unmarshal(raw, &start); err != nil {
		return nil, fmt.Errorf("decode diagnosis start: %w", err)
	}
	return &start, nil
}

// Diagnose submits an answer and returns the next step, either a question or
// a terminal recommendation.
func (c *Client) Diagnose(ctx context.Context, answer domain.DiagnosisAnswer) (*domain.DiagnosisStep, error) {
	raw, err := c.do(ctx, http.MethodPost, "/expert-system/diagnose", nil, answer)
	if err != nil {
		return nil, err
	}
	var step domain.DiagnosisStep
	if err := json.Unmarshal(raw, &step); err != nil {
		return nil, fmt.Errorf("decode diagnosis step: %w", err)
	}
	return &step, nil
}

// CreateTransaction registers a payment attempt and returns the widget
// token.
func (c *Client) CreateTransaction(ctx context.Context, req domain.CreateTransactionRequest) (*domain.PaymentSession, error) {
	raw, err := c.do(ctx, http.MethodPost, "/payments/create", nil, req)
	if err != nil {
		return nil, err
	}
	var session domain.PaymentSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode payment session: %w", err)
	}
	return &session, nil
}

// TransactionStatus fetches the bare status for an order.
func (c *Client) TransactionStatus(ctx context.Context, orderID string) (*domain.Transaction, error) {
	return c.transaction(ctx, "/payments/status/"+orderID)
}

// TransactionDetails fetches the full transaction record for an order.
func (c *Client) TransactionDetails(ctx context.Context, orderID string) (*domain.Transaction, error) {
	return c.transaction(ctx, "/payments/transaction/"+orderID)
}

func (c *Client) transaction(ctx context.Context, path string) (*domain.Transaction, error) {
	raw, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var tx domain.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &tx, nil
}

// LatestSensorReading fetches the most recent vending machine measurement.
func (c *Client) LatestSensorReading(ctx context.Context) (*domain.SensorReading, error) {
	raw, err := c.do(ctx, http.MethodGet, "/payments/sensor-data/latest", nil, nil)
	if err != nil {
		return nil, err
	}
	var reading domain.SensorReading
	if err := json.Unmarshal(raw, &reading); err != nil {
		return nil, fmt.Errorf("decode sensor reading: %w", err)
	}
	return &reading, nil
}

// Login authenticates with the backend. The body is returned raw because
// token and profile appear under varying shapes; the auth manager normalizes
// it.
func (c *Client) Login(ctx context.Context, email, password string) (map[string]interface{}, error) {
	raw, err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return decodeBody(raw)
}

// Register creates an account; same response-shape leniency as Login.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (map[string]interface{}, error) {
	raw, err := c.do(ctx, http.MethodPost, "/auth/register", nil, req)
	if err != nil {
		return nil, err
	}
	return decodeBody(raw)
}

func decodeBody(raw []byte) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	return body, nil
}

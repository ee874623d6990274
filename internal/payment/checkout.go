package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

var (
	// ErrIncompleteForm means a required buyer field is missing. Checked
	// before any network call.
	ErrIncompleteForm = errors.New("name, email and phone are required")

	// ErrEmptyCart means there is nothing to check out.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")
)

// TransactionClient is the slice of the remote API checkout needs.
type TransactionClient interface {
	CreateTransaction(ctx context.Context, req domain.CreateTransactionRequest) (*domain.PaymentSession, error)
}

// CheckoutForm is the buyer data collected before payment.
type CheckoutForm struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
}

// Service builds transactions from the cart and hands them to the payment
// widget.
type Service struct {
	api TransactionClient
	log *zap.Logger
}

func NewService(api TransactionClient, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: api, log: log}
}

// Checkout validates the form, snapshots the cart into a transaction payload
// and creates the payment session. The cart itself is not touched; it is
// cleared only by the success callback.
func (s *Service) Checkout(ctx context.Context, form CheckoutForm, items []domain.CartItem) (*domain.PaymentSession, error) {
	if form.CustomerName == "" || form.CustomerEmail == "" || form.CustomerPhone == "" {
		return nil, ErrIncompleteForm
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	req := domain.CreateTransactionRequest{
		CustomerName:   form.CustomerName,
		CustomerEmail:  form.CustomerEmail,
		CustomerPhone:  form.CustomerPhone,
		Items:          make([]domain.TransactionItem, 0, len(items)),
		IdempotencyKey: uuid.New().String(),
	}
	for _, item := range items {
		req.Items = append(req.Items, domain.TransactionItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
		req.TotalAmount += item.Subtotal()
	}

	session, err := s.api.CreateTransaction(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.log.Info("transaction created",
		zap.String("order_id", session.OrderID),
		zap.Int64("gross_amount", req.TotalAmount),
		zap.Int("line_items", len(req.Items)))
	return session, nil
}

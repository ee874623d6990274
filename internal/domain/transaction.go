package domain

import "time"

// TransactionStatus mirrors the payment gateway status lifecycle as reported
// by the backend.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusSettlement TransactionStatus = "settlement"
	StatusCapture    TransactionStatus = "capture"
	StatusDeny       TransactionStatus = "deny"
	StatusCancel     TransactionStatus = "cancel"
	StatusExpire     TransactionStatus = "expire"
	StatusFailure    TransactionStatus = "failure"
)

// IsTerminal reports whether the status can no longer change, so polling may
// stop.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusSettlement, StatusCapture, StatusDeny, StatusCancel, StatusExpire, StatusFailure:
		return true
	}
	return false
}

// IsPaid reports whether the transaction was successfully paid.
func (s TransactionStatus) IsPaid() bool {
	return s == StatusSettlement || s == StatusCapture
}

// String representation (for logging)
func (s TransactionStatus) String() string {
	return string(s)
}

// TransactionItem is one purchased line inside a transaction.
type TransactionItem struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Transaction is a payment attempt identified by its order id. The backend
// mirrors the gateway's status for it.
type Transaction struct {
	OrderID       string            `json:"orderId"`
	Status        TransactionStatus `json:"status"`
	GrossAmount   int64             `json:"grossAmount"`
	Items         []TransactionItem `json:"items,omitempty"`
	CustomerName  string            `json:"customerName,omitempty"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
	CustomerPhone string            `json:"customerPhone,omitempty"`
	CreatedAt     time.Time         `json:"createdAt,omitempty"`
}

// PaymentSession is the backend response to creating a transaction: the order
// id plus the token that opens the hosted payment widget.
type PaymentSession struct {
	OrderID   string `json:"orderId"`
	SnapToken string `json:"snapToken"`
}

// CreateTransactionRequest is the checkout payload. IdempotencyKey guards
// against double submission of the same checkout attempt.
type CreateTransactionRequest struct {
	CustomerName   string            `json:"customerName"`
	CustomerEmail  string            `json:"customerEmail"`
	CustomerPhone  string            `json:"customerPhone"`
	Items          []TransactionItem `json:"items"`
	TotalAmount    int64             `json:"totalAmount"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
}

package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/auth"
	"github.com/Farizu224/vending-machine-web/internal/payment"
	"github.com/Farizu224/vending-machine-web/internal/session"
)

type PaymentHandler struct {
	checkout *payment.Service
	tracker  *payment.Tracker
	manager  *auth.Manager
	registry *session.Registry
	notifier payment.Notifier
	log      *zap.Logger

	// trackCtx outlives requests so status polling survives the response
	trackCtx context.Context
}

func NewPaymentHandler(
	trackCtx context.Context,
	checkout *payment.Service,
	tracker *payment.Tracker,
	manager *auth.Manager,
	registry *session.Registry,
	notifier payment.Notifier,
	log *zap.Logger,
) *PaymentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentHandler{
		checkout: checkout,
		tracker:  tracker,
		manager:  manager,
		registry: registry,
		notifier: notifier,
		log:      log,
		trackCtx: trackCtx,
	}
}

func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	if !h.manager.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "login required before checkout")
		return
	}

	var form payment.CheckoutForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	paySession, err := h.checkout.Checkout(r.Context(), form, entry.Cart.Items())
	if err != nil {
		respondFailure(w, err)
		return
	}

	h.tracker.Track(h.trackCtx, paySession.OrderID)
	respondJSON(w, http.StatusCreated, paySession)
}

// Callback applies a payment widget callback to the browsing session. A
// success clears the cart and the cleared cart is written through to the
// session cache.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	var result payment.Result
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch result.Event {
	case payment.EventSuccess, payment.EventPending, payment.EventError, payment.EventClose:
	default:
		respondError(w, http.StatusBadRequest, "unknown payment event")
		return
	}

	dispatcher := payment.NewDispatcher(entry.Cart, h.notifier, h.log)
	outcome := dispatcher.Handle(result)
	if outcome.CartCleared {
		h.registry.Persist(r.Context(), entry)
	}
	respondJSON(w, http.StatusOK, outcome)
}

func (h *PaymentHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	tx, err := h.tracker.Status(r.Context(), orderID)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

package payment

import (
	"fmt"

	"go.uber.org/zap"
)

// Event is a callback fired by the hosted payment widget.
type Event string

const (
	EventSuccess Event = "success"
	EventPending Event = "pending"
	EventError   Event = "error"
	EventClose   Event = "close"
)

// Result is the widget callback payload relayed by the view layer.
type Result struct {
	OrderID string `json:"orderId"`
	Event   Event  `json:"event"`
}

// Outcome tells the view what to do after a widget callback: whether the
// cart was cleared, where to navigate, and what notice to show.
type Outcome struct {
	CartCleared bool   `json:"cartCleared"`
	RedirectTo  string `json:"redirectTo,omitempty"`
	Notice      string `json:"notice,omitempty"`
}

// CartClearer clears the buyer's cart after a successful payment.
type CartClearer interface {
	Clear()
}

// Notifier publishes payment events for interested views.
type Notifier interface {
	Publish(topic string, args ...interface{})
}

// TopicEvent is published for every widget callback with the Result argument.
const TopicEvent = "payment:event"

// Dispatcher reacts to widget callbacks. The widget's internals are owned by
// the gateway vendor; only the reactions live here.
type Dispatcher struct {
	cart     CartClearer
	notifier Notifier
	log      *zap.Logger
}

func NewDispatcher(cart CartClearer, notifier Notifier, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{cart: cart, notifier: notifier, log: log}
}

// Handle applies the reaction for one widget callback: success clears the
// cart and navigates to the status view, pending only navigates, error and
// close surface a notice and keep the cart intact for retry.
func (d *Dispatcher) Handle(result Result) Outcome {
	d.log.Info("payment callback",
		zap.String("order_id", result.OrderID),
		zap.String("event", string(result.Event)))
	if d.notifier != nil {
		d.notifier.Publish(TopicEvent, result)
	}

	statusPath := fmt.Sprintf("/transaction/%s", result.OrderID)
	switch result.Event {
	case EventSuccess:
		if d.cart != nil {
			d.cart.Clear()
		}
		return Outcome{CartCleared: true, RedirectTo: statusPath}
	case EventPending:
		return Outcome{RedirectTo: statusPath}
	case EventError:
		return Outcome{Notice: "Pembayaran gagal"}
	case EventClose:
		return Outcome{Notice: "Pembayaran dibatalkan"}
	}
	return Outcome{Notice: fmt.Sprintf("unknown payment event %q", result.Event)}
}

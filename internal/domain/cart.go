package domain

import "time"

// CartItem is a product selection held in the cart. Stock is captured from
// the product at add time and bounds the quantity from above.
type CartItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int    `json:"quantity"`
	Stock     int    `json:"stock"`
}

// Subtotal returns price times quantity for this line.
func (i CartItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Cart is a snapshot of the full cart state. Items keep insertion order and
// hold at most one entry per product id.
type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Total sums price*quantity over all items, 0 for an empty cart.
func (c Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// TotalItems sums quantities over all items, used for the cart badge.
func (c Cart) TotalItems() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

package domain

import "time"

// Product is a catalog entry as served by the backend. Price is in whole
// rupiah, no fractional units.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
	Stock       int    `json:"stock"`
	Category    string `json:"category,omitempty"`
}

// SensorReading is the latest measurement reported by the vending machine.
type SensorReading struct {
	DeviceID    string    `json:"deviceId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
}

// User is the customer profile attached to an authenticated session.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// RegisterRequest is the registration form forwarded to the backend.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Farizu224/vending-machine-web/internal/domain"
	"github.com/Farizu224/vending-machine-web/internal/session"
)

// ProductFinder fetches a product so an item enters the cart with the stock
// known at add time.
type ProductFinder interface {
	ProductByID(ctx context.Context, id int64) (*domain.Product, error)
}

type CartHandler struct {
	products ProductFinder
	registry *session.Registry
}

func NewCartHandler(products ProductFinder, registry *session.Registry) *CartHandler {
	return &CartHandler{products: products, registry: registry}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// CartDTO is the cart view with derived totals.
type CartDTO struct {
	Items      []domain.CartItem `json:"items"`
	Total      int64             `json:"total"`
	TotalItems int               `json:"total_items"`
}

func cartDTO(entry *session.Entry) CartDTO {
	return CartDTO{
		Items:      entry.Cart.Items(),
		Total:      entry.Cart.Total(),
		TotalItems: entry.Cart.TotalItems(),
	}
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "quantity must be between 1 and 99")
		return
	}

	product, err := h.products.ProductByID(r.Context(), req.ProductID)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if product.Stock < 1 {
		respondError(w, http.StatusConflict, "product is out of stock")
		return
	}

	entry.Cart.AddItem(*product, req.Quantity)
	h.registry.Persist(r.Context(), entry)
	respondJSON(w, http.StatusCreated, cartDTO(entry))
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartDTO(SessionFromContext(r.Context())))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// quantity 0 removes the line, matching the store semantics
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "quantity must be between 0 and 99")
		return
	}

	entry.Cart.UpdateQuantity(productID, req.Quantity)
	h.registry.Persist(r.Context(), entry)
	respondJSON(w, http.StatusOK, cartDTO(entry))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	entry.Cart.RemoveItem(productID)
	h.registry.Persist(r.Context(), entry)
	respondJSON(w, http.StatusOK, cartDTO(entry))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	entry.Cart.Clear()
	h.registry.Persist(r.Context(), entry)
	respondJSON(w, http.StatusOK, cartDTO(entry))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

package httpapi

import (
	"context"
	"net/http"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

// ProductClient is the catalog slice of the remote API.
type ProductClient interface {
	ProductFinder
	Products(ctx context.Context) ([]domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
}

type ProductHandler struct {
	products ProductClient
}

func NewProductHandler(products ProductClient) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		items []domain.Product
		err   error
	)
	if query := r.URL.Query().Get("search"); query != "" {
		items, err = h.products.SearchProducts(r.Context(), query)
	} else {
		items, err = h.products.Products(r.Context())
	}
	if err != nil {
		respondFailure(w, err)
		return
	}
	if items == nil {
		items = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.products.ProductByID(r.Context(), productID)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

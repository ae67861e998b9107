package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mercatus/storefront/internal/catalog/domain"
	"github.com/mercatus/storefront/internal/catalog/usecase/command"
	"github.com/mercatus/storefront/pkg/logger"
)

// CatalogHandler handles HTTP requests for products and warehouses
type CatalogHandler struct {
	createProductHandler   *command.CreateProductHandler
	createWarehouseHandler *command.CreateWarehouseHandler
	deleteWarehouseHandler *command.DeleteWarehouseHandler
	products               domain.ProductRepository
	warehouses             domain.WarehouseRepository
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(
	createProductHandler *command.CreateProductHandler,
	createWarehouseHandler *command.CreateWarehouseHandler,
	deleteWarehouseHandler *command.DeleteWarehouseHandler,
	products domain.ProductRepository,
	warehouses domain.WarehouseRepository,
) *CatalogHandler {
	return &CatalogHandler{
		createProductHandler:   createProductHandler,
		createWarehouseHandler: createWarehouseHandler,
		deleteWarehouseHandler: deleteWarehouseHandler,
		products:               products,
		warehouses:             warehouses,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type variantRequest struct {
	SKU           string           `json:"sku"`
	Options       string           `json:"options"`
	PriceOverride *decimal.Decimal `json:"price_override"`
}

// CreateProduct handles POST /api/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID     uint             `json:"store_id"`
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Price       decimal.Decimal  `json:"price"`
		Category    string           `json:"category"`
		Variants    []variantRequest `json:"variants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.CreateProductCommand{
		StoreID:     req.StoreID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
	}
	for _, v := range req.Variants {
		cmd.Variants = append(cmd.Variants, command.VariantInput{
			SKU:           v.SKU,
			Options:       v.Options,
			PriceOverride: v.PriceOverride,
		})
	}

	product, err := h.createProductHandler.Handle(r.Context(), cmd)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create product")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// ListProducts handles GET /api/products?store_id=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	storeID, _ := strconv.ParseUint(r.URL.Query().Get("store_id"), 10, 32)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 {
		limit = 20
	}

	products, err := h.products.FindByStore(r.Context(), uint(storeID), limit, offset)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list products",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    products,
	})
}

// CreateWarehouse handles POST /api/warehouses
func (h *CatalogHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID   uint   `json:"store_id"`
		Name      string `json:"name"`
		Code      string `json:"code"`
		IsDefault bool   `json:"is_default"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	warehouse, err := h.createWarehouseHandler.Handle(r.Context(), command.CreateWarehouseCommand{
		StoreID:   req.StoreID,
		Name:      req.Name,
		Code:      req.Code,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create warehouse")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Warehouse created successfully",
		Data:    warehouse,
	})
}

// DeleteWarehouse handles DELETE /api/warehouses/{id}
func (h *CatalogHandler) DeleteWarehouse(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid warehouse ID",
		})
		return
	}

	if err := h.deleteWarehouseHandler.Handle(r.Context(), command.DeleteWarehouseCommand{WarehouseID: uint(id)}); err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, domain.ErrWarehouseNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrDefaultWarehouse), errors.Is(err, domain.ErrWarehouseNotEmpty):
			status = http.StatusConflict
		}
		respondJSON(w, status, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Warehouse deleted successfully",
	})
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/products", h.ListProducts).Methods("GET")
	router.HandleFunc("/api/products", h.CreateProduct).Methods("POST")
	router.HandleFunc("/api/warehouses", h.CreateWarehouse).Methods("POST")
	router.HandleFunc("/api/warehouses/{id}", h.DeleteWarehouse).Methods("DELETE")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

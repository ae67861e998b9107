package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mercatus/storefront/internal/store/domain"
	"github.com/mercatus/storefront/internal/store/usecase/command"
	"github.com/mercatus/storefront/pkg/logger"
)

// StoreHandler handles HTTP requests for stores
type StoreHandler struct {
	createHandler *command.CreateStoreHandler
	deleteHandler *command.DeleteStoreHandler
	stores        domain.StoreRepository
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(
	createHandler *command.CreateStoreHandler,
	deleteHandler *command.DeleteStoreHandler,
	stores domain.StoreRepository,
) *StoreHandler {
	return &StoreHandler{
		createHandler: createHandler,
		deleteHandler: deleteHandler,
		stores:        stores,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateStore handles POST /api/stores
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Slug     string `json:"slug"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	store, err := h.createHandler.Handle(r.Context(), command.CreateStoreCommand{
		Name:     req.Name,
		Slug:     req.Slug,
		Currency: req.Currency,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("slug", req.Slug).Msg("Failed to create store")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Store created successfully",
		Data:    store,
	})
}

// GetStore handles GET /api/stores/{slug}
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	store, err := h.stores.FindBySlug(r.Context(), vars["slug"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Store not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    store,
	})
}

// DeleteStore handles DELETE /api/stores/{id}
func (h *StoreHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid store ID",
		})
		return
	}

	if err := h.deleteHandler.Handle(r.Context(), command.DeleteStoreCommand{StoreID: uint(id)}); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrStoreNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, domain.ErrStoreHasOpenOrders) {
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
		Message: "Store deleted successfully",
	})
}

// RegisterRoutes registers all store routes
func (h *StoreHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/stores", h.CreateStore).Methods("POST")
	router.HandleFunc("/api/stores/{slug}", h.GetStore).Methods("GET")
	router.HandleFunc("/api/stores/{id}", h.DeleteStore).Methods("DELETE")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

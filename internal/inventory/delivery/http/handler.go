package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/internal/inventory/usecase/command"
	"github.com/mercatus/storefront/internal/inventory/usecase/query"
	"github.com/mercatus/storefront/pkg/logger"
)

// InventoryHandler handles HTTP requests for inventory levels and
// adjustments.
type InventoryHandler struct {
	adjustHandler          *command.AdjustInventoryHandler
	createLevelHandler     *command.CreateLevelHandler
	listLevelsHandler      *query.ListLevelsHandler
	listAdjustmentsHandler *query.ListAdjustmentsHandler
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(
	adjustHandler *command.AdjustInventoryHandler,
	createLevelHandler *command.CreateLevelHandler,
	listLevelsHandler *query.ListLevelsHandler,
	listAdjustmentsHandler *query.ListAdjustmentsHandler,
) *InventoryHandler {
	return &InventoryHandler{
		adjustHandler:          adjustHandler,
		createLevelHandler:     createLevelHandler,
		listLevelsHandler:      listLevelsHandler,
		listAdjustmentsHandler: listAdjustmentsHandler,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateLevel handles POST /api/inventory/levels
func (h *InventoryHandler) CreateLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VariantID       uint `json:"variant_id"`
		WarehouseID     uint `json:"warehouse_id"`
		Quantity        int  `json:"quantity"`
		ReorderPoint    int  `json:"reorder_point"`
		ReorderQuantity int  `json:"reorder_quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	level, err := h.createLevelHandler.Handle(r.Context(), command.CreateLevelCommand{
		VariantID:       req.VariantID,
		WarehouseID:     req.WarehouseID,
		Quantity:        req.Quantity,
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create inventory level")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Inventory level created successfully",
		Data:    level,
	})
}

// Adjust handles POST /api/inventory/levels/{id}/adjust
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	levelID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid level ID",
		})
		return
	}

	var req struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	level, err := h.adjustHandler.Handle(r.Context(), command.AdjustInventoryCommand{
		LevelID: uint(levelID),
		Delta:   req.Delta,
		Reason:  req.Reason,
		Notes:   req.Notes,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Uint64("level_id", levelID).Msg("Inventory adjustment failed")
		respondJSON(w, adjustStatus(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Inventory adjusted successfully",
		Data:    level,
	})
}

// ListLevels handles GET /api/inventory/levels?store_id=
func (h *InventoryHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	storeID, _ := strconv.ParseUint(r.URL.Query().Get("store_id"), 10, 32)
	lowOnly := r.URL.Query().Get("low_stock") == "true"

	levels, err := h.listLevelsHandler.Handle(r.Context(), query.ListLevelsQuery{
		StoreID: uint(storeID),
		LowOnly: lowOnly,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    levels,
	})
}

// ListAdjustments handles GET /api/inventory/levels/{id}/adjustments
func (h *InventoryHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	levelID, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid level ID",
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	adjustments, err := h.listAdjustmentsHandler.Handle(r.Context(), query.ListAdjustmentsQuery{
		LevelID: uint(levelID),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    adjustments,
	})
}

// RegisterRoutes registers all inventory routes
func (h *InventoryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/inventory/levels", h.ListLevels).Methods("GET")
	router.HandleFunc("/api/inventory/levels", h.CreateLevel).Methods("POST")
	router.HandleFunc("/api/inventory/levels/{id}/adjust", h.Adjust).Methods("POST")
	router.HandleFunc("/api/inventory/levels/{id}/adjustments", h.ListAdjustments).Methods("GET")
}

func adjustStatus(err error) int {
	var insufficientStock *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrLevelNotFound):
		return http.StatusNotFound
	case errors.As(err, &insufficientStock):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

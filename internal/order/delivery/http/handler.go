package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/internal/order/usecase/command"
	"github.com/mercatus/storefront/internal/order/usecase/query"
	"github.com/mercatus/storefront/pkg/logger"
)

// OrderHandler handles HTTP requests for checkout, order transitions and
// refunds using the CQRS pattern.
type OrderHandler struct {
	// Command handlers
	checkoutHandler     *command.CheckoutHandler
	transitionHandler   *command.TransitionHandler
	notesHandler        *command.UpdateNotesHandler
	createRefundHandler *command.CreateRefundHandler
	decideRefundHandler *command.DecideRefundHandler

	// Query handlers
	getOrderHandler   *query.GetOrderHandler
	listOrdersHandler *query.ListOrdersHandler

	requestCounter  *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	checkoutsTotal  *prometheus.CounterVec
	checkoutAmounts prometheus.Summary
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	checkoutHandler *command.CheckoutHandler,
	transitionHandler *command.TransitionHandler,
	notesHandler *command.UpdateNotesHandler,
	createRefundHandler *command.CreateRefundHandler,
	decideRefundHandler *command.DecideRefundHandler,
	getOrderHandler *query.GetOrderHandler,
	listOrdersHandler *query.ListOrdersHandler,
) *OrderHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_requests_total",
			Help: "Total number of requests to the storefront service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_request_duration_seconds",
			Help:    "Duration of storefront requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	checkoutsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Checkout attempts by outcome",
		},
		[]string{"outcome"},
	)

	checkoutAmounts := prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name: "storefront_checkout_order_total",
			Help: "Distribution of successful checkout order totals",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
			MaxAge: 10 * time.Minute,
		},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(checkoutsTotal)
	prometheus.MustRegister(checkoutAmounts)

	return &OrderHandler{
		checkoutHandler:     checkoutHandler,
		transitionHandler:   transitionHandler,
		notesHandler:        notesHandler,
		createRefundHandler: createRefundHandler,
		decideRefundHandler: decideRefundHandler,
		getOrderHandler:     getOrderHandler,
		listOrdersHandler:   listOrdersHandler,
		requestCounter:      requestCounter,
		requestLatency:      requestLatency,
		checkoutsTotal:      checkoutsTotal,
		checkoutAmounts:     checkoutAmounts,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *OrderHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/checkout", h.metricsMiddleware("/api/checkout", h.Checkout)).Methods("POST")
	router.HandleFunc("/api/orders", h.metricsMiddleware("/api/orders", h.ListOrders)).Methods("GET")
	router.HandleFunc("/api/orders/{id}", h.metricsMiddleware("/api/orders/{id}", h.GetOrder)).Methods("GET")
	router.HandleFunc("/api/orders/{id}/status", h.metricsMiddleware("/api/orders/{id}/status", h.UpdateStatus)).Methods("PATCH")
	router.HandleFunc("/api/orders/{id}/notes", h.metricsMiddleware("/api/orders/{id}/notes", h.UpdateNotes)).Methods("PATCH")
	router.HandleFunc("/api/orders/{id}/refunds", h.metricsMiddleware("/api/orders/{id}/refunds", h.CreateRefund)).Methods("POST")
	router.HandleFunc("/api/orders/{id}/refunds/{refund_id}", h.metricsMiddleware("/api/orders/{id}/refunds/{refund_id}", h.DecideRefund)).Methods("PATCH")
}

// RegisterHealthCheck registers health check endpoint
func (h *OrderHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Storefront service is healthy",
		})
	}).Methods("GET")
}

type checkoutLineRequest struct {
	VariantID   uint  `json:"variant_id"`
	Quantity    int   `json:"quantity"`
	WarehouseID *uint `json:"warehouse_id"`
}

type checkoutRequest struct {
	StoreSlug     string                `json:"store_slug"`
	CustomerEmail string                `json:"customer_email"`
	Lines         []checkoutLineRequest `json:"lines"`
	Address       domain.Address        `json:"shipping_address"`
	DiscountCode  *string               `json:"discount_code"`
	GiftCardCode  *string               `json:"gift_card_code"`
	Currency      *string               `json:"currency"`
}

// Checkout handles POST /api/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.CheckoutCommand{
		StoreSlug:       req.StoreSlug,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.Address,
		DiscountCode:    req.DiscountCode,
		GiftCardCode:    req.GiftCardCode,
		Currency:        req.Currency,
	}
	for _, line := range req.Lines {
		cmd.Lines = append(cmd.Lines, command.CheckoutLine{
			VariantID:   line.VariantID,
			Quantity:    line.Quantity,
			WarehouseID: line.WarehouseID,
		})
	}

	result, err := h.checkoutHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.checkoutsTotal.WithLabelValues("failure").Inc()
		logger.Error(r.Context()).Err(err).Str("store_slug", req.StoreSlug).Msg("Checkout failed")
		respondJSON(w, statusFor(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.checkoutsTotal.WithLabelValues("success").Inc()
	totalF, _ := result.Total.Float64()
	h.checkoutAmounts.Observe(totalF)

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Order created successfully",
		Data:    result,
	})
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.getOrderHandler.Handle(r.Context(), query.GetOrderQuery{ID: id})
	if err != nil {
		respondJSON(w, statusFor(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    detail,
	})
}

// ListOrders handles GET /api/orders?store_id=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	storeID, _ := strconv.ParseUint(r.URL.Query().Get("store_id"), 10, 32)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.listOrdersHandler.Handle(r.Context(), query.ListOrdersQuery{
		StoreID: uint(storeID),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		respondJSON(w, statusFor(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    orders,
	})
}

// UpdateStatus handles PATCH /api/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Status         string  `json:"status"`
		TrackingNumber *string `json:"tracking_number"`
		Carrier        *string `json:"carrier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	order, err := h.transitionHandler.Handle(r.Context(), command.TransitionCommand{
		OrderID:        id,
		NewStatus:      domain.Status(req.Status),
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Uint("order_id", id).Msg("Order transition failed")
		respondJSON(w, statusFor(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Order status updated successfully",
		Data:    order,
	})
}

// UpdateNotes handles PATCH /api/orders/{id}/notes
func (h *OrderHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Notes *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	order, err := h.notesHandler.Handle(r.Context(), command.UpdateNotesCommand{
		OrderID: id,
		Notes:   req.Notes,
	})
	if err != nil {
		respondJSON(w, statusFor(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    order,
	})
}

// CreateRefund handles POST /api/orders/{id}/refunds
func (h *OrderHandler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Amount        decimal.Decimal `json:"amount"`
		Reason        string          `json:"reason"`
		ReasonDetails string          `json:"reason_details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	refund, err := h.createRefundHandler.Handle(r.Context(), command.CreateRefundCommand{
		OrderID:       id,
		Amount:        req.Amount,
		Reason:        req.Reason,
		ReasonDetails: req.ReasonDetails,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Uint("order_id", id).Msg("Refund creation failed")
		respondJSON(w, statusFor(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Refund created successfully",
		Data:    refund,
	})
}

// DecideRefund handles PATCH /api/orders/{id}/refunds/{refund_id}
func (h *OrderHandler) DecideRefund(w http.ResponseWriter, r *http.Request) {
	refundID, ok := pathID(w, r, "refund_id")
	if !ok {
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	refund, err := h.decideRefundHandler.Handle(r.Context(), command.DecideRefundCommand{
		RefundID: refundID,
		Approve:  req.Approve,
	})
	if err != nil {
		respondJSON(w, statusFor(err), Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Refund decided successfully",
		Data:    refund,
	})
}

// pathID parses a numeric path variable, responding with 400 on failure
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars[name], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/port/input"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentHandler is a primary adapter (HTTP handler)
type PaymentHandler struct {
	paymentService input.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService input.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RegisterRoutes mounts the payment endpoints on g.
// Status overrides are only available through paymentctl.
func (h *PaymentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ping", h.Ping)
	g.POST("", h.CreatePayment)
	g.GET("", h.ListPayments)
	g.GET("/statistics", h.GetStatistics)
	g.GET("/:id", h.GetPayment)
	g.GET("/transaction/:transactionId", h.GetPaymentByTransactionID)
	g.GET("/merchant/:merchantId", h.ListMerchantPayments)
	g.GET("/customer/:email", h.ListCustomerPayments)
	g.POST("/:id/process", h.ProcessPayment)
	g.POST("/:id/refund", h.RefundPayment)
	g.POST("/:id/cancel", h.CancelPayment)
}

// CreatePaymentRequest represents the HTTP request to create a payment
type CreatePaymentRequest struct {
	MerchantID    string           `json:"merchantId" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	Currency      string           `json:"currency" validate:"required"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`
	CustomerEmail string           `json:"customerEmail" validate:"required"`
	Description   string           `json:"description"`
}

// PaymentResponse represents the HTTP response for a payment
type PaymentResponse struct {
	ID            int64  `json:"id"`
	TransactionID string `json:"transactionId"`
	MerchantID    string `json:"merchantId"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"paymentMethod"`
	CustomerEmail string `json:"customerEmail"`
	Status        string `json:"status"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
	Message       string `json:"message,omitempty"`
}

func toResponse(p *core.Payment, message string) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		MerchantID:    p.MerchantID,
		Amount:        p.Amount.StringFixed(core.AmountScale),
		Currency:      string(p.Currency),
		PaymentMethod: string(p.PaymentMethod),
		CustomerEmail: p.CustomerEmail,
		Status:        string(p.Status),
		Description:   p.Description,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
		Message:       message,
	}
}

func toResponses(payments []*core.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toResponse(p, "Success"))
	}
	return out
}

// Ping reports that the API is alive
func (h *PaymentHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "UP",
		"message":   "Payment Gateway is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreatePayment handles payment creation
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid request body",
			Fields: fieldErrors(err),
		})
	}

	ctx := c.Request().Context()
	zerolog.Ctx(ctx).Info().Str("merchant_id", req.MerchantID).Msg("received payment creation request")

	// Convert to service request
	payment, err := h.paymentService.CreatePayment(ctx, input.CreatePaymentRequest{
		MerchantID:    req.MerchantID,
		Amount:        *req.Amount,
		Currency:      core.Currency(req.Currency),
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		CustomerEmail: req.CustomerEmail,
		Description:   req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, toResponse(payment, "Payment created successfully"))
}

// GetPayment handles payment retrieval by ID
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid payment ID"})
	}

	payment, err := h.paymentService.GetPayment(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(payment, "Payment retrieved successfully"))
}

// GetPaymentByTransactionID handles payment retrieval by transaction ID
func (h *PaymentHandler) GetPaymentByTransactionID(c echo.Context) error {
	payment, err := h.paymentService.GetPaymentByTransactionID(c.Request().Context(), c.Param("transactionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(payment, "Payment retrieved successfully"))
}

// ListPayments returns every payment
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	payments, err := h.paymentService.ListPayments(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponses(payments))
}

// ListMerchantPayments returns the payments of one merchant
func (h *PaymentHandler) ListMerchantPayments(c echo.Context) error {
	payments, err := h.paymentService.ListPaymentsByMerchant(c.Request().Context(), c.Param("merchantId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponses(payments))
}

// ListCustomerPayments returns the payments of one customer email
func (h *PaymentHandler) ListCustomerPayments(c echo.Context) error {
	payments, err := h.paymentService.ListPaymentsByCustomerEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponses(payments))
}

// ProcessPayment settles a pending payment
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	return h.transition(c, h.paymentService.ProcessPayment, "Payment processed successfully")
}

// RefundPayment refunds a completed payment
func (h *PaymentHandler) RefundPayment(c echo.Context) error {
	return h.transition(c, h.paymentService.RefundPayment, "Payment refunded successfully")
}

// CancelPayment cancels a payment
func (h *PaymentHandler) CancelPayment(c echo.Context) error {
	return h.transition(c, h.paymentService.CancelPayment, "Payment cancelled successfully")
}

// GetStatistics returns payment counters
func (h *PaymentHandler) GetStatistics(c echo.Context) error {
	stats, err := h.paymentService.Statistics(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

type transitionFunc func(ctx context.Context, id int64) (*core.Payment, error)

func (h *PaymentHandler) transition(c echo.Context, fn transitionFunc, message string) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid payment ID"})
	}

	payment, err := fn(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(payment, message))
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

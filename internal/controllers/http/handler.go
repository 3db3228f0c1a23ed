package http

import (
	"errors"
	"net/http"
	"strconv"

	"media-store/internal/domain"
	"media-store/internal/repository"
	"media-store/internal/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	orders   *services.OrderService
	payments *services.PaymentService
}

func NewHandler(orders *services.OrderService, payments *services.PaymentService) *Handler {
	return &Handler{orders: orders, payments: payments}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.GET("/orders/:id/invoice", h.GetInvoice)
	r.POST("/orders/:id/confirm", h.ConfirmOrder)
	r.POST("/orders/:id/cancel", h.CancelOrder)

	admin := r.Group("/admin")
	admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
	admin.POST("/orders/:id/recover-stock", h.RecoverStock)

	pay := r.Group("/payment")
	pay.POST("/create", h.CreatePayment)
	pay.GET("/return", h.PaymentReturn)
	pay.GET("/ipn", h.PaymentIPN)
	pay.POST("/ipn", h.PaymentIPN)
	pay.POST("/query", h.QueryPayment)
	pay.POST("/refund", h.RefundPayment)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req.toCartItems(), req.toDelivery())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	if status := c.Query("status"); status != "" {
		orders, err := h.orders.GetOrdersByStatus(ctx, domain.OrderStatus(status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
		return
	}

	orders, err := h.orders.GetAllOrders(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	invoice, err := h.orders.GetInvoiceByOrderID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *Handler) ConfirmOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.orders.ConfirmOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reason == "" {
		req.Reason = "cancelled by customer"
	}
	order, err := h.orders.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) RecoverStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.orders.RecoverProductQuantity(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stock recovered"})
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return id, true
}

// respondError maps service and domain errors onto HTTP statuses: unknown
// input gets 400, missing records 404, state conflicts 409.
func respondError(c *gin.Context, err error) {
	var (
		stock      *domain.InsufficientStockError
		transition *domain.InvalidTransitionError
		payTrans   *domain.InvalidPaymentTransitionError
	)
	switch {
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrInvoiceNotFound),
		errors.Is(err, repository.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &stock),
		errors.As(err, &transition),
		errors.As(err, &payTrans),
		errors.Is(err, repository.ErrInvoiceExists),
		errors.Is(err, domain.ErrInvoiceAlreadyPaid),
		errors.Is(err, services.ErrPaymentAttemptPending),
		errors.Is(err, services.ErrInvoiceNotPayable),
		errors.Is(err, services.ErrOrderNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

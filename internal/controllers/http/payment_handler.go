package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.payments.InitiatePayment(c.Request.Context(), req.OrderID, req.BankCode, req.Locale, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaymentReturn handles the customer's browser coming back from the gateway.
// The response is always a redirect to the storefront result page.
func (h *Handler) PaymentReturn(c *gin.Context) {
	target := h.payments.HandleReturn(c.Request.Context(), queryParams(c))
	c.Redirect(http.StatusFound, target)
}

// PaymentIPN answers the gateway's server-to-server notification. The gateway
// retries on anything but a well-formed acknowledgement, so this always
// responds 200 with a result code in the body.
func (h *Handler) PaymentIPN(c *gin.Context) {
	var params map[string]string
	if c.Request.Method == http.MethodPost && c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&params); err != nil {
			params = nil
		}
	}
	if params == nil {
		params = queryParams(c)
	}

	ack := h.payments.HandleIPN(c.Request.Context(), params)
	c.JSON(http.StatusOK, ack)
}

func (h *Handler) QueryPayment(c *gin.Context) {
	var req queryPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.payments.Query(c.Request.Context(), req.OrderID, req.TransDate, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) RefundPayment(c *gin.Context) {
	var req refundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.payments.Refund(c.Request.Context(), req.OrderID, req.TransDate, req.CreatedBy, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func queryParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

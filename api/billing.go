package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minfaz98/cozy-stay/internal/service/billing"
)

type BillingHandler struct {
	service billing.UseCase
}

type paymentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
}

type chargeRequest struct {
	Description string `json:"description" binding:"required"`
	AmountCents int64  `json:"amount_cents"`
}

func NewBillingHandler(service billing.UseCase) *BillingHandler {
	return &BillingHandler{service: service}
}

// Register mounts under the reservations group.
func (h *BillingHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/invoice", h.invoice)
	router.POST("/:id/payments", h.pay)
	router.POST("/:id/charges", h.addCharge)
	router.POST("/:id/checkout", h.checkout)
}

func (h *BillingHandler) invoice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.service.GenerateInvoice(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *BillingHandler) pay(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	record, err := h.service.RecordPayment(c.Request.Context(), billing.PaymentInput{
		ReservationID: id,
		AmountCents:   req.AmountCents,
		Method:        req.Method,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *BillingHandler) addCharge(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	charge, err := h.service.AddCharge(c.Request.Context(), billing.ChargeInput{
		ReservationID: id,
		Description:   req.Description,
		AmountCents:   req.AmountCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, charge)
}

func (h *BillingHandler) checkout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.service.CompleteCheckout(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservation": toReservationResponse(out.Reservation),
		"invoice":     out.Invoice,
	})
}

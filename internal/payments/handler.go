package payments

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetsimposio/backend/internal/pricing"
	"github.com/vetsimposio/backend/pkg/response"
)

// ChargeRequest is the body for POST /payments/charge.
type ChargeRequest struct {
	AttendeeID   string  `json:"attendee_id" binding:"required,uuid"`
	Token        string  `json:"token" binding:"required"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	PayerEmail   string  `json:"payer_email" binding:"required,email"`
	Method       string  `json:"method" binding:"required,oneof=yape card"`
	Installments int     `json:"installments"`
	MethodID     string  `json:"payment_method_id"`
	IssuerID     string  `json:"issuer_id"`
}

// Handler handles payment HTTP endpoints.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a payments handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger}
}

// Charge handles POST /payments/charge.
func (h *Handler) Charge(c *gin.Context) {
	var req ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	attendeeID, err := uuid.Parse(req.AttendeeID)
	if err != nil {
		response.BadRequest(c, "invalid attendee id")
		return
	}

	out, err := h.engine.Charge(c.Request.Context(), ChargeInput{
		AttendeeID:   attendeeID,
		Token:        req.Token,
		Amount:       req.Amount,
		PayerEmail:   req.PayerEmail,
		Method:       req.Method,
		Installments: req.Installments,
		MethodID:     req.MethodID,
		IssuerID:     req.IssuerID,
	})
	if err != nil {
		var rejection *RejectionError
		switch {
		case errors.Is(err, ErrAttendeeNotFound):
			response.NotFound(c, "registro no encontrado")
		case errors.Is(err, pricing.ErrPriceMismatch):
			response.Conflict(c, "El precio cambió. Actualiza la página e intenta nuevamente.")
		case errors.As(err, &rejection):
			response.BadRequest(c, rejection.Message)
		case errors.Is(err, ErrPaidNotRecorded):
			response.Internal(c, "Pago exitoso pero error al actualizar registro. Contacta al organizador.")
		default:
			h.logger.Error("charge failed", zap.String("attendee_id", req.AttendeeID), zap.Error(err))
			response.Internal(c, "Error interno al procesar el pago")
		}
		return
	}
	response.OK(c, out)
}

// Status handles GET /payments/:id/status. Pass-through read, no side effects.
func (h *Handler) Status(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		response.BadRequest(c, "payment id required")
		return
	}
	result, err := h.engine.Status(c.Request.Context(), paymentID)
	if err != nil {
		h.logger.Error("payment status lookup failed", zap.String("payment_id", paymentID), zap.Error(err))
		response.Internal(c, "Error al consultar el estado del pago")
		return
	}
	response.OK(c, gin.H{
		"payment_id":    result.ID,
		"status":        result.Status,
		"status_detail": result.StatusDetail,
	})
}

package registrations

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vetsimposio/backend/pkg/response"
)

// RegisterRequest is the public intake payload.
type RegisterRequest struct {
	FullName     string `json:"full_name" binding:"required,min=3,max=100"`
	DNI          string `json:"dni" binding:"required,len=8,numeric"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required,len=9,numeric"`
	Role         string `json:"role" binding:"required,oneof=student professional"`
	Organization string `json:"organization" binding:"omitempty,max=150"`
}

type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, repo: repo, logger: logger}
}

// Register handles POST /api/registrations.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Datos de registro inválidos: "+err.Error())
		return
	}

	attendee, created, err := h.service.Register(c.Request.Context(), RegisterInput{
		FullName:     req.FullName,
		DNI:          req.DNI,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		Organization: req.Organization,
	})
	if err != nil {
		var dup *AlreadyPaidError
		if errors.As(err, &dup) {
			response.Conflict(c, fmt.Sprintf(
				"Ya existe un registro pagado con este %s. Tu código de entrada es %s.",
				dup.Field, dup.Attendee.TicketCode,
			))
			return
		}
		h.logger.Error("register attendee failed", zap.Error(err))
		response.Internal(c, "No se pudo completar el registro")
		return
	}

	if created {
		response.Created(c, attendee)
		return
	}
	response.OK(c, attendee)
}

// GetTicket handles GET /api/tickets/:code, the entry-code lookup used at
// the venue door.
func (h *Handler) GetTicket(c *gin.Context) {
	code := c.Param("code")
	attendee, err := h.repo.GetByTicketCode(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("ticket lookup failed", zap.Error(err))
		response.Internal(c, "No se pudo buscar la entrada")
		return
	}
	if attendee == nil {
		response.NotFound(c, "Entrada no encontrada")
		return
	}
	if !attendee.Paid() {
		response.Conflict(c, "La entrada existe pero el pago aún está pendiente")
		return
	}
	response.OK(c, attendee)
}

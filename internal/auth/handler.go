package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vetsimposio/backend/internal/models"
	"github.com/vetsimposio/backend/pkg/response"
	"github.com/vetsimposio/backend/pkg/utils"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	Admin *models.AdminUser `json:"admin"`
}

// Handler handles auth HTTP endpoints. There is no self-registration; admins
// are seeded from configuration.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	admin, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("admin lookup failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	if admin == nil || !utils.CheckPassword(req.Password, admin.PasswordHash) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(admin.ID, admin.Email)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}

	response.OK(c, TokenResponse{Token: token, Admin: admin})
}

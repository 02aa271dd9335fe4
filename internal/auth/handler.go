package auth

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/pkg/apperr"
	"github.com/mystik-app/backend/pkg/response"
	"github.com/mystik-app/backend/pkg/utils"
)

// LoginRequest is the body for POST /admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminCredentials is the single panel account.
type AdminCredentials struct {
	Email        string
	PasswordHash string // bcrypt; empty disables login
	TokenTTL     time.Duration
}

// Handler handles admin login.
type Handler struct {
	jwt    *JWTService
	admin  AdminCredentials
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(jwt *JWTService, admin AdminCredentials, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	return &Handler{jwt: jwt, admin: admin, logger: logger}
}

// Login handles POST /admin/login and returns an admin session token.
func (h *Handler) Login(c *gin.Context) {
	if h.admin.PasswordHash == "" {
		response.ServiceUnavailable(c, "admin login disabled")
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, apperr.ReasonInvalidBody)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		response.BadRequest(c, apperr.ReasonMissingField+": email, password")
		return
	}
	if email != h.admin.Email || !utils.CheckPassword(req.Password, h.admin.PasswordHash) {
		h.logger.Warn("admin login rejected", zap.String("email", email))
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, expires, err := h.jwt.Generate(models.RoleAdmin, email, h.admin.TokenTTL)
	if err != nil {
		h.logger.Error("generate admin token", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	h.logger.Info("admin logged in", zap.String("email", email))
	response.OK(c, gin.H{"token": token, "expiresAt": expires})
}

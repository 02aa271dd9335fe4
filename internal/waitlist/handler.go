package waitlist

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mystik-app/backend/pkg/apperr"
	"github.com/mystik-app/backend/pkg/response"
)

// SubscribeRequest is the body for POST /waitlist.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// Handler handles the public waitlist endpoint.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a waitlist handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Subscribe handles POST /waitlist.
func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, apperr.ReasonInvalidBody)
		return
	}
	if _, err := h.svc.Subscribe(c.Request.Context(), req.Email); err != nil {
		response.Error(c, h.logger, err, "not found", "failed to join waitlist")
		return
	}
	response.OK(c, gin.H{"accepted": true})
}

package registrations

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mystik-app/backend/pkg/apperr"
	"github.com/mystik-app/backend/pkg/response"
)

const msgNotFound = "registration not found"

// StatusRequest is the body for PATCH /medium-registrations/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// Handler handles guide registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the registration routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/medium-signup", h.Signup)
	r.GET("/medium-registrations", h.List)
	r.GET("/medium-registration/:id", h.Get)
	r.PATCH("/medium-registrations/:id/status", h.UpdateStatus)
	r.DELETE("/medium-registrations/:id", h.Delete)
}

// Signup handles POST /medium-signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, apperr.ReasonInvalidBody)
		return
	}
	id, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, h.logger, err, msgNotFound, "failed to process registration, please try again")
		return
	}
	response.OK(c, gin.H{
		"message":        "registration received",
		"registrationId": id,
	})
}

// List handles GET /medium-registrations.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err, msgNotFound, "failed to list registrations")
		return
	}
	h.logger.Debug("registrations listed", zap.Int("count", len(list)))
	response.OK(c, gin.H{
		"count":         len(list),
		"registrations": list,
	})
}

// Get handles GET /medium-registration/:id.
func (h *Handler) Get(c *gin.Context) {
	reg, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err, msgNotFound, "failed to fetch registration")
		return
	}
	response.OK(c, gin.H{"registration": reg})
}

// UpdateStatus handles PATCH /medium-registrations/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, apperr.ReasonInvalidBody)
		return
	}
	reg, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, h.logger, err, msgNotFound, "failed to update status")
		return
	}
	response.OK(c, gin.H{
		"message":      "status updated",
		"registration": reg,
	})
}

// Delete handles DELETE /medium-registrations/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, h.logger, err, msgNotFound, "failed to delete registration")
		return
	}
	response.OK(c, gin.H{"message": "registration deleted"})
}

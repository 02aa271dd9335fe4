package admin

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mystik-app/backend/internal/middleware"
	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/internal/registrations"
	"github.com/mystik-app/backend/pkg/apperr"
	"github.com/mystik-app/backend/pkg/response"
	"github.com/mystik-app/backend/pkg/storage"
)

const csvContentType = "text/csv; charset=utf-8"

// WaitlistSource lists waitlist entries. Satisfied by *waitlist.Service.
type WaitlistSource interface {
	List(ctx context.Context) ([]models.WaitlistEntry, error)
}

// Reconciler repairs the email index inline. Satisfied by *registrations.Service.
type Reconciler interface {
	Reconcile(ctx context.Context) (registrations.ReconcileReport, error)
}

// Enqueuer hands reconcile runs to the worker. Satisfied by *queue.Queue.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, requestedBy string) (string, error)
}

// Exporter archives an export and returns a download URL. Satisfied by *storage.S3.
type Exporter interface {
	UploadExport(ctx context.Context, key string, body []byte) (string, time.Time, error)
}

// Deps are the handler's collaborators. Queue and Exporter are optional.
type Deps struct {
	Facade     *Facade
	Waitlist   WaitlistSource
	Reconciler Reconciler
	Queue      Enqueuer
	Exporter   Exporter
	Location   *time.Location
}

// Handler serves the admin panel routes.
type Handler struct {
	deps   Deps
	now    func() time.Time
	logger *zap.Logger
}

// NewHandler creates an admin handler. A nil Location means UTC.
func NewHandler(deps Deps, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &Handler{deps: deps, now: time.Now, logger: logger}
}

// Register mounts the admin routes on r. Auth is the caller's concern.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/admin/registrations", h.ListRegistrations)
	r.GET("/admin/stats", h.Stats)
	r.GET("/admin/registrations/export", h.ExportRegistrations)
	r.POST("/admin/registrations/export", h.ArchiveRegistrations)
	r.GET("/admin/waitlist", h.ListWaitlist)
	r.GET("/admin/waitlist/export", h.ExportWaitlist)
	r.POST("/admin/index/reconcile", h.Reconcile)
}

func (h *Handler) location(c *gin.Context) (*time.Location, error) {
	tz := strings.TrimSpace(c.Query("tz"))
	if tz == "" {
		return h.deps.Location, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apperr.Validation("invalid tz", tz)
	}
	return loc, nil
}

func queryFrom(c *gin.Context) Query {
	return Query{
		Search:     c.Query("search"),
		Status:     c.Query("status"),
		Specialty:  c.Query("specialty"),
		Experience: c.Query("experience"),
		Country:    c.Query("country"),
		Sort:       c.Query("sort"),
	}
}

// filtered validates the query string, then returns the snapshot, its filtered view and the zone.
func (h *Handler) filtered(c *gin.Context) (all, matched []models.GuideRegistration, loc *time.Location, err error) {
	q := queryFrom(c)
	if err = q.Validate(); err != nil {
		return
	}
	if loc, err = h.location(c); err != nil {
		return
	}
	if all, err = h.deps.Facade.Snapshot(c.Request.Context()); err != nil {
		return
	}
	matched = Filter(all, q)
	return
}

// ListRegistrations handles GET /admin/registrations.
func (h *Handler) ListRegistrations(c *gin.Context) {
	all, matched, loc, err := h.filtered(c)
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to list registrations")
		return
	}
	response.OK(c, gin.H{
		"count":         len(matched),
		"registrations": matched,
		"stats":         ComputeStats(all, h.now(), loc),
	})
}

// Stats handles GET /admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	loc, err := h.location(c)
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to compute stats")
		return
	}
	all, err := h.deps.Facade.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to compute stats")
		return
	}
	response.OK(c, gin.H{"stats": ComputeStats(all, h.now(), loc)})
}

// ExportRegistrations handles GET /admin/registrations/export as a CSV download of the filtered view.
func (h *Handler) ExportRegistrations(c *gin.Context) {
	_, matched, loc, err := h.filtered(c)
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to export registrations")
		return
	}
	var buf bytes.Buffer
	if err := WriteRegistrationsCSV(&buf, matched, loc); err != nil {
		response.Error(c, h.logger, err, "not found", "failed to export registrations")
		return
	}
	h.attachment(c, "guias", loc, buf.Bytes())
}

// ArchiveRegistrations handles POST /admin/registrations/export by uploading the CSV to S3.
func (h *Handler) ArchiveRegistrations(c *gin.Context) {
	if h.deps.Exporter == nil {
		response.ServiceUnavailable(c, "export archive not configured")
		return
	}
	_, matched, loc, err := h.filtered(c)
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to export registrations")
		return
	}
	var buf bytes.Buffer
	if err := WriteRegistrationsCSV(&buf, matched, loc); err != nil {
		response.Error(c, h.logger, err, "not found", "failed to export registrations")
		return
	}
	key := storage.ExportKey("registrations", h.now().In(loc))
	url, expires, err := h.deps.Exporter.UploadExport(c.Request.Context(), key, buf.Bytes())
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to upload export")
		return
	}
	h.logger.Info("registrations export archived",
		zap.String("s3_key", key),
		zap.Int("rows", len(matched)),
		zap.String("requested_by", middleware.Subject(c)),
	)
	response.OK(c, gin.H{"key": key, "url": url, "expiresAt": expires})
}

// ListWaitlist handles GET /admin/waitlist.
func (h *Handler) ListWaitlist(c *gin.Context) {
	entries, err := h.deps.Waitlist.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to list waitlist")
		return
	}
	response.OK(c, gin.H{"count": len(entries), "entries": entries})
}

// ExportWaitlist handles GET /admin/waitlist/export.
func (h *Handler) ExportWaitlist(c *gin.Context) {
	loc, err := h.location(c)
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to export waitlist")
		return
	}
	entries, err := h.deps.Waitlist.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to export waitlist")
		return
	}
	var buf bytes.Buffer
	if err := WriteWaitlistCSV(&buf, entries, loc); err != nil {
		response.Error(c, h.logger, err, "not found", "failed to export waitlist")
		return
	}
	h.attachment(c, "waitlist", loc, buf.Bytes())
}

// Reconcile handles POST /admin/index/reconcile. With a queue the run is handed to the worker.
func (h *Handler) Reconcile(c *gin.Context) {
	if h.deps.Queue != nil {
		jobID, err := h.deps.Queue.EnqueueReconcile(c.Request.Context(), middleware.Subject(c))
		if err != nil {
			response.Error(c, h.logger, err, "not found", "failed to queue reconcile")
			return
		}
		response.OK(c, gin.H{"queued": true, "jobId": jobID})
		return
	}
	report, err := h.deps.Reconciler.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err, "not found", "failed to reconcile index")
		return
	}
	response.OK(c, gin.H{"report": report})
}

func (h *Handler) attachment(c *gin.Context, name string, loc *time.Location, body []byte) {
	filename := name + "-" + h.now().In(loc).Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, csvContentType, body)
}

// Package admin exposes the authenticated management API.
package admin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetsimposio/backend/internal/emaillogs"
	"github.com/vetsimposio/backend/internal/middleware"
	"github.com/vetsimposio/backend/internal/models"
	"github.com/vetsimposio/backend/internal/payments"
	"github.com/vetsimposio/backend/internal/pricing"
	"github.com/vetsimposio/backend/internal/registrations"
	"github.com/vetsimposio/backend/pkg/queue"
	"github.com/vetsimposio/backend/pkg/response"
)

// Handler handles the admin endpoints. All routes behind JWT middleware.
type Handler struct {
	repo    *registrations.Repository
	emails  *emaillogs.Repository
	engine  *payments.Engine
	pricing *pricing.Resolver
	queue   *queue.Queue
	logger  *zap.Logger
}

func NewHandler(repo *registrations.Repository, emails *emaillogs.Repository, engine *payments.Engine, resolver *pricing.Resolver, q *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, emails: emails, engine: engine, pricing: resolver, queue: q, logger: logger}
}

// ListAttendees handles GET /admin/attendees. Optional ?status= filter.
func (h *Handler) ListAttendees(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != models.StatusPending && status != models.StatusPaid {
		response.BadRequest(c, "invalid status filter")
		return
	}
	attendees, err := h.repo.List(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("list attendees failed", zap.Error(err))
		response.Internal(c, "failed to list attendees")
		return
	}
	response.OK(c, attendees)
}

// ExportAttendees handles GET /admin/attendees/export, streaming a CSV of
// every registration.
func (h *Handler) ExportAttendees(c *gin.Context) {
	attendees, err := h.repo.List(c.Request.Context(), "")
	if err != nil {
		h.logger.Error("export attendees failed", zap.Error(err))
		response.Internal(c, "failed to export attendees")
		return
	}

	filename := fmt.Sprintf("asistentes_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Nombre", "DNI", "Email", "Teléfono", "Categoría", "Institución", "Estado", "Método de pago", "Código de entrada", "Fecha de registro"})
	for _, a := range attendees {
		_ = w.Write([]string{
			a.FullName, a.DNI, a.Email, a.Phone, a.Role, a.Organization,
			a.Status, a.PaymentMethod, a.TicketCode,
			a.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	w.Flush()
}

// Stats handles GET /admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("stats failed", zap.Error(err))
		response.Internal(c, "failed to compute stats")
		return
	}
	// Estimate only: paid count times the current base price, ignoring
	// surcharges and tier changes over the sales window.
	estimated := float64(stats.Paid) * h.pricing.BasePriceAt(time.Now())
	response.OK(c, gin.H{
		"total":             stats.Total,
		"paid":              stats.Paid,
		"pending":           stats.Pending,
		"students":          stats.Students,
		"professionals":     stats.Professionals,
		"estimated_revenue": estimated,
		"currency":          h.pricing.Currency(),
	})
}

// MarkPaid handles POST /admin/attendees/:id/mark-paid, the manual override
// for payments confirmed out of band (bank transfer, cash at the door).
func (h *Handler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid attendee id")
		return
	}

	attendee, err := h.engine.MarkPaidManually(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, payments.ErrAttendeeNotFound) {
			response.NotFound(c, "attendee not found")
			return
		}
		h.logger.Error("manual mark paid failed", zap.Error(err), zap.String("attendee_id", id.String()))
		response.Internal(c, "failed to mark attendee as paid")
		return
	}
	h.logger.Info("attendee marked paid manually",
		zap.String("attendee_id", id.String()),
		zap.Any("admin_id", c.MustGet(middleware.ContextAdminID)),
	)
	response.OK(c, attendee)
}

// DeleteAttendee handles DELETE /admin/attendees/:id.
func (h *Handler) DeleteAttendee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid attendee id")
		return
	}
	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete attendee failed", zap.Error(err))
		response.Internal(c, "failed to delete attendee")
		return
	}
	if !deleted {
		response.NotFound(c, "attendee not found")
		return
	}
	response.NoContent(c)
}

// ListEmails handles GET /admin/emails. Optional ?type= and ?limit= filters.
func (h *Handler) ListEmails(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.emails.ListRecent(c.Request.Context(), c.Query("type"), limit)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err))
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, logs)
}

// ListUnreconciled handles GET /admin/unreconciled, showing approved charges
// whose registration row could not be updated.
func (h *Handler) ListUnreconciled(c *gin.Context) {
	entries, err := h.repo.ListUnreconciled(c.Request.Context())
	if err != nil {
		h.logger.Error("list unreconciled failed", zap.Error(err))
		response.Internal(c, "failed to list unreconciled payments")
		return
	}
	response.OK(c, entries)
}

// ScheduleRemindersRequest is the body for POST /admin/reminders.
type ScheduleRemindersRequest struct {
	DaysUntilEvent int `json:"days_until_event" binding:"required,min=1,max=60"`
}

// ScheduleReminders handles POST /admin/reminders, enqueueing a reminder
// blast for the background worker.
func (h *Handler) ScheduleReminders(c *gin.Context) {
	var req ScheduleRemindersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if h.queue == nil {
		response.ServiceUnavailable(c, "job queue not available")
		return
	}
	err := h.queue.EnqueueReminderBlast(c.Request.Context(), queue.ReminderBlastPayload{
		DaysUntilEvent: req.DaysUntilEvent,
	})
	if err != nil {
		h.logger.Error("enqueue reminder blast failed", zap.Error(err))
		response.Internal(c, "failed to schedule reminders")
		return
	}
	response.OK(c, gin.H{"scheduled": true, "days_until_event": req.DaysUntilEvent})
}

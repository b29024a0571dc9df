package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencare/care-scheduler/internal/audit"
	domain "github.com/opencare/care-scheduler/internal/domain/appointment"
	"github.com/opencare/care-scheduler/internal/dto"
	"github.com/opencare/care-scheduler/internal/httperr"
	"github.com/opencare/care-scheduler/internal/httpresp"
	"github.com/opencare/care-scheduler/internal/middleware"
	ucAppointment "github.com/opencare/care-scheduler/internal/usecase/appointment"
)

type AppointmentHandler struct {
	scheduler *ucAppointment.Scheduler
}

func NewAppointmentHandler(scheduler *ucAppointment.Scheduler) *AppointmentHandler {
	return &AppointmentHandler{scheduler: scheduler}
}

func requestMeta(c *gin.Context) audit.RequestMeta {
	return audit.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: middleware.GetRequestID(c),
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Invalid appointment id.")
		return 0, false
	}
	return uint(id), true
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	PatientID  uint `json:"patient_id" binding:"required"`
	ProviderID uint `json:"provider_id" binding:"required"`
	FacilityID uint `json:"facility_id" binding:"required"`

	AppointmentType string `json:"appointment_type"`
	Reason          string `json:"reason"`

	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type UpdateAppointmentRequest struct {
	PatientID  *uint `json:"patient_id"`
	ProviderID *uint `json:"provider_id"`
	FacilityID *uint `json:"facility_id"`

	AppointmentType *string `json:"appointment_type"`
	Reason          *string `json:"reason"`

	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// ======================================================
// CREATE / UPDATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	ap, err := h.scheduler.Create(c.Request.Context(), middleware.Principal(c), ucAppointment.CreateInput{
		PatientID:       req.PatientID,
		ProviderID:      req.ProviderID,
		FacilityID:      req.FacilityID,
		AppointmentType: req.AppointmentType,
		Reason:          req.Reason,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
	}, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Created(c, ap)
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	ap, err := h.scheduler.Update(c.Request.Context(), middleware.Principal(c), id, ucAppointment.UpdateInput{
		PatientID:       req.PatientID,
		ProviderID:      req.ProviderID,
		FacilityID:      req.FacilityID,
		AppointmentType: req.AppointmentType,
		Reason:          req.Reason,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
	}, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ap, err := h.scheduler.Cancel(c.Request.Context(), middleware.Principal(c), id, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ap, err := h.scheduler.Complete(c.Request.Context(), middleware.Principal(c), id, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) MarkNoShow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ap, err := h.scheduler.MarkNoShow(c.Request.Context(), middleware.Principal(c), id, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, ap)
}

// Delete cancels; rows are never erased here.
func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ap, err := h.scheduler.Delete(c.Request.Context(), middleware.Principal(c), id, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, ap)
}

// ======================================================
// CONFLICTS
// ======================================================

func (h *AppointmentHandler) CheckConflicts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	has, conflicts, err := h.scheduler.CheckConflicts(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if conflicts == nil {
		conflicts = map[domain.Axis][]domain.Summary{}
	}

	c.JSON(200, gin.H{
		"has_conflicts": has,
		"conflicts":     conflicts,
	})
}

// ======================================================
// READS
// ======================================================

func listFilterFromQuery(c *gin.Context) domain.ListFilter {
	parseID := func(name string) uint {
		v, _ := strconv.ParseUint(c.Query(name), 10, 32)
		return uint(v)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	return domain.ListFilter{
		ProviderID: parseID("provider"),
		PatientID:  parseID("patient"),
		FacilityID: parseID("facility"),
		Status:     c.Query("status"),
		Type:       c.Query("appointment_type"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
}

func (h *AppointmentHandler) List(c *gin.Context) {
	apps, err := h.scheduler.List(c.Request.Context(), middleware.Principal(c), listFilterFromQuery(c), requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, dto.FromAppointments(apps))
}

func (h *AppointmentHandler) Upcoming(c *gin.Context) {
	apps, err := h.scheduler.Upcoming(c.Request.Context(), middleware.Principal(c), listFilterFromQuery(c), requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, dto.FromAppointments(apps))
}

func (h *AppointmentHandler) ByProvider(c *gin.Context) {
	providerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid provider id.")
		return
	}
	filter := listFilterFromQuery(c)
	filter.ProviderID = uint(providerID)

	apps, err := h.scheduler.List(c.Request.Context(), middleware.Principal(c), filter, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, dto.FromAppointments(apps))
}

func (h *AppointmentHandler) ByPatient(c *gin.Context) {
	patientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid patient id.")
		return
	}
	filter := listFilterFromQuery(c)
	filter.PatientID = uint(patientID)

	apps, err := h.scheduler.List(c.Request.Context(), middleware.Principal(c), filter, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, dto.FromAppointments(apps))
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ap, err := h.scheduler.Get(c.Request.Context(), middleware.Principal(c), id, requestMeta(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, ap)
}

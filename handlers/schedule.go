// File: handlers/schedule.go
package handlers

import (
	"net/http"

	"github.com/roza-in/server/middleware"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/schedule"

	"github.com/gin-gonic/gin"
)

// ScheduleHandler serves hospital-staff schedule and override management.
type ScheduleHandler struct {
	Service schedule.Service
}

// CreateScheduleHandler handles POST /api/schedules.
func (h *ScheduleHandler) CreateScheduleHandler(c *gin.Context) {
	var ws models.WeeklySchedule
	if err := c.ShouldBindJSON(&ws); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if hid := middleware.HospitalID(c); hid != "" {
		ws.HospitalID = hid
	}

	created, err := h.Service.CreateSchedule(c.Request.Context(), ws)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateScheduleHandler handles PUT /api/schedules/:id.
func (h *ScheduleHandler) UpdateScheduleHandler(c *gin.Context) {
	var ws models.WeeklySchedule
	if err := c.ShouldBindJSON(&ws); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	ws.ID = c.Param("id")

	updated, err := h.Service.UpdateSchedule(c.Request.Context(), ws)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeactivateScheduleHandler handles DELETE /api/schedules/:id.
func (h *ScheduleHandler) DeactivateScheduleHandler(c *gin.Context) {
	if err := h.Service.DeactivateSchedule(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

// GetScheduleHandler handles GET /api/schedules/:id.
func (h *ScheduleHandler) GetScheduleHandler(c *gin.Context) {
	ws, err := h.Service.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

// ListDoctorSchedulesHandler handles GET /api/doctors/:doctorId/schedules.
func (h *ScheduleHandler) ListDoctorSchedulesHandler(c *gin.Context) {
	schedules, err := h.Service.ListDoctorSchedules(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// CreateOverrideHandler handles POST /api/overrides.
func (h *ScheduleHandler) CreateOverrideHandler(c *gin.Context) {
	var ov models.ScheduleOverride
	if err := c.ShouldBindJSON(&ov); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	ov.CreatedBy = middleware.SubjectID(c)
	if hid := middleware.HospitalID(c); hid != "" {
		ov.HospitalID = hid
	}

	created, err := h.Service.CreateOverride(c.Request.Context(), ov)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RemoveOverrideHandler handles DELETE /api/overrides/:id.
func (h *ScheduleHandler) RemoveOverrideHandler(c *gin.Context) {
	if err := h.Service.RemoveOverride(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// ListOverridesHandler handles GET /api/doctors/:doctorId/overrides.
func (h *ScheduleHandler) ListOverridesHandler(c *gin.Context) {
	overrides, err := h.Service.ListOverrides(c.Request.Context(), c.Param("doctorId"), c.Query("from"), c.Query("to"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"overrides": overrides})
}

// RegenerateDateHandler handles POST /api/admin/slots/regenerate.
func (h *ScheduleHandler) RegenerateDateHandler(c *gin.Context) {
	var input struct {
		DoctorID string `json:"doctor_id" binding:"required"`
		Date     string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Service.RegenerateDate(c.Request.Context(), input.DoctorID, input.Date); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "regenerated"})
}

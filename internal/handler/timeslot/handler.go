package timeslot

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthsync/healthsync-api/internal/handler"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/service/timeslot"
)

type Handler struct {
	service timeslot.TimeSlotService
}

func NewHandler(service timeslot.TimeSlotService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	slots := r.Group("/timeslots")
	{
		slots.GET("/", h.ListTimeSlots)
		slots.POST("/", h.CreateTimeSlot)
		slots.GET("/:id/", h.GetTimeSlot)
		slots.PUT("/:id/", h.UpdateTimeSlot)
		slots.DELETE("/:id/", h.DeleteTimeSlot)
	}
}

func (h *Handler) CreateTimeSlot(c *gin.Context) {
	var req model.CreateTimeSlotRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	slot, err := h.service.CreateTimeSlot(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (h *Handler) GetTimeSlot(c *gin.Context) {
	slot, err := h.service.GetTimeSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// ListTimeSlots accepts an optional doctor_id query parameter.
func (h *Handler) ListTimeSlots(c *gin.Context) {
	slots, err := h.service.ListTimeSlots(c.Request.Context(), model.TimeSlotFilter{DoctorID: c.Query("doctor_id")})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *Handler) UpdateTimeSlot(c *gin.Context) {
	var req model.UpdateTimeSlotRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	slot, err := h.service.UpdateTimeSlot(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (h *Handler) DeleteTimeSlot(c *gin.Context) {
	if err := h.service.DeleteTimeSlot(c.Request.Context(), c.Param("id")); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

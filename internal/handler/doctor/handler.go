package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthsync/healthsync-api/internal/handler"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/service/doctor"
)

type Handler struct {
	service doctor.DoctorService
}

func NewHandler(service doctor.DoctorService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("/", h.ListDoctors)
		doctors.POST("/", h.CreateDoctor)
		doctors.GET("/:id/", h.GetDoctor)
		doctors.PUT("/:id/", h.UpdateDoctor)
		doctors.DELETE("/:id/", h.DeleteDoctor)
		doctors.GET("/:id/summary/", h.GetSummary)
	}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d, err := h.service.CreateDoctor(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	d, err := h.service.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	var req model.UpdateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d, err := h.service.UpdateDoctor(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	if err := h.service.DeleteDoctor(c.Request.Context(), c.Param("id")); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

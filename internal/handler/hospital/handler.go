package hospital

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthsync/healthsync-api/internal/handler"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/service/hospital"
)

type Handler struct {
	service hospital.HospitalService
}

func NewHandler(service hospital.HospitalService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	hospitals := r.Group("/hospitals")
	{
		hospitals.GET("/", h.ListHospitals)
		hospitals.POST("/", h.CreateHospital)
		hospitals.GET("/:id/", h.GetHospital)
		hospitals.PUT("/:id/", h.UpdateHospital)
		hospitals.DELETE("/:id/", h.DeleteHospital)
	}
}

func (h *Handler) CreateHospital(c *gin.Context) {
	var req model.CreateHospitalRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.CreateHospital(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetHospital(c *gin.Context) {
	found, err := h.service.GetHospital(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) ListHospitals(c *gin.Context) {
	hospitals, err := h.service.ListHospitals(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hospitals)
}

func (h *Handler) UpdateHospital(c *gin.Context) {
	var req model.UpdateHospitalRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.UpdateHospital(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteHospital(c *gin.Context) {
	if err := h.service.DeleteHospital(c.Request.Context(), c.Param("id")); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

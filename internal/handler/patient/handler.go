package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthsync/healthsync-api/internal/handler"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/service/patient"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("/", h.ListPatients)
		patients.POST("/", h.CreatePatient)
		patients.GET("/:id/", h.GetPatient)
		patients.PUT("/:id/", h.UpdatePatient)
		patients.DELETE("/:id/", h.DeletePatient)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.CreatePatient(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.service.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.service.ListPatients(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, patients)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	var req model.UpdatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdatePatient(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	if err := h.service.DeletePatient(c.Request.Context(), c.Param("id")); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

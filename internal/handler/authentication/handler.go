package authentication

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthsync/healthsync-api/internal/handler"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/service/authentication"
)

type Handler struct {
	service authentication.AuthenticationService
}

func NewHandler(service authentication.AuthenticationService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/authentication")
	{
		auth.GET("/", h.List)
		auth.POST("/", h.Register)
		auth.POST("/login/", h.Login)
		auth.GET("/email/:email/", h.LookupByEmail)
		auth.GET("/:id/", h.Get)
		auth.PUT("/:id/", h.Update)
		auth.DELETE("/:id/", h.Delete)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	record, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) LookupByEmail(c *gin.Context) {
	ref, err := h.service.LookupByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

func (h *Handler) Get(c *gin.Context) {
	record, err := h.service.GetAuthentication(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) List(c *gin.Context) {
	records, err := h.service.ListAuthentication(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateAuthenticationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	record, err := h.service.UpdateAuthentication(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.DeleteAuthentication(c.Request.Context(), c.Param("id")); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthsync/healthsync-api/internal/handler"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/service/booking"
)

type Handler struct {
	service booking.BookingService
}

func NewHandler(service booking.BookingService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("/", h.ListBookings)
		bookings.POST("/", h.CreateBooking)
		bookings.GET("/:id/", h.GetBooking)
		bookings.PUT("/:id/", h.UpdateBooking)
		bookings.DELETE("/:id/", h.DeleteBooking)
	}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookings filters on the doctor_id, patient_id and date query
// parameters, each optional.
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(),
		c.Query("doctor_id"), c.Query("patient_id"), c.Query("date"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	var req model.UpdateBookingRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	b, err := h.service.UpdateBooking(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	if err := h.service.DeleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

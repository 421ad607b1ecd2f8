package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spiritschool/booking-api/internal/middleware"
	"github.com/spiritschool/booking-api/internal/models"
	"github.com/spiritschool/booking-api/internal/service"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
	"github.com/spiritschool/booking-api/pkg/response"
)

// BookingHandler exposes claiming, cancellation and booking listings.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// Claim godoc
// @Summary Claim an availability slot
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.ClaimRequest true "Claim payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Claim(c *gin.Context) {
	var req service.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.service.Claim(c.Request.Context(), req, middleware.CurrentRequester(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// Cancel godoc
// @Summary Cancel a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	err := h.service.Cancel(c.Request.Context(), c.Param("id"), middleware.CurrentRequester(c), middleware.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get one booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), c.Param("id"), middleware.CurrentRequester(c), middleware.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// ListMine godoc
// @Summary List the caller's bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bookings/mine [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	bookings, err := h.service.ListMine(c.Request.Context(), middleware.CurrentRequester(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// List godoc
// @Summary List bookings (admin)
// @Tags Bookings
// @Produce json
// @Param teacher_id query string false "Filter by teacher"
// @Param status query string false "Filter by status"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter := models.BookingFilter{
		TeacherID: c.Query("teacher_id"),
		Status:    models.BookingStatus(c.Query("status")),
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	if !from.IsZero() {
		filter.From = &from
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}
	if !to.IsZero() {
		filter.To = &to
	}
	if page, parseErr := strconv.Atoi(c.DefaultQuery("page", "1")); parseErr == nil {
		filter.Page = page
	}
	if size, parseErr := strconv.Atoi(c.DefaultQuery("limit", "20")); parseErr == nil {
		filter.PageSize = size
	}

	bookings, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, pagination)
}

type assignClassLevelRequest struct {
	ClassLevelID *string `json:"class_level_id"`
}

// AssignClassLevel godoc
// @Summary Tag a booking with a class level (admin)
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body assignClassLevelRequest true "Class level"
// @Success 204
// @Router /admin/bookings/{id}/class-level [put]
func (h *BookingHandler) AssignClassLevel(c *gin.Context) {
	var req assignClassLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.AssignClassLevel(c.Request.Context(), c.Param("id"), req.ClassLevelID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

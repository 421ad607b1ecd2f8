package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spiritschool/booking-api/internal/models"
	"github.com/spiritschool/booking-api/internal/service"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
	"github.com/spiritschool/booking-api/pkg/response"
)

// AvailabilityHandler exposes the public booking calendar.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// OpenWindows godoc
// @Summary List open booking windows
// @Tags Availability
// @Produce json
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) OpenWindows(c *gin.Context) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}

	windows, err := h.service.OpenWindows(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

// TeacherSlots godoc
// @Summary List one teacher's slots
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Param booked query bool false "Filter by booked state"
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/slots [get]
func (h *AvailabilityHandler) TeacherSlots(c *gin.Context) {
	filter := models.SlotFilter{TeacherID: c.Param("id")}

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
	if raw := c.Query("booked"); raw != "" {
		booked, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "booked must be true or false"))
			return
		}
		filter.Booked = &booked
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, parseErr := strconv.Atoi(raw); parseErr == nil {
			filter.Limit = limit
		}
	}

	slots, err := h.service.TeacherSlots(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// parseTimeQuery reads an optional RFC3339 or date-only query parameter.
func parseTimeQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, name+" must be RFC3339 or YYYY-MM-DD")
}

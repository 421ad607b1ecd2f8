package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiritschool/booking-api/internal/service"
	"github.com/spiritschool/booking-api/pkg/response"
)

// ClassLevelHandler exposes the class level catalogue.
type ClassLevelHandler struct {
	service *service.ClassLevelService
}

// NewClassLevelHandler constructs a class level handler.
func NewClassLevelHandler(svc *service.ClassLevelService) *ClassLevelHandler {
	return &ClassLevelHandler{service: svc}
}

// List godoc
// @Summary List active class levels
// @Tags ClassLevels
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /class-levels [get]
func (h *ClassLevelHandler) List(c *gin.Context) {
	levels, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

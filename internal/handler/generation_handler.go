package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiritschool/booking-api/internal/service"
	"github.com/spiritschool/booking-api/pkg/response"
)

// GenerationHandler triggers generation runs outside the daily schedule.
type GenerationHandler struct {
	scheduler *service.GenerationScheduler
}

// NewGenerationHandler constructs a generation handler.
func NewGenerationHandler(scheduler *service.GenerationScheduler) *GenerationHandler {
	return &GenerationHandler{scheduler: scheduler}
}

// RunAll godoc
// @Summary Enqueue generation for all active teachers (admin)
// @Tags Teachers
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /admin/generation/run [post]
func (h *GenerationHandler) RunAll(c *gin.Context) {
	if err := h.scheduler.EnqueueAll(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "enqueued"}, nil)
}

package handler

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spiritschool/booking-api/internal/service"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
	"github.com/spiritschool/booking-api/pkg/response"
	"github.com/spiritschool/booking-api/pkg/storage"
)

// ExportHandler exposes booking exports and signed downloads.
type ExportHandler struct {
	service *service.ExportService
	store   *storage.LocalStorage
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService, store *storage.LocalStorage) *ExportHandler {
	return &ExportHandler{service: svc, store: store}
}

// ExportDay godoc
// @Summary Export one day's bookings (admin)
// @Tags Exports
// @Produce json
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param format query string true "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /admin/exports/bookings [post]
func (h *ExportHandler) ExportDay(c *gin.Context) {
	rawDate := c.Query("date")
	day, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.service.ExportDay(c.Request.Context(), day, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download an export via signed link
// @Tags Exports
// @Param token query string true "Signed token"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	relPath, err := h.service.Resolve(token)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.store.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export no longer available"))
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), filepath.Base(file.Name()))
}

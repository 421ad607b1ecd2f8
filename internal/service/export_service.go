package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
	"github.com/spiritschool/booking-api/pkg/export"
	"github.com/spiritschool/booking-api/pkg/storage"
)

type exportBookingRepository interface {
	ListForDay(ctx context.Context, day time.Time) ([]models.BookingDetail, error)
}

// ExportFormat enumerates supported export encodings.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult describes a rendered export and its signed download link.
type ExportResult struct {
	ExportID  string    `json:"export_id"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	RowCount  int       `json:"row_count"`
	SignedURL string    `json:"signed_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders a day's bookings to CSV or PDF on local storage and
// hands out signed download links.
type ExportService struct {
	bookings exportBookingRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(bookings exportBookingRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bookings: bookings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		store:    store,
		signer:   signer,
		logger:   logger,
	}
}

var exportHeaders = []string{"Time", "Teacher", "Student", "Email", "Phone", "Venue", "Class"}

// ExportDay renders the active bookings of one day.
func (s *ExportService) ExportDay(ctx context.Context, day time.Time, format ExportFormat) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	bookings, err := s.bookings.ListForDay(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(bookings))}
	for _, b := range bookings {
		row := map[string]string{
			"Time":    fmt.Sprintf("%s - %s", b.StartAt.Format("15:04"), b.EndAt.Format("15:04")),
			"Teacher": b.TeacherName,
			"Student": b.StudentName,
			"Email":   b.StudentEmail,
		}
		if b.StudentPhone != nil {
			row["Phone"] = *b.StudentPhone
		}
		if b.VenueName != nil {
			row["Venue"] = *b.VenueName
		}
		if b.ClassCode != nil {
			row["Class"] = *b.ClassCode
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	dayLabel := day.Format("2006-01-02")
	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Bookings "+dayLabel)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("bookings-%s-%s.%s", dayLabel, exportID[:8], format)
	relPath, err := s.store.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	signedURL, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Sugar().Infow("export rendered", "export_id", exportID, "day", dayLabel, "format", format, "rows", len(dataset.Rows))
	return &ExportResult{
		ExportID:  exportID,
		Filename:  filename,
		Format:    string(format),
		RowCount:  len(dataset.Rows),
		SignedURL: signedURL,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve validates a signed token and returns the stored file path.
func (s *ExportService) Resolve(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	return relPath, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type bookingRepository interface {
	ClaimSlot(ctx context.Context, slotID string, booking *models.Booking) error
	ClaimWindow(ctx context.Context, startAt, endAt time.Time, booking *models.Booking) error
	Cancel(ctx context.Context, bookingID string) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.BookingDetail, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error)
	SetClassLevel(ctx context.Context, bookingID string, classLevelID *string) error
}

type classLevelReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassLevel, error)
}

type bookingCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type claimRecorder interface {
	ObserveClaim(outcome string)
	ObserveCancellation()
}

// BookingService orchestrates the claim and cancellation flows. Contention is
// decided entirely inside the repository transactions; this layer shapes
// requests, snapshots requester contact details and fans out side effects.
type BookingService struct {
	bookings    bookingRepository
	classLevels classLevelReader
	cache       bookingCacheInvalidator
	metrics     claimRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewBookingService constructs the service.
func NewBookingService(bookings bookingRepository, classLevels classLevelReader, cache bookingCacheInvalidator, metrics claimRecorder, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:    bookings,
		classLevels: classLevels,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// ClaimRequest describes a booking attempt. Either SlotID or the StartAt and
// EndAt pair must be supplied. Contact fields missing from the payload are
// filled from the authenticated requester.
type ClaimRequest struct {
	SlotID       string     `json:"slot_id"`
	StartAt      *time.Time `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	StudentName  string     `json:"student_name"`
	StudentEmail string     `json:"student_email" validate:"omitempty,email"`
	StudentPhone *string    `json:"student_phone"`
	ClassLevelID *string    `json:"class_level_id"`
}

// Claim attempts to book a slot for the requester. A SlotID claim targets one
// specific slot; a window claim takes any open slot matching the instant pair.
func (s *BookingService) Claim(ctx context.Context, req ClaimRequest, requester *models.Requester) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	booking, err := s.buildBooking(ctx, req, requester)
	if err != nil {
		return nil, err
	}

	switch {
	case req.SlotID != "":
		err = s.bookings.ClaimSlot(ctx, req.SlotID, booking)
	case req.StartAt != nil && req.EndAt != nil:
		if !req.EndAt.After(*req.StartAt) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_at must be after start_at")
		}
		err = s.bookings.ClaimWindow(ctx, req.StartAt.UTC(), req.EndAt.UTC(), booking)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "either slot_id or start_at and end_at are required")
	}

	if err != nil {
		s.recordClaimFailure(err)
		if appErrors.Is(err, appErrors.ErrSlotGone.Code) || appErrors.Is(err, appErrors.ErrSlotInvalid.Code) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim slot")
	}

	if s.metrics != nil {
		s.metrics.ObserveClaim(ClaimOutcomeBooked)
	}
	s.invalidateAvailability(ctx)
	s.logger.Sugar().Infow("slot claimed", "booking_id", booking.ID, "slot_id", booking.SlotID, "teacher_id", booking.TeacherID)
	return booking, nil
}

func (s *BookingService) buildBooking(ctx context.Context, req ClaimRequest, requester *models.Requester) (*models.Booking, error) {
	booking := &models.Booking{
		StudentName:  req.StudentName,
		StudentEmail: req.StudentEmail,
		StudentPhone: req.StudentPhone,
	}

	if requester != nil {
		booking.UserID = &requester.UserID
		if booking.StudentName == "" {
			booking.StudentName = requester.Name
		}
		if booking.StudentEmail == "" {
			booking.StudentEmail = requester.Email
		}
		if booking.StudentPhone == nil {
			booking.StudentPhone = requester.Phone
		}
	}

	if booking.StudentName == "" || booking.StudentEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student name and email are required")
	}

	if req.ClassLevelID != nil && *req.ClassLevelID != "" {
		if _, err := s.classLevels.FindByID(ctx, *req.ClassLevelID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown class level")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class level")
		}
		booking.ClassLevelID = req.ClassLevelID
	}

	return booking, nil
}

func (s *BookingService) recordClaimFailure(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case appErrors.Is(err, appErrors.ErrSlotGone.Code):
		s.metrics.ObserveClaim(ClaimOutcomeSlotGone)
	case appErrors.Is(err, appErrors.ErrSlotInvalid.Code):
		s.metrics.ObserveClaim(ClaimOutcomeSlotInvalid)
	default:
		s.metrics.ObserveClaim(ClaimOutcomeError)
	}
}

// Cancel cancels a booking. Non-admin requesters may only cancel their own.
func (s *BookingService) Cancel(ctx context.Context, bookingID string, requester *models.Requester, isAdmin bool) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if !isAdmin {
		if requester == nil || booking.UserID == nil || *booking.UserID != requester.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another user")
		}
	}

	if err := s.bookings.Cancel(ctx, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		if appErrors.Is(err, appErrors.ErrAlreadyCancelled.Code) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}

	if s.metrics != nil {
		s.metrics.ObserveCancellation()
	}
	s.invalidateAvailability(ctx)
	s.logger.Sugar().Infow("booking cancelled", "booking_id", bookingID)
	return nil
}

// Get returns a booking visible to the requester.
func (s *BookingService) Get(ctx context.Context, bookingID string, requester *models.Requester, isAdmin bool) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if !isAdmin {
		if requester == nil || booking.UserID == nil || *booking.UserID != requester.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another user")
		}
	}
	return booking, nil
}

// ListMine returns the requester's bookings.
func (s *BookingService) ListMine(ctx context.Context, requester *models.Requester) ([]models.BookingDetail, error) {
	if requester == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	bookings, err := s.bookings.ListByUser(ctx, requester.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, nil
}

// List returns bookings matching the filter with pagination (admin).
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return bookings, pagination, nil
}

// AssignClassLevel tags a booking with a class level (admin).
func (s *BookingService) AssignClassLevel(ctx context.Context, bookingID string, classLevelID *string) error {
	if _, err := s.bookings.FindByID(ctx, bookingID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if classLevelID != nil && *classLevelID != "" {
		if _, err := s.classLevels.FindByID(ctx, *classLevelID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrValidation, "unknown class level")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class level")
		}
	}
	if err := s.bookings.SetClassLevel(ctx, bookingID, classLevelID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign class level")
	}
	return nil
}

func (s *BookingService) invalidateAvailability(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "availability:*"); err != nil {
		s.logger.Sugar().Warnw("availability cache invalidation failed", "error", err)
	}
}

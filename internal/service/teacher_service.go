package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type teacherSlotRepository interface {
	InsertBatch(ctx context.Context, slots []models.AvailabilitySlot) error
	FindByID(ctx context.Context, id string) (*models.AvailabilitySlot, error)
	DeleteUnbooked(ctx context.Context, id, teacherID string) (int64, error)
}

// TeacherService manages teacher records and the admin slot surface next to
// the generator: single and bulk manual slot creation, and slot removal.
type TeacherService struct {
	teachers  teacherRepository
	slots     teacherSlotRepository
	cache     bookingCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the service.
func NewTeacherService(teachers teacherRepository, slots teacherSlotRepository, cache bookingCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{teachers: teachers, slots: slots, cache: cache, validator: validate, logger: logger}
}

// TeacherRequest describes create and update payloads.
type TeacherRequest struct {
	Name           string  `json:"name" validate:"required"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Bio            *string `json:"bio"`
	DurationMin    int     `json:"duration_min"`
	ShiftStart     *string `json:"shift_start"`
	ShiftEnd       *string `json:"shift_end"`
	BreakStart     *string `json:"break_start"`
	BreakEnd       *string `json:"break_end"`
	DefaultVenueID *string `json:"default_venue_id"`
	Active         *bool   `json:"active"`
}

// SlotWindow is one manual slot creation entry. The window is subdivided into
// lesson-length slots; a window shorter than one lesson yields nothing.
type SlotWindow struct {
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
	VenueID *string   `json:"venue_id"`
}

// BulkSlotRequest creates slots over a date range on selected weekdays, each
// day getting the same time-of-day window.
type BulkSlotRequest struct {
	FromDate  string  `json:"from_date" validate:"required"`
	ToDate    string  `json:"to_date" validate:"required"`
	Weekdays  []int   `json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	VenueID   *string `json:"venue_id"`
}

// Bound on slots minted from one manual window.
const maxSlotsPerWindow = 200

func (s *TeacherService) applyRequest(teacher *models.Teacher, req TeacherRequest) error {
	shiftStart, err := parseTimeOfDay(req.ShiftStart, "shift_start")
	if err != nil {
		return err
	}
	shiftEnd, err := parseTimeOfDay(req.ShiftEnd, "shift_end")
	if err != nil {
		return err
	}
	breakStart, err := parseTimeOfDay(req.BreakStart, "break_start")
	if err != nil {
		return err
	}
	breakEnd, err := parseTimeOfDay(req.BreakEnd, "break_end")
	if err != nil {
		return err
	}

	if (shiftStart == nil) != (shiftEnd == nil) {
		return appErrors.Clone(appErrors.ErrValidation, "shift_start and shift_end must be set together")
	}
	if (breakStart == nil) != (breakEnd == nil) {
		return appErrors.Clone(appErrors.ErrValidation, "break_start and break_end must be set together")
	}
	if breakStart != nil && shiftStart == nil {
		return appErrors.Clone(appErrors.ErrValidation, "a break requires a shift")
	}

	teacher.Name = req.Name
	teacher.Email = req.Email
	teacher.Bio = req.Bio
	teacher.DurationMin = req.DurationMin
	teacher.ShiftStart = shiftStart
	teacher.ShiftEnd = shiftEnd
	teacher.BreakStart = breakStart
	teacher.BreakEnd = breakEnd
	teacher.DefaultVenueID = req.DefaultVenueID
	if req.Active != nil {
		teacher.Active = *req.Active
	}
	return nil
}

func parseTimeOfDay(raw *string, field string) (*models.TimeOfDay, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t := models.TimeOfDay(*raw)
	if !t.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be HH:MM")
	}
	return &t, nil
}

// Create registers a new teacher.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	teacher := &models.Teacher{Active: true, DurationMin: models.DefaultLessonDurationMin}
	if err := s.applyRequest(teacher, req); err != nil {
		return nil, err
	}
	if teacher.DurationMin == 0 {
		teacher.DurationMin = models.DefaultLessonDurationMin
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.logger.Sugar().Infow("teacher created", "teacher_id", teacher.ID)
	return teacher, nil
}

// Update rewrites a teacher's profile and shift configuration. Shift changes
// affect future generation runs only; already minted slots stay as they are.
func (s *TeacherService) Update(ctx context.Context, id string, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.applyRequest(teacher, req); err != nil {
		return nil, err
	}
	if err := s.teachers.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	s.invalidate(ctx)
	return teacher, nil
}

// Get returns one teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// List returns teachers matching the filter.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error) {
	teachers, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// SetActive toggles a teacher. Deactivating hides the teacher from
// availability and blocks claims on their open slots without deleting data.
func (s *TeacherService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.teachers.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "teacher not found")
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a teacher.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.teachers.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	s.invalidate(ctx)
	return nil
}

// CreateSlots mints manual slots for a teacher. Each window is walked in
// lesson-length steps; used for one-off windows outside the recurring shift.
func (s *TeacherService) CreateSlots(ctx context.Context, teacherID string, windows []SlotWindow) ([]models.AvailabilitySlot, error) {
	if len(windows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one window is required")
	}
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	var slots []models.AvailabilitySlot
	for _, window := range windows {
		if !window.EndAt.After(window.StartAt) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_at must be after start_at")
		}
		expanded, err := expandWindow(teacher, window)
		if err != nil {
			return nil, err
		}
		slots = append(slots, expanded...)
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "windows are shorter than one lesson")
	}

	if err := s.slots.InsertBatch(ctx, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slots")
	}
	s.invalidate(ctx)
	s.logger.Sugar().Infow("manual slots created", "teacher_id", teacher.ID, "count", len(slots))
	return slots, nil
}

// BulkCreateSlots walks a date range and mints the same daily time-of-day
// window on each selected weekday.
func (s *TeacherService) BulkCreateSlots(ctx context.Context, teacherID string, req BulkSlotRequest) ([]models.AvailabilitySlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	fromDay, err := time.ParseInLocation("2006-01-02", req.FromDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from_date must be YYYY-MM-DD")
	}
	toDay, err := time.ParseInLocation("2006-01-02", req.ToDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date must be YYYY-MM-DD")
	}
	if toDay.Before(fromDay) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date must not precede from_date")
	}
	startTime, err := parseTimeOfDay(&req.StartTime, "start_time")
	if err != nil {
		return nil, err
	}
	endTime, err := parseTimeOfDay(&req.EndTime, "end_time")
	if err != nil {
		return nil, err
	}

	wanted := make(map[time.Weekday]bool, len(req.Weekdays))
	for _, wd := range req.Weekdays {
		wanted[time.Weekday(wd)] = true
	}

	var windows []SlotWindow
	startMin, _ := startTime.Minutes()
	endMin, _ := endTime.Minutes()
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		if !wanted[day.Weekday()] {
			continue
		}
		windowStart := day.Add(time.Duration(startMin) * time.Minute)
		windowEnd := day.Add(time.Duration(endMin) * time.Minute)
		if !windowEnd.After(windowStart) {
			windowEnd = windowEnd.AddDate(0, 0, 1)
		}
		windows = append(windows, SlotWindow{StartAt: windowStart, EndAt: windowEnd, VenueID: req.VenueID})
	}
	if len(windows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no matching weekdays in range")
	}
	return s.CreateSlots(ctx, teacherID, windows)
}

// expandWindow subdivides one window into lesson-length slots in the
// generator's manner, bounded by maxSlotsPerWindow.
func expandWindow(teacher *models.Teacher, window SlotWindow) ([]models.AvailabilitySlot, error) {
	venueID := window.VenueID
	if venueID == nil {
		venueID = teacher.DefaultVenueID
	}
	duration := time.Duration(teacher.ClampedDuration()) * time.Minute
	windowStart := window.StartAt.UTC()
	windowEnd := window.EndAt.UTC()
	day := midnightUTC(windowStart)

	var out []models.AvailabilitySlot
	for cur := windowStart; !cur.Add(duration).After(windowEnd); cur = cur.Add(duration) {
		if len(out) >= maxSlotsPerWindow {
			return nil, appErrors.Clone(appErrors.ErrValidation, "window produces too many slots")
		}
		out = append(out, models.AvailabilitySlot{
			TeacherID:    teacher.ID,
			StartAt:      cur,
			EndAt:        cur.Add(duration),
			VenueID:      venueID,
			BusinessDate: day,
		})
	}
	return out, nil
}

// DeleteSlot removes an open slot. A slot with an active booking is refused;
// cancel the booking first.
func (s *TeacherService) DeleteSlot(ctx context.Context, teacherID, slotID string) error {
	affected, err := s.slots.DeleteUnbooked(ctx, slotID, teacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slot")
	}
	if affected == 0 {
		slot, findErr := s.slots.FindByID(ctx, slotID)
		if findErr == nil && slot.TeacherID == teacherID && slot.IsBooked {
			return appErrors.ErrSlotBooked
		}
		return appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *TeacherService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "availability:*"); err != nil {
		s.logger.Sugar().Warnw("availability cache invalidation failed", "error", err)
	}
}

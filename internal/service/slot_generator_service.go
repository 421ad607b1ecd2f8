package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/internal/models"
	"github.com/spiritschool/booking-api/pkg/config"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type generatorSlotRepository interface {
	InsertBatch(ctx context.Context, slots []models.AvailabilitySlot) error
	CountForTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) (int, error)
}

type generatorTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type slotsGeneratedRecorder interface {
	AddSlotsGenerated(count int)
}

// SlotGeneratorService expands a teacher's recurring shift configuration into
// concrete availability slots. Expansion is deterministic: the same teacher
// configuration and date range always yields the same instants. Generation is
// not idempotent against the store; re-running a covered range mints duplicate
// slots, so runs over a non-empty range carry a warning instead of silently
// proceeding.
type SlotGeneratorService struct {
	slots    generatorSlotRepository
	teachers generatorTeacherRepository
	cfg      config.GeneratorConfig
	metrics  slotsGeneratedRecorder
	logger   *zap.Logger
}

// NewSlotGeneratorService constructs the generator.
func NewSlotGeneratorService(slots generatorSlotRepository, teachers generatorTeacherRepository, cfg config.GeneratorConfig, metrics slotsGeneratedRecorder, logger *zap.Logger) *SlotGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 14
	}
	if cfg.MaxSlotsPerDay <= 0 {
		cfg.MaxSlotsPerDay = 200
	}
	return &SlotGeneratorService{slots: slots, teachers: teachers, cfg: cfg, metrics: metrics, logger: logger}
}

// GenerateForTeacher expands and persists slots for one teacher across a date
// range starting at from (truncated to midnight UTC). A days value of zero
// falls back to the configured horizon. The whole range commits as a single
// batch.
func (s *SlotGeneratorService) GenerateForTeacher(ctx context.Context, teacherID string, from time.Time, days int) (*models.GenerationResult, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is inactive")
	}

	result := &models.GenerationResult{TeacherID: teacher.ID}
	if !teacher.HasShift() {
		result.Warning = "teacher has no shift configured"
		return result, nil
	}

	if days <= 0 {
		days = s.cfg.HorizonDays
	}
	start := midnightUTC(from)
	end := start.AddDate(0, 0, days)

	existing, err := s.slots.CountForTeacherBetween(ctx, teacher.ID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect existing slots")
	}
	if existing > 0 {
		result.Warning = fmt.Sprintf("range already holds %d slots; re-running generation creates duplicates", existing)
	}

	var batch []models.AvailabilitySlot
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		daySlots, err := s.expandDay(teacher, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift configuration")
		}
		batch = append(batch, daySlots...)
	}

	if err := s.slots.InsertBatch(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated slots")
	}

	result.CreatedCount = len(batch)
	if s.metrics != nil {
		s.metrics.AddSlotsGenerated(len(batch))
	}
	s.logger.Sugar().Infow("slots generated",
		"teacher_id", teacher.ID,
		"from", start.Format("2006-01-02"),
		"days", days,
		"created", len(batch),
		"warning", result.Warning,
	)
	return result, nil
}

// GenerateDailyRun expands the configured horizon for every active teacher.
// Individual teacher failures are reported in the results, not fatal to the
// run.
func (s *SlotGeneratorService) GenerateDailyRun(ctx context.Context, from time.Time) ([]models.GenerationResult, error) {
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active teachers")
	}

	results := make([]models.GenerationResult, 0, len(teachers))
	for _, teacher := range teachers {
		res, err := s.GenerateForTeacher(ctx, teacher.ID, from, s.cfg.HorizonDays)
		if err != nil {
			s.logger.Sugar().Errorw("daily generation failed for teacher", "teacher_id", teacher.ID, "error", err)
			results = append(results, models.GenerationResult{TeacherID: teacher.ID, Warning: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// expandDay turns one calendar day of a teacher's shift into slots. All
// instants are derived from midnight UTC of the given day. A shift whose end
// reads at or before its start wraps past midnight into the next day. The
// break window is clamped to the shift, and a slot overlapping the break
// jumps straight to the break's end before trying again.
func (s *SlotGeneratorService) expandDay(teacher *models.Teacher, day time.Time) ([]models.AvailabilitySlot, error) {
	shiftStartMin, err := teacher.ShiftStart.Minutes()
	if err != nil {
		return nil, fmt.Errorf("shift start: %w", err)
	}
	shiftEndMin, err := teacher.ShiftEnd.Minutes()
	if err != nil {
		return nil, fmt.Errorf("shift end: %w", err)
	}

	shiftStart := day.Add(time.Duration(shiftStartMin) * time.Minute)
	shiftEnd := day.Add(time.Duration(shiftEndMin) * time.Minute)
	if !shiftEnd.After(shiftStart) {
		shiftEnd = shiftEnd.AddDate(0, 0, 1)
	}

	var breakStart, breakEnd time.Time
	hasBreak := teacher.HasBreak()
	if hasBreak {
		breakStartMin, err := teacher.BreakStart.Minutes()
		if err != nil {
			return nil, fmt.Errorf("break start: %w", err)
		}
		breakEndMin, err := teacher.BreakEnd.Minutes()
		if err != nil {
			return nil, fmt.Errorf("break end: %w", err)
		}
		breakStart = day.Add(time.Duration(breakStartMin) * time.Minute)
		breakEnd = day.Add(time.Duration(breakEndMin) * time.Minute)
		if !breakEnd.After(breakStart) {
			breakEnd = breakEnd.AddDate(0, 0, 1)
		}
		// An overnight shift can place the break past midnight.
		if !breakEnd.After(shiftStart) {
			breakStart = breakStart.AddDate(0, 0, 1)
			breakEnd = breakEnd.AddDate(0, 0, 1)
		}
		if breakStart.Before(shiftStart) {
			breakStart = shiftStart
		}
		if breakEnd.After(shiftEnd) {
			breakEnd = shiftEnd
		}
		if !breakEnd.After(breakStart) {
			hasBreak = false
		}
	}

	duration := time.Duration(teacher.ClampedDuration()) * time.Minute

	var out []models.AvailabilitySlot
	cur := shiftStart
	for iter := 0; ; iter++ {
		if iter >= s.cfg.MaxSlotsPerDay {
			return nil, fmt.Errorf("per-day cap of %d iterations exceeded for %s", s.cfg.MaxSlotsPerDay, day.Format("2006-01-02"))
		}
		slotEnd := cur.Add(duration)
		if slotEnd.After(shiftEnd) {
			break
		}
		if hasBreak && cur.Before(breakEnd) && slotEnd.After(breakStart) {
			cur = breakEnd
			continue
		}
		out = append(out, models.AvailabilitySlot{
			TeacherID:    teacher.ID,
			StartAt:      cur,
			EndAt:        slotEnd,
			VenueID:      teacher.DefaultVenueID,
			BusinessDate: day,
		})
		cur = slotEnd
	}
	return out, nil
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

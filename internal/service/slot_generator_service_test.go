package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritschool/booking-api/internal/models"
	"github.com/spiritschool/booking-api/pkg/config"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type genSlotRepoStub struct {
	batches   [][]models.AvailabilitySlot
	existing  int
	countErr  error
	insertErr error
}

func (s *genSlotRepoStub) InsertBatch(ctx context.Context, slots []models.AvailabilitySlot) error {
	s.batches = append(s.batches, slots)
	return s.insertErr
}

func (s *genSlotRepoStub) CountForTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) (int, error) {
	return s.existing, s.countErr
}

type genTeacherRepoStub struct {
	teachers map[string]*models.Teacher
	active   []models.Teacher
	listErr  error
}

func (s *genTeacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.teachers[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func (s *genTeacherRepoStub) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return s.active, s.listErr
}

func tod(v string) *models.TimeOfDay {
	t := models.TimeOfDay(v)
	return &t
}

func newGeneratorForTest(slots *genSlotRepoStub, teachers *genTeacherRepoStub, cfg config.GeneratorConfig) *SlotGeneratorService {
	return NewSlotGeneratorService(slots, teachers, cfg, nil, nil)
}

func shiftTeacher(id string, duration int, shiftStart, shiftEnd string) *models.Teacher {
	return &models.Teacher{
		ID:          id,
		Name:        "Teacher " + id,
		DurationMin: duration,
		ShiftStart:  tod(shiftStart),
		ShiftEnd:    tod(shiftEnd),
		Active:      true,
	}
}

func TestGenerateForTeacherExactShiftCoverage(t *testing.T) {
	slots := &genSlotRepoStub{}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{
		"t-1": shiftTeacher("t-1", 45, "09:00", "12:00"),
	}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{})

	from := time.Date(2026, time.September, 1, 10, 30, 0, 0, time.UTC)
	result, err := svc.GenerateForTeacher(context.Background(), "t-1", from, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, result.CreatedCount)
	assert.Empty(t, result.Warning)

	require.Len(t, slots.batches, 1)
	batch := slots.batches[0]
	require.Len(t, batch, 4)

	day := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day.Add(9*time.Hour), batch[0].StartAt)
	for i, slot := range batch {
		assert.Equal(t, slot.StartAt.Add(45*time.Minute), slot.EndAt)
		assert.Equal(t, day, slot.BusinessDate)
		if i > 0 {
			assert.Equal(t, batch[i-1].EndAt, slot.StartAt)
		}
	}
	assert.Equal(t, day.Add(12*time.Hour), batch[3].EndAt)
}

func TestGenerateForTeacherBreakSplitsShift(t *testing.T) {
	teacher := shiftTeacher("t-1", 30, "09:00", "12:00")
	teacher.BreakStart = tod("10:00")
	teacher.BreakEnd = tod("10:30")

	slots := &genSlotRepoStub{}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{"t-1": teacher}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{})

	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateForTeacher(context.Background(), "t-1", from, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, result.CreatedCount)

	batch := slots.batches[0]
	starts := make([]string, 0, len(batch))
	for _, slot := range batch {
		starts = append(starts, slot.StartAt.Format("15:04"))
	}
	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, starts)
}

func TestGenerateForTeacherBreakOverlapJumpsToBreakEnd(t *testing.T) {
	// A 45 minute grid against a 10:00-10:30 break: the 09:45 slot would
	// straddle the break, so the cursor jumps to 10:30 and the 09:45-10:00
	// sliver before the break is never offered.
	teacher := shiftTeacher("t-1", 45, "09:00", "12:00")
	teacher.BreakStart = tod("10:00")
	teacher.BreakEnd = tod("10:30")

	slots := &genSlotRepoStub{}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{"t-1": teacher}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{})

	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateForTeacher(context.Background(), "t-1", from, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, result.CreatedCount)

	batch := slots.batches[0]
	starts := make([]string, 0, len(batch))
	for _, slot := range batch {
		starts = append(starts, slot.StartAt.Format("15:04"))
	}
	assert.Equal(t, []string{"09:00", "10:30", "11:15"}, starts)
}

func TestGenerateForTeacherOvernightShiftWraps(t *testing.T) {
	slots := &genSlotRepoStub{}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{
		"t-1": shiftTeacher("t-1", 60, "22:00", "02:00"),
	}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{})

	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateForTeacher(context.Background(), "t-1", from, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, result.CreatedCount)

	batch := slots.batches[0]
	day := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day.Add(22*time.Hour), batch[0].StartAt)
	assert.Equal(t, day.AddDate(0, 0, 1).Add(2*time.Hour), batch[3].EndAt)
	// All four slots belong to the business day the shift started on.
	for _, slot := range batch {
		assert.Equal(t, day, slot.BusinessDate)
	}
}

func TestGenerateForTeacherClampsDuration(t *testing.T) {
	slots := &genSlotRepoStub{}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{
		"t-1": shiftTeacher("t-1", 5, "09:00", "10:00"),
	}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{})

	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateForTeacher(context.Background(), "t-1", from, 1)
	require.NoError(t, err)
	// Duration 5 clamps to the 15 minute floor.
	assert.Equal(t, 4, result.CreatedCount)
}

func TestGenerateForTeacherNoShiftWarns(t *testing.T) {
	teacher := &models.Teacher{ID: "t-1", Name: "No Shift", Active: true}
	slots := &genSlotRepoStub{}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{"t-1": teacher}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{})

	result, err := svc.GenerateForTeacher(context.Background(), "t-1", time.Now(), 7)
	require.NoError(t, err)
	assert.Zero(t, result.CreatedCount)
	assert.NotEmpty(t, result.Warning)
	assert.Empty(t, slots.batches)
}

func TestGenerateForTeacherWarnsOnExistingSlots(t *testing.T) {
	slots := &genSlotRepoStub{existing: 12}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{
		"t-1": shiftTeacher("t-1", 60, "09:00", "11:00"),
	}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{})

	result, err := svc.GenerateForTeacher(context.Background(), "t-1", time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)
	assert.Contains(t, result.Warning, "duplicates")
}

func TestGenerateForTeacherUnknownTeacher(t *testing.T) {
	svc := newGeneratorForTest(&genSlotRepoStub{}, &genTeacherRepoStub{}, config.GeneratorConfig{})

	_, err := svc.GenerateForTeacher(context.Background(), "ghost", time.Now(), 1)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound.Code))
}

func TestGenerateForTeacherInactiveTeacher(t *testing.T) {
	teacher := shiftTeacher("t-1", 45, "09:00", "12:00")
	teacher.Active = false
	svc := newGeneratorForTest(&genSlotRepoStub{}, &genTeacherRepoStub{teachers: map[string]*models.Teacher{"t-1": teacher}}, config.GeneratorConfig{})

	_, err := svc.GenerateForTeacher(context.Background(), "t-1", time.Now(), 1)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation.Code))
}

func TestGenerateForTeacherDailyCap(t *testing.T) {
	slots := &genSlotRepoStub{}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{
		"t-1": shiftTeacher("t-1", 15, "08:00", "20:00"),
	}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{MaxSlotsPerDay: 10})

	_, err := svc.GenerateForTeacher(context.Background(), "t-1", time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), 1)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation.Code))
	assert.Empty(t, slots.batches)
}

func TestGenerateForTeacherMultiDayHorizon(t *testing.T) {
	slots := &genSlotRepoStub{}
	teachers := &genTeacherRepoStub{teachers: map[string]*models.Teacher{
		"t-1": shiftTeacher("t-1", 60, "09:00", "12:00"),
	}}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{HorizonDays: 3})

	// days <= 0 falls back to the configured horizon.
	result, err := svc.GenerateForTeacher(context.Background(), "t-1", time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.Equal(t, 9, result.CreatedCount)

	require.Len(t, slots.batches, 1)
	days := map[string]int{}
	for _, slot := range slots.batches[0] {
		days[slot.BusinessDate.Format("2006-01-02")]++
	}
	assert.Len(t, days, 3)
}

func TestGenerateDailyRunContinuesPastFailures(t *testing.T) {
	good := shiftTeacher("t-1", 60, "09:00", "11:00")
	teachers := &genTeacherRepoStub{
		teachers: map[string]*models.Teacher{"t-1": good},
		active:   []models.Teacher{*good, {ID: "t-ghost", Active: true}},
	}
	slots := &genSlotRepoStub{}
	svc := newGeneratorForTest(slots, teachers, config.GeneratorConfig{HorizonDays: 1})

	results, err := svc.GenerateDailyRun(context.Background(), time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].CreatedCount)
	assert.NotEmpty(t, results[1].Warning)
}

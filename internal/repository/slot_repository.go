package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spiritschool/booking-api/internal/models"
)

// SlotRepository manages persistence for availability slots. The slot table is
// the single shared mutable resource of the booking flow; every state change
// goes through SQL so no booked/unbooked state is ever cached in memory.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs a SlotRepository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const insertSlotQuery = `INSERT INTO availability_slots (id, teacher_id, start_at, end_at, venue_id, business_date, is_booked, created_at)
VALUES (:id, :teacher_id, :start_at, :end_at, :venue_id, :business_date, :is_booked, :created_at)`

// InsertBatch persists all generated slots in one transaction. Any failure
// rolls back the whole batch so a generation run never leaves a day half
// populated.
func (r *SlotRepository) InsertBatch(ctx context.Context, slots []models.AvailabilitySlot) error {
	if len(slots) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.insertSlots(ctx, tx, slots); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit slot batch: %w", err)
	}
	return nil
}

func (r *SlotRepository) insertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.AvailabilitySlot) error {
	now := time.Now().UTC()
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, insertSlotQuery, slot); err != nil {
			return fmt.Errorf("insert availability slot: %w", err)
		}
	}
	return nil
}

// FindByID fetches a slot by ID.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.AvailabilitySlot, error) {
	const query = `SELECT id, teacher_id, start_at, end_at, venue_id, business_date, is_booked, created_at
FROM availability_slots WHERE id = $1`
	var slot models.AvailabilitySlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByTeacher returns a teacher's slots ordered by start time.
func (r *SlotRepository) ListByTeacher(ctx context.Context, filter models.SlotFilter) ([]models.AvailabilitySlot, error) {
	query := `SELECT id, teacher_id, start_at, end_at, venue_id, business_date, is_booked, created_at
FROM availability_slots WHERE teacher_id = $1`
	args := []interface{}{filter.TeacherID}

	if filter.From != nil {
		query += fmt.Sprintf(" AND end_at > $%d", len(args)+1)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND start_at < $%d", len(args)+1)
		args = append(args, *filter.To)
	}
	if filter.Booked != nil {
		query += fmt.Sprintf(" AND is_booked = $%d", len(args)+1)
		args = append(args, *filter.Booked)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 2000 {
		limit = 2000
	}
	query += fmt.Sprintf(" ORDER BY start_at ASC LIMIT %d", limit)

	var slots []models.AvailabilitySlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher slots: %w", err)
	}
	return slots, nil
}

// ListOpenWindows aggregates open slots across active teachers inside the
// requested range, for calendar display.
func (r *SlotRepository) ListOpenWindows(ctx context.Context, from, to time.Time) ([]models.OpenWindow, error) {
	const query = `SELECT s.start_at, s.end_at,
       COUNT(*) FILTER (WHERE s.is_booked = FALSE) AS available_count,
       COUNT(*) AS total_count
FROM availability_slots s
JOIN teachers t ON t.id = s.teacher_id
WHERE t.active = TRUE
  AND s.start_at < $2
  AND s.end_at > $1
GROUP BY s.start_at, s.end_at
HAVING COUNT(*) FILTER (WHERE s.is_booked = FALSE) > 0
ORDER BY s.start_at ASC`
	var windows []models.OpenWindow
	if err := r.db.SelectContext(ctx, &windows, query, from, to); err != nil {
		return nil, fmt.Errorf("list open windows: %w", err)
	}
	return windows, nil
}

// DeleteUnbooked removes a slot only while it has no active booking. It
// returns the number of rows removed; zero means the slot was missing or
// booked and the caller decides which.
func (r *SlotRepository) DeleteUnbooked(ctx context.Context, id, teacherID string) (int64, error) {
	const query = `DELETE FROM availability_slots WHERE id = $1 AND teacher_id = $2 AND is_booked = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, teacherID)
	if err != nil {
		return 0, fmt.Errorf("delete availability slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete availability slot rows: %w", err)
	}
	return affected, nil
}

// CountForTeacherBetween reports how many slots already exist in a range.
// Generation is not idempotent by itself; callers use this to warn about
// probable duplicates before re-running a range.
func (r *SlotRepository) CountForTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM availability_slots WHERE teacher_id = $1 AND start_at >= $2 AND start_at < $3`
	var total int
	if err := r.db.GetContext(ctx, &total, query, teacherID, from, to); err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	return total, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

// BookingRepository implements the claim protocol and booking persistence.
// Every claim or cancellation is one database transaction: the slot flip and
// the booking write commit together or not at all.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const lockSlotQuery = `SELECT s.id, s.teacher_id, s.venue_id, t.default_venue_id, s.is_booked, t.active AS teacher_active
FROM availability_slots s
JOIN teachers t ON t.id = s.teacher_id
WHERE s.id = $1
FOR UPDATE OF s`

const lockWindowCandidateQuery = `SELECT s.id, s.teacher_id, s.venue_id, t.default_venue_id, s.is_booked, t.active AS teacher_active
FROM availability_slots s
JOIN teachers t ON t.id = s.teacher_id
WHERE s.start_at = $1 AND s.end_at = $2 AND s.is_booked = FALSE AND t.active = TRUE
ORDER BY s.id ASC
LIMIT 1
FOR UPDATE OF s`

// markBookedQuery is the authoritative claim: a single-row conditional write
// evaluated server-side. The row lock above narrows contention, but
// correctness rests on this predicate alone.
const markBookedQuery = `UPDATE availability_slots SET is_booked = TRUE WHERE id = $1 AND is_booked = FALSE`

const insertBookingQuery = `INSERT INTO bookings (id, teacher_id, slot_id, user_id, student_name, student_email, student_phone, class_level_id, venue_id, status, created_at)
VALUES (:id, :teacher_id, :slot_id, :user_id, :student_name, :student_email, :student_phone, :class_level_id, :venue_id, :status, :created_at)`

// ClaimSlot books a specific slot for the requester. It returns ErrSlotInvalid
// when the slot does not exist or its teacher is inactive, and ErrSlotGone
// when another request won the slot first; both leave the store untouched.
func (r *BookingRepository) ClaimSlot(ctx context.Context, slotID string, booking *models.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin claim: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var target models.SlotClaimTarget
	if err := tx.GetContext(ctx, &target, lockSlotQuery, slotID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.ErrSlotInvalid
		}
		return fmt.Errorf("lock slot: %w", err)
	}
	if !target.TeacherActive {
		return appErrors.ErrSlotInvalid
	}
	if target.IsBooked {
		return appErrors.ErrSlotGone
	}

	if err := r.claimLocked(ctx, tx, target, booking); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit claim: %w", err)
	}
	committed = true
	return nil
}

// ClaimWindow books any active teacher's open slot exactly matching the
// requested window. Candidate selection is deterministic (lowest slot id) and
// the chosen row stays locked from selection through the final claim.
func (r *BookingRepository) ClaimWindow(ctx context.Context, startAt, endAt time.Time, booking *models.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin window claim: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var target models.SlotClaimTarget
	if err := tx.GetContext(ctx, &target, lockWindowCandidateQuery, startAt, endAt); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.ErrSlotGone
		}
		return fmt.Errorf("select window candidate: %w", err)
	}

	if err := r.claimLocked(ctx, tx, target, booking); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit window claim: %w", err)
	}
	committed = true
	return nil
}

// claimLocked re-asserts the conditional flip against the locked slot id and
// inserts the booking row. The update is always a single-id, single-predicate
// write so a concurrent request can never claim a different row than the one
// just selected.
func (r *BookingRepository) claimLocked(ctx context.Context, tx *sqlx.Tx, target models.SlotClaimTarget, booking *models.Booking) error {
	res, err := tx.ExecContext(ctx, markBookedQuery, target.ID)
	if err != nil {
		return fmt.Errorf("mark slot booked: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark slot booked rows: %w", err)
	}
	if affected != 1 {
		return appErrors.ErrSlotGone
	}

	booking.ID = uuid.NewString()
	booking.TeacherID = target.TeacherID
	booking.SlotID = target.ID
	booking.VenueID = target.VenueID
	if booking.VenueID == nil {
		booking.VenueID = target.DefaultVenueID
	}
	booking.Status = models.BookingStatusBooked
	booking.CreatedAt = time.Now().UTC()

	if _, err := sqlx.NamedExecContext(ctx, tx, insertBookingQuery, booking); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// Cancel flips a BOOKED booking to CANCELLED and frees its slot as one atomic
// pair. Cancelling anything but an active booking is rejected.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var current struct {
		ID     string               `db:"id"`
		SlotID string               `db:"slot_id"`
		Status models.BookingStatus `db:"status"`
	}
	const lockBookingQuery = `SELECT id, slot_id, status FROM bookings WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &current, lockBookingQuery, bookingID); err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("lock booking: %w", err)
	}
	if current.Status != models.BookingStatusBooked {
		return appErrors.ErrAlreadyCancelled
	}

	res, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $2 WHERE id = $1 AND status = $3`,
		bookingID, models.BookingStatusCancelled, models.BookingStatusBooked)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel booking rows: %w", err)
	}
	if affected != 1 {
		return appErrors.ErrAlreadyCancelled
	}

	if _, err := tx.ExecContext(ctx, `UPDATE availability_slots SET is_booked = FALSE WHERE id = $1`, current.SlotID); err != nil {
		return fmt.Errorf("free slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel: %w", err)
	}
	committed = true
	return nil
}

// FindByID fetches a booking by ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT id, teacher_id, slot_id, user_id, student_name, student_email, student_phone, class_level_id, venue_id, status, created_at
FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

const bookingDetailColumns = `b.id, b.teacher_id, b.slot_id, b.user_id, b.student_name, b.student_email, b.student_phone,
       b.class_level_id, b.venue_id, b.status, b.created_at,
       t.name AS teacher_name, s.start_at, s.end_at,
       v.name AS venue_name, cl.code AS class_code, cl.title AS class_title`

const bookingDetailJoins = `FROM bookings b
JOIN teachers t ON t.id = b.teacher_id
JOIN availability_slots s ON s.id = b.slot_id
LEFT JOIN venues v ON v.id = b.venue_id
LEFT JOIN class_levels cl ON cl.id = b.class_level_id`

// ListByUser returns a user's bookings, most recent first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]models.BookingDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE b.user_id = $1 ORDER BY b.created_at DESC LIMIT 300", bookingDetailColumns, bookingDetailJoins)
	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return bookings, nil
}

// List returns bookings matching the filter along with total count.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	base := bookingDetailJoins
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("b.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("s.end_at > $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	for i, cond := range conditions {
		if i == 0 {
			clause = " WHERE " + cond
		} else {
			clause += " AND " + cond
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY b.created_at DESC LIMIT %d OFFSET %d", bookingDetailColumns, base+clause, size, offset)
	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}

// SetClassLevel tags a booking with a class level (admin action).
func (r *BookingRepository) SetClassLevel(ctx context.Context, bookingID string, classLevelID *string) error {
	const query = `UPDATE bookings SET class_level_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, bookingID, classLevelID); err != nil {
		return fmt.Errorf("set booking class level: %w", err)
	}
	return nil
}

// ListForDay returns active bookings whose slot starts inside the given day,
// ordered for export.
func (r *BookingRepository) ListForDay(ctx context.Context, day time.Time) ([]models.BookingDetail, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	query := fmt.Sprintf(`SELECT %s %s WHERE b.status = $1 AND s.start_at >= $2 AND s.start_at < $3 ORDER BY s.start_at ASC, t.name ASC`,
		bookingDetailColumns, bookingDetailJoins)
	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, models.BookingStatusBooked, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("list bookings for day: %w", err)
	}
	return bookings, nil
}

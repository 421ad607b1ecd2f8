package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

func newBookingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func claimTargetRows(isBooked, teacherActive bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "teacher_id", "venue_id", "default_venue_id", "is_booked", "teacher_active"}).
		AddRow("slot-1", "t-1", nil, "venue-default", isBooked, teacherActive)
}

func TestBookingRepositoryClaimSlot(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF s")).
		WithArgs("slot-1").
		WillReturnRows(claimTargetRows(false, true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability_slots SET is_booked = TRUE WHERE id = $1 AND is_booked = FALSE")).
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking := &models.Booking{StudentName: "Ada", StudentEmail: "ada@example.com"}
	err := repo.ClaimSlot(context.Background(), "slot-1", booking)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "t-1", booking.TeacherID)
	assert.Equal(t, "slot-1", booking.SlotID)
	require.NotNil(t, booking.VenueID)
	assert.Equal(t, "venue-default", *booking.VenueID)
	assert.Equal(t, models.BookingStatusBooked, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryClaimSlotMissing(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF s")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.ClaimSlot(context.Background(), "ghost", &models.Booking{})
	require.ErrorIs(t, err, appErrors.ErrSlotInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryClaimSlotAlreadyBooked(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF s")).
		WithArgs("slot-1").
		WillReturnRows(claimTargetRows(true, true))
	mock.ExpectRollback()

	err := repo.ClaimSlot(context.Background(), "slot-1", &models.Booking{})
	require.ErrorIs(t, err, appErrors.ErrSlotGone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryClaimSlotInactiveTeacher(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF s")).
		WithArgs("slot-1").
		WillReturnRows(claimTargetRows(false, false))
	mock.ExpectRollback()

	err := repo.ClaimSlot(context.Background(), "slot-1", &models.Booking{})
	require.ErrorIs(t, err, appErrors.ErrSlotInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryClaimSlotLostRace(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF s")).
		WithArgs("slot-1").
		WillReturnRows(claimTargetRows(false, true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability_slots SET is_booked = TRUE WHERE id = $1 AND is_booked = FALSE")).
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ClaimSlot(context.Background(), "slot-1", &models.Booking{})
	require.ErrorIs(t, err, appErrors.ErrSlotGone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryClaimWindow(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.id ASC")).
		WithArgs(start, end).
		WillReturnRows(claimTargetRows(false, true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability_slots SET is_booked = TRUE WHERE id = $1 AND is_booked = FALSE")).
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking := &models.Booking{StudentName: "Ada", StudentEmail: "ada@example.com"}
	err := repo.ClaimWindow(context.Background(), start, end, booking)
	require.NoError(t, err)
	assert.Equal(t, "slot-1", booking.SlotID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryClaimWindowNoneLeft(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.id ASC")).
		WithArgs(start, end).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.ClaimWindow(context.Background(), start, end, &models.Booking{})
	require.ErrorIs(t, err, appErrors.ErrSlotGone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCancel(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "slot_id", "status"}).
		AddRow("bk-1", "slot-1", string(models.BookingStatusBooked))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, slot_id, status FROM bookings WHERE id = $1 FOR UPDATE")).
		WithArgs("bk-1").
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $2 WHERE id = $1 AND status = $3")).
		WithArgs("bk-1", models.BookingStatusCancelled, models.BookingStatusBooked).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability_slots SET is_booked = FALSE WHERE id = $1")).
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Cancel(context.Background(), "bk-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCancelAlreadyCancelled(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "slot_id", "status"}).
		AddRow("bk-1", "slot-1", string(models.BookingStatusCancelled))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, slot_id, status FROM bookings WHERE id = $1 FOR UPDATE")).
		WithArgs("bk-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	err := repo.Cancel(context.Background(), "bk-1")
	require.ErrorIs(t, err, appErrors.ErrAlreadyCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

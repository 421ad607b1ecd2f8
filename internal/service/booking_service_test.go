package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type bookingRepoStub struct {
	claimSlotErr   error
	claimWindowErr error
	cancelErr      error
	findBooking    *models.Booking
	findErr        error
	userBookings   []models.BookingDetail
	classLevelSet  *string

	claimedSlotID string
	windowStart   time.Time
	windowEnd     time.Time
}

func (s *bookingRepoStub) ClaimSlot(ctx context.Context, slotID string, booking *models.Booking) error {
	s.claimedSlotID = slotID
	if s.claimSlotErr != nil {
		return s.claimSlotErr
	}
	booking.ID = "bk-1"
	booking.SlotID = slotID
	booking.TeacherID = "t-1"
	booking.Status = models.BookingStatusBooked
	return nil
}

func (s *bookingRepoStub) ClaimWindow(ctx context.Context, startAt, endAt time.Time, booking *models.Booking) error {
	s.windowStart, s.windowEnd = startAt, endAt
	if s.claimWindowErr != nil {
		return s.claimWindowErr
	}
	booking.ID = "bk-1"
	booking.SlotID = "slot-1"
	booking.TeacherID = "t-1"
	booking.Status = models.BookingStatusBooked
	return nil
}

func (s *bookingRepoStub) Cancel(ctx context.Context, bookingID string) error {
	return s.cancelErr
}

func (s *bookingRepoStub) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findBooking == nil {
		return nil, sql.ErrNoRows
	}
	return s.findBooking, nil
}

func (s *bookingRepoStub) ListByUser(ctx context.Context, userID string) ([]models.BookingDetail, error) {
	return s.userBookings, nil
}

func (s *bookingRepoStub) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	return s.userBookings, len(s.userBookings), nil
}

func (s *bookingRepoStub) SetClassLevel(ctx context.Context, bookingID string, classLevelID *string) error {
	s.classLevelSet = classLevelID
	return nil
}

type classLevelStub struct {
	levels map[string]*models.ClassLevel
}

func (s classLevelStub) FindByID(ctx context.Context, id string) (*models.ClassLevel, error) {
	if level, ok := s.levels[id]; ok {
		return level, nil
	}
	return nil, sql.ErrNoRows
}

type cacheInvalidatorStub struct {
	patterns []string
}

func (s *cacheInvalidatorStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newBookingServiceForTest(repo *bookingRepoStub, cache *cacheInvalidatorStub) *BookingService {
	levels := classLevelStub{levels: map[string]*models.ClassLevel{
		"cl-1": {ID: "cl-1", Code: "3M", Title: "Level 3M", Active: true},
	}}
	return NewBookingService(repo, levels, cache, nil, nil, nil)
}

func strPtr(v string) *string { return &v }

func requesterFixture() *models.Requester {
	return &models.Requester{UserID: "u-1", Name: "Ada Lovelace", Email: "ada@example.com", Phone: strPtr("+3912345")}
}

func TestBookingServiceClaimSlotSnapshotsRequester(t *testing.T) {
	repo := &bookingRepoStub{}
	cache := &cacheInvalidatorStub{}
	svc := newBookingServiceForTest(repo, cache)

	booking, err := svc.Claim(context.Background(), ClaimRequest{SlotID: "slot-1"}, requesterFixture())
	require.NoError(t, err)
	assert.Equal(t, "slot-1", repo.claimedSlotID)
	assert.Equal(t, "Ada Lovelace", booking.StudentName)
	assert.Equal(t, "ada@example.com", booking.StudentEmail)
	require.NotNil(t, booking.UserID)
	assert.Equal(t, "u-1", *booking.UserID)
	assert.Equal(t, []string{"availability:*"}, cache.patterns)
}

func TestBookingServiceClaimPayloadOverridesRequester(t *testing.T) {
	repo := &bookingRepoStub{}
	svc := newBookingServiceForTest(repo, &cacheInvalidatorStub{})

	req := ClaimRequest{SlotID: "slot-1", StudentName: "For My Kid", StudentEmail: "parent@example.com"}
	booking, err := svc.Claim(context.Background(), req, requesterFixture())
	require.NoError(t, err)
	assert.Equal(t, "For My Kid", booking.StudentName)
	assert.Equal(t, "parent@example.com", booking.StudentEmail)
}

func TestBookingServiceClaimGuestRequiresContact(t *testing.T) {
	svc := newBookingServiceForTest(&bookingRepoStub{}, &cacheInvalidatorStub{})

	_, err := svc.Claim(context.Background(), ClaimRequest{SlotID: "slot-1"}, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation.Code))
}

func TestBookingServiceClaimWindow(t *testing.T) {
	repo := &bookingRepoStub{}
	svc := newBookingServiceForTest(repo, &cacheInvalidatorStub{})

	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	req := ClaimRequest{StartAt: &start, EndAt: &end}
	booking, err := svc.Claim(context.Background(), req, requesterFixture())
	require.NoError(t, err)
	assert.Equal(t, start, repo.windowStart)
	assert.Equal(t, end, repo.windowEnd)
	assert.Equal(t, "slot-1", booking.SlotID)
}

func TestBookingServiceClaimRequiresTarget(t *testing.T) {
	svc := newBookingServiceForTest(&bookingRepoStub{}, &cacheInvalidatorStub{})

	_, err := svc.Claim(context.Background(), ClaimRequest{}, requesterFixture())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation.Code))
}

func TestBookingServiceClaimContentionPassesThrough(t *testing.T) {
	repo := &bookingRepoStub{claimSlotErr: appErrors.ErrSlotGone}
	cache := &cacheInvalidatorStub{}
	svc := newBookingServiceForTest(repo, cache)

	_, err := svc.Claim(context.Background(), ClaimRequest{SlotID: "slot-1"}, requesterFixture())
	require.ErrorIs(t, err, appErrors.ErrSlotGone)
	assert.Empty(t, cache.patterns)
}

func TestBookingServiceClaimUnknownClassLevel(t *testing.T) {
	svc := newBookingServiceForTest(&bookingRepoStub{}, &cacheInvalidatorStub{})

	req := ClaimRequest{SlotID: "slot-1", ClassLevelID: strPtr("ghost")}
	_, err := svc.Claim(context.Background(), req, requesterFixture())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation.Code))
}

func TestBookingServiceCancelOwnBooking(t *testing.T) {
	repo := &bookingRepoStub{findBooking: &models.Booking{ID: "bk-1", UserID: strPtr("u-1"), Status: models.BookingStatusBooked}}
	cache := &cacheInvalidatorStub{}
	svc := newBookingServiceForTest(repo, cache)

	require.NoError(t, svc.Cancel(context.Background(), "bk-1", requesterFixture(), false))
	assert.Equal(t, []string{"availability:*"}, cache.patterns)
}

func TestBookingServiceCancelForeignBookingForbidden(t *testing.T) {
	repo := &bookingRepoStub{findBooking: &models.Booking{ID: "bk-1", UserID: strPtr("someone-else"), Status: models.BookingStatusBooked}}
	svc := newBookingServiceForTest(repo, &cacheInvalidatorStub{})

	err := svc.Cancel(context.Background(), "bk-1", requesterFixture(), false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden.Code))
}

func TestBookingServiceCancelAsAdmin(t *testing.T) {
	repo := &bookingRepoStub{findBooking: &models.Booking{ID: "bk-1", UserID: strPtr("someone-else"), Status: models.BookingStatusBooked}}
	svc := newBookingServiceForTest(repo, &cacheInvalidatorStub{})

	require.NoError(t, svc.Cancel(context.Background(), "bk-1", nil, true))
}

func TestBookingServiceCancelAlreadyCancelled(t *testing.T) {
	repo := &bookingRepoStub{
		findBooking: &models.Booking{ID: "bk-1", UserID: strPtr("u-1"), Status: models.BookingStatusCancelled},
		cancelErr:   appErrors.ErrAlreadyCancelled,
	}
	svc := newBookingServiceForTest(repo, &cacheInvalidatorStub{})

	err := svc.Cancel(context.Background(), "bk-1", requesterFixture(), false)
	require.ErrorIs(t, err, appErrors.ErrAlreadyCancelled)
}

func TestBookingServiceCancelMissingBooking(t *testing.T) {
	svc := newBookingServiceForTest(&bookingRepoStub{}, &cacheInvalidatorStub{})

	err := svc.Cancel(context.Background(), "ghost", requesterFixture(), false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound.Code))
}

func TestBookingServiceListMineRequiresRequester(t *testing.T) {
	svc := newBookingServiceForTest(&bookingRepoStub{}, &cacheInvalidatorStub{})

	_, err := svc.ListMine(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized.Code))
}

func TestBookingServiceAssignClassLevel(t *testing.T) {
	repo := &bookingRepoStub{findBooking: &models.Booking{ID: "bk-1"}}
	svc := newBookingServiceForTest(repo, &cacheInvalidatorStub{})

	require.NoError(t, svc.AssignClassLevel(context.Background(), "bk-1", strPtr("cl-1")))
	require.NotNil(t, repo.classLevelSet)
	assert.Equal(t, "cl-1", *repo.classLevelSet)
}

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritschool/booking-api/internal/middleware"
	"github.com/spiritschool/booking-api/internal/models"
	"github.com/spiritschool/booking-api/internal/service"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type fakeBookingRepo struct {
	claimErr error
	booking  *models.Booking
}

func (f *fakeBookingRepo) ClaimSlot(ctx context.Context, slotID string, booking *models.Booking) error {
	if f.claimErr != nil {
		return f.claimErr
	}
	booking.ID = "bk-1"
	booking.SlotID = slotID
	booking.TeacherID = "t-1"
	booking.Status = models.BookingStatusBooked
	return nil
}

func (f *fakeBookingRepo) ClaimWindow(ctx context.Context, startAt, endAt time.Time, booking *models.Booking) error {
	return f.ClaimSlot(ctx, "slot-1", booking)
}

func (f *fakeBookingRepo) Cancel(ctx context.Context, bookingID string) error { return nil }

func (f *fakeBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if f.booking == nil {
		return nil, sql.ErrNoRows
	}
	return f.booking, nil
}

func (f *fakeBookingRepo) ListByUser(ctx context.Context, userID string) ([]models.BookingDetail, error) {
	return nil, nil
}

func (f *fakeBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeBookingRepo) SetClassLevel(ctx context.Context, bookingID string, classLevelID *string) error {
	return nil
}

type fakeClassLevels struct{}

func (fakeClassLevels) FindByID(ctx context.Context, id string) (*models.ClassLevel, error) {
	return nil, sql.ErrNoRows
}

func newBookingHandlerForTest(repo *fakeBookingRepo) *BookingHandler {
	svc := service.NewBookingService(repo, fakeClassLevels{}, nil, nil, nil, nil)
	return NewBookingHandler(svc)
}

func claimContext(t *testing.T, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{
		UserID:   "u-1",
		Role:     models.RoleStudent,
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
	}
}

func TestBookingHandlerClaimCreated(t *testing.T) {
	handler := newBookingHandlerForTest(&fakeBookingRepo{})

	c, rec := claimContext(t, `{"slot_id":"slot-1"}`, studentClaims())
	handler.Claim(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data models.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "bk-1", envelope.Data.ID)
	assert.Equal(t, "Ada Lovelace", envelope.Data.StudentName)
}

func TestBookingHandlerClaimSlotGoneConflict(t *testing.T) {
	handler := newBookingHandlerForTest(&fakeBookingRepo{claimErr: appErrors.ErrSlotGone})

	c, rec := claimContext(t, `{"slot_id":"slot-1"}`, studentClaims())
	handler.Claim(c)

	require.Equal(t, http.StatusConflict, rec.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "SLOT_GONE", envelope.Error.Code)
}

func TestBookingHandlerClaimInvalidSlotUnprocessable(t *testing.T) {
	handler := newBookingHandlerForTest(&fakeBookingRepo{claimErr: appErrors.ErrSlotInvalid})

	c, rec := claimContext(t, `{"slot_id":"ghost"}`, studentClaims())
	handler.Claim(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBookingHandlerClaimGuestWithoutContactRejected(t *testing.T) {
	handler := newBookingHandlerForTest(&fakeBookingRepo{})

	c, rec := claimContext(t, `{"slot_id":"slot-1"}`, nil)
	handler.Claim(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerClaimBadJSON(t *testing.T) {
	handler := newBookingHandlerForTest(&fakeBookingRepo{})

	c, rec := claimContext(t, `{"slot_id":`, studentClaims())
	handler.Claim(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerCancelForeignForbidden(t *testing.T) {
	other := "someone-else"
	handler := newBookingHandlerForTest(&fakeBookingRepo{
		booking: &models.Booking{ID: "bk-1", UserID: &other, Status: models.BookingStatusBooked},
	})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bookings/bk-1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "bk-1"}}
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Cancel(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

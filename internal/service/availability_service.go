package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/internal/models"
	"github.com/spiritschool/booking-api/pkg/config"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type availabilitySlotRepository interface {
	ListOpenWindows(ctx context.Context, from, to time.Time) ([]models.OpenWindow, error)
	ListByTeacher(ctx context.Context, filter models.SlotFilter) ([]models.AvailabilitySlot, error)
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheLookupRecorder interface {
	RecordCacheLookup(hit bool)
}

// AvailabilityService serves the public booking calendar. Window listings are
// cached briefly; claims and cancellations invalidate the whole availability
// keyspace so readers never see a stale window for longer than the TTL.
type AvailabilityService struct {
	slots   availabilitySlotRepository
	cache   availabilityCache
	metrics cacheLookupRecorder
	cfg     config.AvailabilityConfig
	logger  *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(slots availabilitySlotRepository, cache availabilityCache, metrics cacheLookupRecorder, cfg config.AvailabilityConfig, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &AvailabilityService{slots: slots, cache: cache, metrics: metrics, cfg: cfg, logger: logger}
}

const defaultWindowRangeDays = 14

// OpenWindows returns aggregated open windows in the requested range. A zero
// from defaults to now; a zero to defaults to two weeks out.
func (s *AvailabilityService) OpenWindows(ctx context.Context, from, to time.Time) ([]models.OpenWindow, error) {
	if from.IsZero() {
		from = time.Now().UTC()
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, defaultWindowRangeDays)
	}
	if !to.After(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be after from")
	}

	key := fmt.Sprintf("availability:windows:%d:%d", from.Unix(), to.Unix())
	if s.cache != nil {
		var cached []models.OpenWindow
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss.Code) {
			s.logger.Sugar().Warnw("availability cache read failed", "key", key, "error", err)
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
	}

	windows, err := s.slots.ListOpenWindows(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open windows")
	}
	if windows == nil {
		windows = []models.OpenWindow{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, windows, s.cfg.CacheTTL); err != nil {
			s.logger.Sugar().Warnw("availability cache write failed", "key", key, "error", err)
		}
	}
	return windows, nil
}

// TeacherSlots returns one teacher's slots in a range, uncached.
func (s *AvailabilityService) TeacherSlots(ctx context.Context, filter models.SlotFilter) ([]models.AvailabilitySlot, error) {
	if filter.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required")
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be after from")
	}
	slots, err := s.slots.ListByTeacher(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher slots")
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	return slots, nil
}

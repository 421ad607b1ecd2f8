package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type classLevelRepository interface {
	ListActive(ctx context.Context) ([]models.ClassLevel, error)
	FindByID(ctx context.Context, id string) (*models.ClassLevel, error)
}

// ClassLevelService serves the class level catalogue.
type ClassLevelService struct {
	levels classLevelRepository
	logger *zap.Logger
}

// NewClassLevelService constructs the service.
func NewClassLevelService(levels classLevelRepository, logger *zap.Logger) *ClassLevelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassLevelService{levels: levels, logger: logger}
}

// ListActive returns the active class levels.
func (s *ClassLevelService) ListActive(ctx context.Context) ([]models.ClassLevel, error) {
	levels, err := s.levels.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class levels")
	}
	return levels, nil
}

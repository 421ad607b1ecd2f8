package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/internal/models"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

// Postgres foreign_key_violation.
const fkViolationCode = "23503"

type venueRepository interface {
	List(ctx context.Context, filter models.VenueFilter) ([]models.Venue, error)
	FindByID(ctx context.Context, id string) (*models.Venue, error)
	Create(ctx context.Context, venue *models.Venue) error
	Update(ctx context.Context, venue *models.Venue) error
	Delete(ctx context.Context, id string) error
}

// VenueService manages the venue catalogue.
type VenueService struct {
	venues    venueRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVenueService constructs the service.
func NewVenueService(venues venueRepository, validate *validator.Validate, logger *zap.Logger) *VenueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenueService{venues: venues, validator: validate, logger: logger}
}

// VenueRequest describes create and update payloads.
type VenueRequest struct {
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
	Active  *bool   `json:"active"`
}

// Create registers a new venue.
func (s *VenueService) Create(ctx context.Context, req VenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	venue := &models.Venue{Name: req.Name, Address: req.Address, Notes: req.Notes, Active: true}
	if req.Active != nil {
		venue.Active = *req.Active
	}
	if err := s.venues.Create(ctx, venue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create venue")
	}
	return venue, nil
}

// Update rewrites a venue.
func (s *VenueService) Update(ctx context.Context, id string, req VenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	venue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	venue.Name = req.Name
	venue.Address = req.Address
	venue.Notes = req.Notes
	if req.Active != nil {
		venue.Active = *req.Active
	}
	if err := s.venues.Update(ctx, venue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update venue")
	}
	return venue, nil
}

// Get returns one venue.
func (s *VenueService) Get(ctx context.Context, id string) (*models.Venue, error) {
	venue, err := s.venues.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue")
	}
	return venue, nil
}

// List returns venues matching the filter.
func (s *VenueService) List(ctx context.Context, filter models.VenueFilter) ([]models.Venue, error) {
	venues, err := s.venues.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list venues")
	}
	return venues, nil
}

// Delete removes a venue. A venue still referenced by slots or bookings is
// refused; deactivate it instead.
func (s *VenueService) Delete(ctx context.Context, id string) error {
	if err := s.venues.Delete(ctx, id); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == fkViolationCode {
			return appErrors.Clone(appErrors.ErrConflict, "venue is in use; deactivate it instead")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete venue")
	}
	return nil
}

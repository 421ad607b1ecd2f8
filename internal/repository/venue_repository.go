package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spiritschool/booking-api/internal/models"
)

// VenueRepository provides access to venue records.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository constructs a VenueRepository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

const venueColumns = `id, name, address, notes, active, created_at`

// Create inserts a new venue.
func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	if venue.ID == "" {
		venue.ID = uuid.NewString()
	}
	venue.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO venues (id, name, address, notes, active, created_at)
VALUES (:id, :name, :address, :notes, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, venue); err != nil {
		return fmt.Errorf("insert venue: %w", err)
	}
	return nil
}

// Update rewrites a venue.
func (r *VenueRepository) Update(ctx context.Context, venue *models.Venue) error {
	const query = `UPDATE venues SET name = :name, address = :address, notes = :notes, active = :active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, venue); err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	return nil
}

// FindByID fetches one venue.
func (r *VenueRepository) FindByID(ctx context.Context, id string) (*models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues WHERE id = $1", venueColumns)
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, query, id); err != nil {
		return nil, err
	}
	return &venue, nil
}

// List returns venues matching the filter, ordered by name.
func (r *VenueRepository) List(ctx context.Context, filter models.VenueFilter) ([]models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues", venueColumns)
	var args []interface{}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" WHERE active = $%d", len(args))
	}
	query += " ORDER BY name ASC"

	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query, args...); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

// Delete removes a venue.
func (r *VenueRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiritschool/booking-api/internal/models"
)

// ClassLevelRepository provides read access to the class level catalogue.
type ClassLevelRepository struct {
	db *sqlx.DB
}

// NewClassLevelRepository constructs a ClassLevelRepository.
func NewClassLevelRepository(db *sqlx.DB) *ClassLevelRepository {
	return &ClassLevelRepository{db: db}
}

// ListActive returns the active class levels in catalogue order.
func (r *ClassLevelRepository) ListActive(ctx context.Context) ([]models.ClassLevel, error) {
	const query = `SELECT id, code, title, active FROM class_levels WHERE active = TRUE ORDER BY code ASC`
	var levels []models.ClassLevel
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list class levels: %w", err)
	}
	return levels, nil
}

// FindByID fetches one class level.
func (r *ClassLevelRepository) FindByID(ctx context.Context, id string) (*models.ClassLevel, error) {
	const query = `SELECT id, code, title, active FROM class_levels WHERE id = $1`
	var level models.ClassLevel
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}

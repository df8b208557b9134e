package repository

import (
	"context"
	"database/sql"
	"time"

	"ud18_logger/internal/models"
)

// Store drivers selectable from configuration.
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// RecordStore is the append-only telemetry log. Append and the readers may
// run concurrently; a reader never observes a partially written record.
type RecordStore interface {
	// Reset discards every stored record. Called once per capture session.
	Reset(ctx context.Context) error
	Append(ctx context.Context, m models.Measurement) error
	// List returns records captured in [from, to], oldest first. Zero bounds
	// are open.
	List(ctx context.Context, from, to time.Time) ([]models.Measurement, error)
	// Latest returns the newest record, or false when the store is empty.
	Latest(ctx context.Context) (models.Measurement, bool, error)
}

type Repository struct {
	Records RecordStore
	Auth    Authorization
}

// NewRepository keeps operators in db and records in the store picked by
// driver. csvPath is only used by the csv driver.
func NewRepository(db *sql.DB, driver, csvPath string) *Repository {
	var records RecordStore
	switch driver {
	case DriverSQLite:
		records = NewMeasurementSQLite(db)
	default:
		records = NewCSVStore(csvPath)
	}
	return &Repository{
		Records: records,
		Auth:    NewUserRepository(db),
	}
}

// inRange reports whether t lies in [from, to] with zero bounds open.
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

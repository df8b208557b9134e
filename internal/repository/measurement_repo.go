package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ud18_logger/internal/models"
)

// MeasurementSQLite stores records in the measurements table.
type MeasurementSQLite struct {
	db *sql.DB
}

func NewMeasurementSQLite(db *sql.DB) *MeasurementSQLite { return &MeasurementSQLite{db: db} }

var _ RecordStore = (*MeasurementSQLite)(nil)

const (
	insertMeasurementSQL = `INSERT INTO measurements (captured_at_ms, voltage, current, power, capacity_mah, energy_wh, d_minus_v, d_plus_v, runtime) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	resetMeasurementsSQL = `DELETE FROM measurements`
	selectMeasurementSQL = `SELECT captured_at_ms, voltage, current, power, capacity_mah, energy_wh, d_minus_v, d_plus_v, runtime FROM measurements`
	latestMeasurementSQL = selectMeasurementSQL + ` ORDER BY id DESC LIMIT 1`
)

// Reset deletes every stored record.
func (r *MeasurementSQLite) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, resetMeasurementsSQL); err != nil {
		return fmt.Errorf("reset measurements: %w", err)
	}
	return nil
}

// Append inserts one record in a single statement.
func (r *MeasurementSQLite) Append(ctx context.Context, m models.Measurement) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertMeasurementSQL,
		ts.UnixMilli(),
		m.Voltage,
		m.Current,
		m.Power,
		m.CapacityMAh,
		m.EnergyWh,
		m.DMinusV,
		m.DPlusV,
		m.Runtime,
	)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

// List returns records filtered by [from, to] (inclusive), in insertion order.
func (r *MeasurementSQLite) List(ctx context.Context, from, to time.Time) ([]models.Measurement, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "captured_at_ms >= ?")
		args = append(args, from.UnixMilli())
	}
	if !to.IsZero() {
		conds = append(conds, "captured_at_ms <= ?")
		args = append(args, to.UnixMilli())
	}

	q := selectMeasurementSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Measurement, 0, 64)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the most recently appended record.
func (r *MeasurementSQLite) Latest(ctx context.Context) (models.Measurement, bool, error) {
	m, err := scanMeasurement(r.db.QueryRowContext(ctx, latestMeasurementSQL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Measurement{}, false, nil
		}
		return models.Measurement{}, false, err
	}
	return m, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (models.Measurement, error) {
	var (
		m  models.Measurement
		ms int64
	)
	if err := row.Scan(
		&ms,
		&m.Voltage,
		&m.Current,
		&m.Power,
		&m.CapacityMAh,
		&m.EnergyWh,
		&m.DMinusV,
		&m.DPlusV,
		&m.Runtime,
	); err != nil {
		return models.Measurement{}, err
	}
	m.Timestamp = time.UnixMilli(ms)
	return m, nil
}

package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var measurementCols = []string{"captured_at_ms", "voltage", "current", "power", "capacity_mah", "energy_wh", "d_minus_v", "d_plus_v", "runtime"}

func newMockMeasurements(t *testing.T) (*MeasurementSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return NewMeasurementSQLite(db), mock, cleanup
}

func TestMeasurementSQLite_Append(t *testing.T) {
	repo, mock, cleanup := newMockMeasurements(t)
	defer cleanup()

	ts := time.UnixMilli(1_709_294_400_000)
	m := sampleAt(ts, 5.1)
	mock.ExpectExec(regexp.QuoteMeta(insertMeasurementSQL)).
		WithArgs(ts.UnixMilli(), m.Voltage, m.Current, m.Power, m.CapacityMAh, m.EnergyWh, m.DMinusV, m.DPlusV, m.Runtime).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Append(context.Background(), m); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestMeasurementSQLite_AppendError(t *testing.T) {
	repo, mock, cleanup := newMockMeasurements(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(insertMeasurementSQL)).
		WillReturnError(errors.New("disk I/O error"))

	err := repo.Append(context.Background(), sampleAt(time.Now(), 5))
	if err == nil || !strings.Contains(err.Error(), "insert measurement") {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
}

func TestMeasurementSQLite_Reset(t *testing.T) {
	repo, mock, cleanup := newMockMeasurements(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(resetMeasurementsSQL)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
}

func TestMeasurementSQLite_List(t *testing.T) {
	from := time.UnixMilli(1_000)
	to := time.UnixMilli(9_000)

	tests := []struct {
		name     string
		from, to time.Time
		query    string
		args     []driver.Value
	}{
		{
			name:  "open bounds",
			query: selectMeasurementSQL + " ORDER BY id ASC",
		},
		{
			name:  "from only",
			from:  from,
			query: selectMeasurementSQL + " WHERE captured_at_ms >= ? ORDER BY id ASC",
			args:  []driver.Value{int64(1_000)},
		},
		{
			name:  "both bounds",
			from:  from,
			to:    to,
			query: selectMeasurementSQL + " WHERE captured_at_ms >= ? AND captured_at_ms <= ? ORDER BY id ASC",
			args:  []driver.Value{int64(1_000), int64(9_000)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockMeasurements(t)
			defer cleanup()

			rows := sqlmock.NewRows(measurementCols).
				AddRow(int64(2_000), 5.1, 1.0, 5.1, 10, 0.05, 0.5, 0.6, "00:00:02").
				AddRow(int64(7_000), 5.0, 2.0, 10.0, 12, 0.07, 0.5, 0.6, "00:00:07")
			exp := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if len(tt.args) > 0 {
				exp = exp.WithArgs(tt.args...)
			}
			exp.WillReturnRows(rows)

			got, err := repo.List(context.Background(), tt.from, tt.to)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("len = %d", len(got))
			}
			if got[0].Timestamp.UnixMilli() != 2_000 || got[1].Runtime != "00:00:07" || got[1].CapacityMAh != 12 {
				t.Fatalf("unexpected rows: %+v", got)
			}
		})
	}
}

func TestMeasurementSQLite_Latest(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, cleanup := newMockMeasurements(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(latestMeasurementSQL)).
			WillReturnRows(sqlmock.NewRows(measurementCols).
				AddRow(int64(5_000), 5.05, 1.2, 6.06, 3, 0.01, 0.4, 0.4, "00:00:05"))

		m, ok, err := repo.Latest(context.Background())
		if err != nil || !ok {
			t.Fatalf("Latest: ok=%v err=%v", ok, err)
		}
		if m.Voltage != 5.05 || !m.Timestamp.Equal(time.UnixMilli(5_000)) {
			t.Fatalf("unexpected record %+v", m)
		}
	})

	t.Run("empty", func(t *testing.T) {
		repo, mock, cleanup := newMockMeasurements(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(latestMeasurementSQL)).
			WillReturnRows(sqlmock.NewRows(measurementCols))

		_, ok, err := repo.Latest(context.Background())
		if err != nil || ok {
			t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
		}
	})
}

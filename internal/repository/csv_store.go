package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"ud18_logger/internal/models"
)

// TimestampLayout is how capture times are written to the CSV log.
const TimestampLayout = "2006-01-02 15:04:05"

// CSVStore is a file-backed RecordStore: a header row followed by one row
// per record, the format external viewers tail.
type CSVStore struct {
	path string

	mu sync.RWMutex
	f  *os.File
}

// NewCSVStore returns a store writing to path. The file is opened lazily.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

var _ RecordStore = (*CSVStore)(nil)

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

// Reset truncates the file and writes the header.
func (s *CSVStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("truncate %s: %w", s.path, err)
	}
	s.f = f
	return s.writeLocked(models.MeasurementColumns)
}

// Append writes m as a single row with one write call, then syncs.
func (s *CSVStore) Append(ctx context.Context, m models.Measurement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", s.path, err)
		}
		s.f = f
		st, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat %s: %w", s.path, err)
		}
		if st.Size() == 0 {
			if err := s.writeLocked(models.MeasurementColumns); err != nil {
				return err
			}
		}
	}
	return s.writeLocked(encodeRow(m))
}

// writeLocked formats fields as one CSV line and writes it whole.
func (s *CSVStore) writeLocked(fields []string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if _, err := s.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	return nil
}

// List reads the file and returns records in [from, to].
func (s *CSVStore) List(ctx context.Context, from, to time.Time) ([]models.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Measurement{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(models.MeasurementColumns)
	r.ReuseRecord = true

	out := make([]models.Measurement, 0, 64)
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		if line == 1 && rec[0] == models.MeasurementColumns[0] {
			continue
		}
		m, err := decodeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path, line, err)
		}
		if inRange(m.Timestamp, from, to) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Latest returns the last row of the file.
func (s *CSVStore) Latest(ctx context.Context) (models.Measurement, bool, error) {
	all, err := s.List(ctx, time.Time{}, time.Time{})
	if err != nil || len(all) == 0 {
		return models.Measurement{}, false, err
	}
	return all[len(all)-1], true, nil
}

// Close releases the write handle.
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *CSVStore) closeLocked() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func encodeRow(m models.Measurement) []string {
	return []string{
		m.Timestamp.Local().Format(TimestampLayout),
		formatFloat(m.Voltage),
		formatFloat(m.Current),
		formatFloat(m.Power),
		strconv.Itoa(m.CapacityMAh),
		formatFloat(m.EnergyWh),
		formatFloat(m.DMinusV),
		formatFloat(m.DPlusV),
		m.Runtime,
	}
}

func decodeRow(rec []string) (models.Measurement, error) {
	var (
		m   models.Measurement
		err error
	)
	if m.Timestamp, err = time.ParseInLocation(TimestampLayout, rec[0], time.Local); err != nil {
		return m, fmt.Errorf("timestamp: %w", err)
	}
	floats := []*float64{&m.Voltage, &m.Current, &m.Power}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(rec[1+i], 64); err != nil {
			return m, fmt.Errorf("%s: %w", models.MeasurementColumns[1+i], err)
		}
	}
	if m.CapacityMAh, err = strconv.Atoi(rec[4]); err != nil {
		return m, fmt.Errorf("capacity_mAh: %w", err)
	}
	floats = []*float64{&m.EnergyWh, &m.DMinusV, &m.DPlusV}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(rec[5+i], 64); err != nil {
			return m, fmt.Errorf("%s: %w", models.MeasurementColumns[5+i], err)
		}
	}
	m.Runtime = rec[8]
	return m, nil
}

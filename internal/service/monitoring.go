package service

import (
	"context"
	"errors"

	"ud18_logger/internal/models"
	"ud18_logger/internal/repository"
)

type MonitoringService struct {
	records repository.RecordStore
}

func NewMonitoringService(records repository.RecordStore) *MonitoringService {
	return &MonitoringService{records: records}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	errInvalidLimit     = errors.New("invalid limit: must be >= 0")
)

// normalizeFilter validates the time range and limit.
func normalizeFilter(f RecordFilter) (RecordFilter, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return RecordFilter{}, errInvalidTimeRange
	}
	if f.Limit < 0 {
		return RecordFilter{}, errInvalidLimit
	}
	return f, nil
}

// List returns records captured in the filter window, oldest first. With a
// limit only the newest records are kept.
func (s *MonitoringService) List(ctx context.Context, f RecordFilter) ([]models.Measurement, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	out, err := s.records.List(ctx, f.From, f.To)
	if err != nil {
		return nil, err
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// Latest returns the newest persisted record, if any.
func (s *MonitoringService) Latest(ctx context.Context) (models.Measurement, bool, error) {
	return s.records.Latest(ctx)
}

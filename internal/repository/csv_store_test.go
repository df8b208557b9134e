package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ud18_logger/internal/models"
)

func sampleAt(ts time.Time, v float64) models.Measurement {
	return models.Measurement{
		Timestamp:   ts,
		Voltage:     v,
		Current:     1.5,
		Power:       v * 1.5,
		CapacityMAh: 120,
		EnergyWh:    0.61,
		DMinusV:     0.5,
		DPlusV:      0.6,
		Runtime:     "00:01:05",
	}
}

func newTestCSV(t *testing.T) *CSVStore {
	t.Helper()
	s := NewCSVStore(filepath.Join(t.TempDir(), "log.csv"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCSVStore_ResetWritesHeader(t *testing.T) {
	s := newTestCSV(t)
	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	b, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := strings.Join(models.MeasurementColumns, ",") + "\n"
	if string(b) != want {
		t.Fatalf("header = %q, want %q", b, want)
	}
}

func TestCSVStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestCSV(t)
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		if err := s.Append(ctx, sampleAt(base.Add(time.Duration(i)*5*time.Second), 5.0+float64(i)/100)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	all, err := s.List(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if !all[0].Timestamp.Equal(base) || all[2].Voltage != 5.02 {
		t.Fatalf("unexpected rows: %+v", all)
	}
	if all[1].Runtime != "00:01:05" || all[1].CapacityMAh != 120 {
		t.Fatalf("fields lost in round trip: %+v", all[1])
	}

	ranged, err := s.List(ctx, base.Add(5*time.Second), base.Add(5*time.Second))
	if err != nil {
		t.Fatalf("List range: %v", err)
	}
	if len(ranged) != 1 || ranged[0].Voltage != 5.01 {
		t.Fatalf("inclusive range returned %+v", ranged)
	}

	latest, ok, err := s.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if latest.Voltage != 5.02 {
		t.Fatalf("latest voltage = %v", latest.Voltage)
	}
}

func TestCSVStore_AppendWithoutResetAddsHeader(t *testing.T) {
	ctx := context.Background()
	s := newTestCSV(t)
	if err := s.Append(ctx, sampleAt(time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), 5)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	b, _ := os.ReadFile(s.Path())
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 || lines[0] != strings.Join(models.MeasurementColumns, ",") {
		t.Fatalf("unexpected file:\n%s", b)
	}
}

func TestCSVStore_ResetTruncates(t *testing.T) {
	ctx := context.Background()
	s := newTestCSV(t)
	_ = s.Reset(ctx)
	_ = s.Append(ctx, sampleAt(time.Now().Truncate(time.Second), 5))

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	all, err := s.List(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty log after reset, got %d rows", len(all))
	}
	if _, ok, _ := s.Latest(ctx); ok {
		t.Fatalf("Latest reported a record after reset")
	}
}

func TestCSVStore_MissingFileListsEmpty(t *testing.T) {
	s := newTestCSV(t)
	all, err := s.List(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("len = %d", len(all))
	}
}

func TestCSVStore_ReadersNeverSeePartialRows(t *testing.T) {
	ctx := context.Background()
	s := newTestCSV(t)
	_ = s.Reset(ctx)

	const n = 50
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make(chan error, 2*n)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if err := s.Append(ctx, sampleAt(base.Add(time.Duration(i)*time.Second), 5)); err != nil {
				errs <- err
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if _, err := s.List(ctx, time.Time{}, time.Time{}); err != nil {
				errs <- err
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent access: %v", err)
	}

	all, _ := s.List(ctx, time.Time{}, time.Time{})
	if len(all) != n {
		t.Fatalf("len = %d, want %d", len(all), n)
	}
}

func TestCSVStore_CanceledContext(t *testing.T) {
	s := newTestCSV(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Append(ctx, sampleAt(time.Now(), 5)); err == nil {
		t.Fatalf("expected error on canceled context")
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ud18_logger/internal/decoder"
	"ud18_logger/internal/device"
	"ud18_logger/internal/logger"
	"ud18_logger/internal/metrics"
	"ud18_logger/internal/recorder"
	"ud18_logger/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrCaptureRunning    = errors.New("capture session already running")
	ErrCaptureNotRunning = errors.New("no capture session running")
)

// CaptureConfig tunes every session started by the capture service.
type CaptureConfig struct {
	Session          device.Config
	RecorderInterval time.Duration
}

// CaptureService runs at most one device session at a time and feeds its
// frames through decode and the rate-limited recorder.
type CaptureService struct {
	adapter device.Adapter
	store   repository.RecordStore
	cfg     CaptureConfig
	metrics *metrics.Pipeline
	log     *logger.Logger

	mu  sync.Mutex
	run *captureRun
}

type captureRun struct {
	id        string
	startedAt time.Time
	session   *device.Session
	recorder  *recorder.Recorder
	cancel    context.CancelFunc
	done      chan struct{}

	decoded  atomic.Uint64
	rejected atomic.Uint64

	// set before done is closed
	endedAt time.Time
	err     error
}

func NewCaptureService(adapter device.Adapter, store repository.RecordStore, cfg CaptureConfig, m *metrics.Pipeline, log *logger.Logger) *CaptureService {
	if log == nil {
		log = logger.Nop()
	}
	return &CaptureService{adapter: adapter, store: store, cfg: cfg, metrics: m, log: log}
}

// Start resets the store and launches a new session in the background.
func (s *CaptureService) Start(ctx context.Context) (CaptureStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil && !s.run.finished() {
		return s.statusLocked(), ErrCaptureRunning
	}
	if err := s.store.Reset(ctx); err != nil {
		return s.statusLocked(), fmt.Errorf("reset store: %w", err)
	}

	sessCfg := s.cfg.Session
	onState := sessCfg.OnStateChange
	sessCfg.OnStateChange = func(st device.State) {
		s.metrics.SetSessionState(int(st))
		if onState != nil {
			onState(st)
		}
	}
	onDrop := sessCfg.OnFrameDropped
	sessCfg.OnFrameDropped = func() {
		s.metrics.FrameDropped()
		if onDrop != nil {
			onDrop()
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	run := &captureRun{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		recorder:  recorder.New(s.store, s.cfg.RecorderInterval),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	run.session = device.NewSession(s.adapter, sessCfg, s.log.With("session_id", run.id))
	s.run = run

	s.log.Infow("capture_started", "session_id", run.id, "interval", run.recorder.Interval())
	go s.execute(runCtx, run)

	return s.statusLocked(), nil
}

func (s *CaptureService) execute(ctx context.Context, run *captureRun) {
	err := run.session.Run(ctx, s.pipeline(ctx, run))

	outcome := "stopped"
	switch {
	case err == nil:
	case errors.Is(err, device.ErrDiscoveryTimeout):
		outcome = "timeout"
		s.log.Warnw("capture_no_device", "session_id", run.id, "err", err)
	default:
		var se *device.StageError
		if errors.As(err, &se) {
			outcome = se.Stage
		} else {
			outcome = "error"
		}
		s.log.Errorw("capture_failed", "session_id", run.id, "err", err)
	}
	s.metrics.SessionFinished(outcome)

	s.mu.Lock()
	run.endedAt = time.Now()
	run.err = err
	s.mu.Unlock()
	run.cancel()
	close(run.done)

	st := run.recorder.Stats()
	s.log.Infow("capture_finished",
		"session_id", run.id,
		"outcome", outcome,
		"frames_decoded", run.decoded.Load(),
		"frames_rejected", run.rejected.Load(),
		"records_saved", st.Saved,
	)
}

// pipeline decodes each frame and offers it to the recorder. Malformed
// frames are dropped; a store failure ends the session.
func (s *CaptureService) pipeline(ctx context.Context, run *captureRun) device.FrameHandler {
	// Appends outlive a stop request so the last admitted row is written whole.
	writeCtx := context.WithoutCancel(ctx)

	return func(frame []byte, receivedAt time.Time) error {
		s.metrics.FrameReceived()

		m, err := decoder.Decode(frame, receivedAt)
		if err != nil {
			run.rejected.Add(1)
			s.metrics.FrameRejected(rejectReason(err))
			s.log.Debugw("frame_rejected", "len", len(frame), "err", err)
			return nil
		}
		run.decoded.Add(1)

		saved, err := run.recorder.Admit(writeCtx, m, receivedAt)
		if err != nil {
			s.metrics.StoreError()
			return err
		}
		if !saved {
			s.metrics.RecordThrottled()
			return nil
		}
		s.metrics.RecordPersisted()
		s.log.Infow("record_saved",
			"voltage", m.Voltage,
			"current", m.Current,
			"power", m.Power,
			"capacity_mAh", m.CapacityMAh,
			"energy_Wh", m.EnergyWh,
			"runtime", m.Runtime,
		)
		return nil
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, decoder.ErrFrameLength):
		return metrics.ReasonLength
	case errors.Is(err, decoder.ErrSyncMarker):
		return metrics.ReasonSync
	case errors.Is(err, decoder.ErrPacketType):
		return metrics.ReasonType
	default:
		return metrics.ReasonUnknown
	}
}

// Stop cancels the running session and waits for it to unwind or for ctx.
func (s *CaptureService) Stop(ctx context.Context) (CaptureStatus, error) {
	s.mu.Lock()
	run := s.run
	if run == nil || run.finished() {
		st := s.statusLocked()
		s.mu.Unlock()
		return st, ErrCaptureNotRunning
	}
	s.mu.Unlock()

	s.log.Infow("capture_stop_requested", "session_id", run.id)
	run.cancel()
	select {
	case <-run.done:
	case <-ctx.Done():
		return s.Status(), ctx.Err()
	}
	return s.Status(), nil
}

// Wait blocks until the current session ends. It returns
// ErrCaptureNotRunning when no session was ever started.
func (s *CaptureService) Wait(ctx context.Context) error {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run == nil {
		return ErrCaptureNotRunning
	}
	select {
	case <-run.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return run.err
}

func (s *CaptureService) Status() CaptureStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *CaptureService) statusLocked() CaptureStatus {
	run := s.run
	if run == nil {
		return CaptureStatus{State: device.StateIdle}
	}
	adv := run.session.Device()
	started := run.startedAt
	st := CaptureStatus{
		SessionID:      run.id,
		Running:        !run.finished(),
		State:          run.session.State(),
		Device:         adv.Name,
		Address:        adv.Address,
		StartedAt:      &started,
		FramesDecoded:  run.decoded.Load(),
		FramesRejected: run.rejected.Load(),
		Recorder:       run.recorder.Stats(),
	}
	if !run.endedAt.IsZero() {
		ended := run.endedAt
		st.EndedAt = &ended
	}
	if run.err != nil {
		st.LastError = run.err.Error()
	}
	return st
}

func (r *captureRun) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

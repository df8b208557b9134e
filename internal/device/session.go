package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ud18_logger/internal/logger"
)

const (
	// DefaultNameFilter is matched against advertised names, ignoring case.
	DefaultNameFilter = "UD18_BLE"
	// DefaultNotifyCharacteristic carries the live frames.
	DefaultNotifyCharacteristic = "0000ffe1-0000-1000-8000-00805f9b34fb"
	DefaultScanTimeout          = 5 * time.Second
	DefaultFrameBuffer          = 64
)

// Config tunes one Session.
type Config struct {
	NameFilter     string
	Characteristic string
	ScanTimeout    time.Duration
	// FrameBuffer bounds notifications waiting for the receive loop. Newer
	// frames are dropped when it is full.
	FrameBuffer int
	// Clock stamps received frames. Defaults to time.Now.
	Clock func() time.Time

	OnStateChange  func(State)
	OnFrameDropped func()
}

func (c Config) withDefaults() Config {
	if c.NameFilter == "" {
		c.NameFilter = DefaultNameFilter
	}
	if c.Characteristic == "" {
		c.Characteristic = DefaultNotifyCharacteristic
	}
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = DefaultScanTimeout
	}
	if c.FrameBuffer <= 0 {
		c.FrameBuffer = DefaultFrameBuffer
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Session drives one device through discover, connect, subscribe and
// receive. It is used from a single goroutine; State may be read from any.
type Session struct {
	adapter Adapter
	cfg     Config
	log     *logger.Logger

	mu    sync.RWMutex
	state State

	device         Advertisement
	conn           Conn
	characteristic string
	frames         chan []byte
}

// NewSession returns an idle session using adapter.
func NewSession(adapter Adapter, cfg Config, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		adapter: adapter,
		cfg:     cfg.withDefaults(),
		log:     log,
		state:   StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Device returns the peripheral chosen by Discover.
func (s *Session) Device() Advertisement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()
	if prev == st {
		return
	}
	s.log.Infow("session_state", "from", prev, "to", st)
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(st)
	}
}

// MatchName reports whether an advertised name contains target, ignoring
// case. Unnamed peripherals never match.
func MatchName(name, target string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(name), strings.ToUpper(target))
}

// Run performs the whole lifecycle with the configured name filter,
// characteristic and scan timeout, then receives until ctx is canceled or
// the link fails. Cancellation is a clean stop and returns nil.
func (s *Session) Run(ctx context.Context, onFrame FrameHandler) error {
	adv, err := s.Discover(ctx, s.cfg.NameFilter, s.cfg.ScanTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if err := s.ConnectAndSubscribe(ctx, adv, s.cfg.Characteristic); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return s.Receive(ctx, onFrame)
}

// Discover scans for at most timeout and returns the first advertisement
// whose name contains nameSubstring. When nothing matches in time the
// session stays in Scanning and ErrDiscoveryTimeout is returned.
func (s *Session) Discover(ctx context.Context, nameSubstring string, timeout time.Duration) (Advertisement, error) {
	s.setState(StateScanning)

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		found   Advertisement
		matched bool
	)
	err := s.adapter.Scan(scanCtx, func(adv Advertisement) bool {
		if !MatchName(adv.Name, nameSubstring) {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if !matched {
			found, matched = adv, true
		}
		return true
	})

	mu.Lock()
	defer mu.Unlock()
	switch {
	case matched:
		s.mu.Lock()
		s.device = found
		s.mu.Unlock()
		s.log.Infow("device_found", "name", found.Name, "address", found.Address, "rssi", found.RSSI)
		return found, nil
	case ctx.Err() != nil:
		s.setState(StateIdle)
		return Advertisement{}, ctx.Err()
	case err != nil && !errors.Is(err, context.DeadlineExceeded):
		s.setState(StateError)
		return Advertisement{}, &StageError{Stage: StageDiscover, Err: fmt.Errorf("scan: %w", err)}
	default:
		s.log.Infow("device_not_found", "filter", nameSubstring, "timeout", timeout)
		return Advertisement{}, &StageError{Stage: StageDiscover, Err: ErrDiscoveryTimeout}
	}
}

// ConnectAndSubscribe opens the link, checks it is live and subscribes to
// characteristic. Notifications are queued for Receive.
func (s *Session) ConnectAndSubscribe(ctx context.Context, adv Advertisement, characteristic string) error {
	s.setState(StateConnecting)

	conn, err := s.adapter.Connect(ctx, adv)
	if err != nil {
		if ctx.Err() != nil {
			s.setState(StateIdle)
			return ctx.Err()
		}
		s.setState(StateError)
		return &StageError{Stage: StageConnect, Device: adv.Address, Err: fmt.Errorf("%w: %w", ErrConnectionFailed, err)}
	}
	if !conn.Connected() {
		s.closeConn(conn)
		s.setState(StateError)
		return &StageError{Stage: StageConnect, Device: adv.Address, Err: ErrConnectionFailed}
	}

	frames := make(chan []byte, s.cfg.FrameBuffer)
	if err := conn.Subscribe(ctx, characteristic, s.enqueue(frames)); err != nil {
		s.closeConn(conn)
		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return ctx.Err()
		}
		s.setState(StateError)
		return &StageError{Stage: StageSubscribe, Device: adv.Address, Err: fmt.Errorf("%w: %w", ErrSubscriptionFailed, err)}
	}

	s.conn = conn
	s.characteristic = characteristic
	s.frames = frames
	s.setState(StateSubscribed)
	return nil
}

// enqueue copies each payload into the frame queue without blocking the
// backend.
func (s *Session) enqueue(frames chan<- []byte) NotificationHandler {
	return func(payload []byte) {
		frame := append([]byte(nil), payload...)
		select {
		case frames <- frame:
		default:
			s.log.Debugw("frame_dropped", "reason", "queue_full", "len", len(frame))
			if s.cfg.OnFrameDropped != nil {
				s.cfg.OnFrameDropped()
			}
		}
	}
}

// Receive hands every inbound frame to onFrame until ctx is canceled (clean
// stop, nil), the link drops (ErrConnectionLost) or onFrame fails. Frames
// queued before a drop are still delivered.
func (s *Session) Receive(ctx context.Context, onFrame FrameHandler) error {
	if s.conn == nil {
		return ErrNotSubscribed
	}
	s.setState(StateReceiving)
	addr := s.Device().Address

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			s.setState(StateDisconnected)
			return nil
		case <-s.conn.Disconnected():
			err := s.drain(onFrame)
			s.closeConn(s.conn)
			s.conn = nil
			if err != nil {
				s.setState(StateError)
				return &StageError{Stage: StageReceive, Device: addr, Err: err}
			}
			s.setState(StateDisconnected)
			return &StageError{Stage: StageReceive, Device: addr, Err: ErrConnectionLost}
		case frame := <-s.frames:
			if err := onFrame(frame, s.cfg.Clock()); err != nil {
				s.teardown()
				s.setState(StateError)
				return &StageError{Stage: StageReceive, Device: addr, Err: err}
			}
		}
	}
}

// drain hands frames already queued before the link dropped to onFrame.
func (s *Session) drain(onFrame FrameHandler) error {
	for {
		select {
		case frame := <-s.frames:
			if err := onFrame(frame, s.cfg.Clock()); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// teardown stops notifications and releases the link.
func (s *Session) teardown() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Unsubscribe(s.characteristic); err != nil {
		s.log.Warnw("unsubscribe_failed", "err", err)
	}
	s.closeConn(s.conn)
	s.conn = nil
}

func (s *Session) closeConn(c Conn) {
	if err := c.Close(); err != nil {
		s.log.Warnw("connection_close_failed", "err", err)
	}
}

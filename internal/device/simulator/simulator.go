// Package simulator is a device.Adapter that fakes a UD18 meter charging a
// phone, so the capture pipeline can run without a radio.
package simulator

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"ud18_logger/internal/decoder"
	"ud18_logger/internal/device"
)

// ----------- Simulation constants -----------
const (
	DefaultName    = "UD18_BLE-SIM"
	DefaultAddress = "00:00:00:00:18:18"
	DefaultPeriod  = 1 * time.Second

	BusVoltage    = 5.10 // V
	VoltageSagPer = 0.15 // V of sag per A drawn
	PeakCurrent   = 2.40 // A during fast charge
	TrickleAmps   = 0.15 // A once the battery is nearly full
	TaperAfter    = 30 * time.Minute
	DataLineV     = 0.60 // D+/D- under a DCP handshake
	// HistoryEvery makes every Nth notification a history page, which the
	// decoder must reject. Zero disables it.
	HistoryEvery = 10

	historyType = 0x02
)

var errNotSubscribed = errors.New("simulator: not subscribed")

// Adapter advertises one simulated meter.
type Adapter struct {
	Name    string
	Address string
	Period  time.Duration
	// PadFrames appends the trailing padding byte some firmware sends.
	PadFrames bool
}

// New returns a simulated meter notifying every period.
func New(name string, period time.Duration) *Adapter {
	if name == "" {
		name = DefaultName
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Adapter{Name: name, Address: DefaultAddress, Period: period, PadFrames: true}
}

// Scan reports the simulated meter once.
func (a *Adapter) Scan(ctx context.Context, found func(device.Advertisement) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if found(device.Advertisement{Name: a.Name, Address: a.Address, RSSI: -42}) {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

// Connect opens a simulated link.
func (a *Adapter) Connect(ctx context.Context, adv device.Advertisement) (device.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &conn{adapter: a, lost: make(chan struct{})}, nil
}

type conn struct {
	adapter *Adapter

	mu     sync.Mutex
	stop   context.CancelFunc
	done   chan struct{}
	closed bool
	lost   chan struct{}
}

func (c *conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *conn) Disconnected() <-chan struct{} { return c.lost }

// Subscribe starts the notification loop.
func (c *conn) Subscribe(ctx context.Context, characteristic string, h device.NotificationHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("simulator: link closed")
	}
	if c.stop != nil {
		return errors.New("simulator: already subscribed")
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	c.stop = cancel
	c.done = make(chan struct{})
	go c.run(loopCtx, h)
	return nil
}

func (c *conn) Unsubscribe(string) error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop = nil
	c.mu.Unlock()
	if stop == nil {
		return errNotSubscribed
	}
	stop()
	<-done
	return nil
}

func (c *conn) Close() error {
	_ = c.Unsubscribe("")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// run ticks at the adapter period until ctx is canceled.
func (c *conn) run(ctx context.Context, h device.NotificationHandler) {
	defer close(c.done)

	t := time.NewTicker(c.adapter.Period)
	defer t.Stop()

	m := &meter{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h(m.next(c.adapter.Period, c.adapter.PadFrames))
		}
	}
}

// meter integrates charge and energy across ticks.
type meter struct {
	elapsed  time.Duration
	mAh      float64
	wh       float64
	notified int
}

// next advances the simulation by dt and returns the notification payload.
func (m *meter) next(dt time.Duration, pad bool) []byte {
	m.elapsed += dt
	m.notified++

	current := chargeCurrent(m.elapsed)
	voltage := BusVoltage - VoltageSagPer*current
	hours := dt.Hours()
	m.mAh += current * 1000 * hours
	m.wh += voltage * current * hours

	secs := int(m.elapsed.Seconds())
	f := decoder.Frame{
		VoltageRaw:  uint32(math.Round(voltage * 100)),
		CurrentRaw:  uint32(math.Round(current * 100)),
		CapacityMAh: uint32(m.mAh),
		EnergyRaw:   uint32(math.Round(m.wh * 100)),
		DMinusRaw:   uint16(math.Round(DataLineV * 100)),
		DPlusRaw:    uint16(math.Round(DataLineV * 100)),
		Hours:       uint8(secs / 3600),
		Minutes:     uint8(secs / 60 % 60),
		Seconds:     uint8(secs % 60),
	}
	b := f.Encode()
	if HistoryEvery > 0 && m.notified%HistoryEvery == 0 {
		b[2] = historyType
	}
	if pad {
		b = append(b, 0x00)
	}
	return b
}

// chargeCurrent is a constant-current phase followed by an exponential taper.
func chargeCurrent(elapsed time.Duration) float64 {
	if elapsed <= TaperAfter {
		return PeakCurrent
	}
	over := (elapsed - TaperAfter).Minutes()
	return maxFloat(PeakCurrent*math.Exp(-over/20), TrickleAmps)
}

// helpers
func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

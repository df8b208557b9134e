package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ud18_logger/internal/decoder"
	"ud18_logger/internal/device"
)

func TestChargeCurrent_ConstantThenTaper(t *testing.T) {
	if got := chargeCurrent(time.Minute); got != PeakCurrent {
		t.Fatalf("got %.2f, want %.2f", got, PeakCurrent)
	}
	if got := chargeCurrent(TaperAfter + 20*time.Minute); got >= PeakCurrent || got <= TrickleAmps {
		t.Fatalf("expected taper between trickle and peak, got %.3f", got)
	}
	if got := chargeCurrent(TaperAfter + 10*time.Hour); got != TrickleAmps {
		t.Fatalf("expected clamp to trickle, got %.3f", got)
	}
}

func TestMeter_FramesDecode(t *testing.T) {
	m := &meter{}
	now := time.Now()
	for i := 1; i <= 2*HistoryEvery; i++ {
		b := m.next(time.Second, true)
		if len(b) != decoder.PaddedFrameSize {
			t.Fatalf("len = %d, want %d", len(b), decoder.PaddedFrameSize)
		}
		got, err := decoder.Decode(b, now)
		if i%HistoryEvery == 0 {
			if !errors.Is(err, decoder.ErrPacketType) {
				t.Fatalf("tick %d: expected history page rejection, got %v", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if got.Current != PeakCurrent {
			t.Fatalf("current = %.2f", got.Current)
		}
		if got.Runtime != "00:00:"+twoDigits(i) {
			t.Fatalf("runtime = %q at tick %d", got.Runtime, i)
		}
	}
	if m.mAh <= 0 || m.wh <= 0 {
		t.Fatalf("expected accumulated charge, got mAh=%.3f wh=%.3f", m.mAh, m.wh)
	}
}

func twoDigits(i int) string {
	return string([]byte{byte('0' + i/10), byte('0' + i%10)})
}

func TestAdapter_DrivesSession(t *testing.T) {
	a := New("", 5*time.Millisecond)
	s := device.NewSession(a, device.Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		frames int
	)
	err := s.Run(ctx, func(frame []byte, _ time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		frames++
		if frames == 3 {
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frames < 3 {
		t.Fatalf("frames = %d, want >= 3", frames)
	}
	if s.State() != device.StateDisconnected {
		t.Fatalf("state = %v", s.State())
	}
}

func TestAdapter_NameFilterMiss(t *testing.T) {
	a := New("OtherMeter", time.Second)
	s := device.NewSession(a, device.Config{ScanTimeout: 20 * time.Millisecond}, nil)

	err := s.Run(context.Background(), nil)
	if !errors.Is(err, device.ErrDiscoveryTimeout) {
		t.Fatalf("expected ErrDiscoveryTimeout, got %v", err)
	}
}

func TestConn_UnsubscribeStopsNotifications(t *testing.T) {
	a := New("", time.Millisecond)
	c, err := a.Connect(context.Background(), device.Advertisement{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	var (
		mu sync.Mutex
		n  int
	)
	if err := c.Subscribe(context.Background(), device.DefaultNotifyCharacteristic, func([]byte) {
		mu.Lock()
		n++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := c.Unsubscribe(device.DefaultNotifyCharacteristic); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	mu.Lock()
	seen := n
	mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if n != seen {
		t.Fatalf("notifications continued after unsubscribe: %d -> %d", seen, n)
	}
	if err := c.Close(); err != nil || c.Connected() {
		t.Fatalf("close: err=%v connected=%v", err, c.Connected())
	}
}

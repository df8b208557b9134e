//go:build linux

package blelinux

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"

	"ud18_logger/internal/device"
)

// ErrDisconnectTimeout is returned by Close when the controller never
// confirms the link is gone.
var ErrDisconnectTimeout = errors.New("timed out waiting for disconnect")

var disconnectTimeout = 3 * time.Second

// Adapter owns one HCI controller.
type Adapter struct {
	dev *linux.Device
}

// Open claims HCI controller hciID (0 for hci0).
func Open(hciID int) (*Adapter, error) {
	d, err := linux.NewDevice(ble.OptDeviceID(hciID))
	if err != nil {
		return nil, fmt.Errorf("open hci%d: %w", hciID, err)
	}
	return &Adapter{dev: d}, nil
}

// Close releases the controller.
func (a *Adapter) Close() error {
	return a.dev.Stop()
}

// Scan runs an active scan until found accepts an advertisement or ctx ends.
func (a *Adapter) Scan(ctx context.Context, found func(device.Advertisement) bool) error {
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		matched bool
	)
	err := a.dev.Scan(scanCtx, false, func(adv ble.Advertisement) {
		mu.Lock()
		defer mu.Unlock()
		if matched {
			return
		}
		if found(device.Advertisement{Name: adv.LocalName(), Address: adv.Addr().String(), RSSI: adv.RSSI()}) {
			matched = true
			cancel()
		}
	})

	mu.Lock()
	defer mu.Unlock()
	if matched {
		return nil
	}
	return err
}

// Connect dials the peripheral and discovers its GATT profile.
func (a *Adapter) Connect(ctx context.Context, adv device.Advertisement) (device.Conn, error) {
	cln, err := a.dev.Dial(ctx, ble.NewAddr(adv.Address))
	if err != nil {
		return nil, err
	}
	p, err := cln.DiscoverProfile(true)
	if err != nil {
		_ = cln.CancelConnection()
		return nil, fmt.Errorf("discover profile: %w", err)
	}
	return &conn{client: cln, profile: p, subs: make(map[string]*ble.Characteristic)}, nil
}

type conn struct {
	client  ble.Client
	profile *ble.Profile

	mu   sync.Mutex
	subs map[string]*ble.Characteristic
}

func (c *conn) Connected() bool {
	select {
	case <-c.client.Disconnected():
		return false
	default:
		return c.client.Conn() != nil
	}
}

func (c *conn) Disconnected() <-chan struct{} { return c.client.Disconnected() }

// Subscribe enables notifications on characteristic.
func (c *conn) Subscribe(ctx context.Context, characteristic string, h device.NotificationHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	uuids, err := characteristicUUIDs(characteristic)
	if err != nil {
		return err
	}
	char := findCharacteristic(c.profile, uuids)
	if char == nil {
		return fmt.Errorf("characteristic %s not found on peripheral", characteristic)
	}
	if char.Property&ble.CharNotify == 0 {
		return fmt.Errorf("characteristic %s does not support notify", characteristic)
	}
	if err := c.client.Subscribe(char, false, ble.NotificationHandler(h)); err != nil {
		return err
	}
	c.mu.Lock()
	c.subs[characteristic] = char
	c.mu.Unlock()
	return nil
}

func (c *conn) Unsubscribe(characteristic string) error {
	c.mu.Lock()
	char, ok := c.subs[characteristic]
	delete(c.subs, characteristic)
	c.mu.Unlock()
	if !ok {
		return errors.New("not subscribed to " + characteristic)
	}
	return c.client.Unsubscribe(char, false)
}

// Close asks the controller to drop the link and waits up to
// disconnectTimeout for it to report the disconnect.
func (c *conn) Close() error {
	if err := c.client.CancelConnection(); err != nil {
		return fmt.Errorf("cancel connection: %w", err)
	}
	t := time.NewTimer(disconnectTimeout)
	defer t.Stop()
	select {
	case <-c.client.Disconnected():
		return nil
	case <-t.C:
		return ErrDisconnectTimeout
	}
}

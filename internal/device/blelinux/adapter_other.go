//go:build !linux

package blelinux

import (
	"context"
	"errors"

	"ud18_logger/internal/device"
)

// ErrUnsupported is returned on platforms without an HCI socket.
var ErrUnsupported = errors.New("ble backend requires linux")

// Adapter is unavailable outside Linux.
type Adapter struct{}

// Open always fails outside Linux; use the simulator backend.
func Open(int) (*Adapter, error) { return nil, ErrUnsupported }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) Scan(context.Context, func(device.Advertisement) bool) error {
	return ErrUnsupported
}

func (a *Adapter) Connect(context.Context, device.Advertisement) (device.Conn, error) {
	return nil, ErrUnsupported
}

// Package device manages the wireless link to the power meter: discovery,
// connection, notification subscription and the receive loop.
package device

import (
	"context"
	"time"
)

// Advertisement is what a scan reports about a nearby peripheral.
type Advertisement struct {
	Name    string
	Address string
	RSSI    int
}

// NotificationHandler receives one notification payload. Backends may call it
// from their own goroutines and may reuse the slice after it returns.
type NotificationHandler func(payload []byte)

// Adapter is a central-role radio backend.
type Adapter interface {
	// Scan reports advertisements to found until found returns true, in
	// which case Scan stops and returns nil, or until ctx is done, in which
	// case it returns ctx.Err().
	Scan(ctx context.Context, found func(Advertisement) bool) error
	// Connect opens a link to the advertised peripheral.
	Connect(ctx context.Context, adv Advertisement) (Conn, error)
}

// Conn is an open link to one peripheral.
type Conn interface {
	// Connected reports whether the link is usable right now.
	Connected() bool
	Subscribe(ctx context.Context, characteristic string, h NotificationHandler) error
	Unsubscribe(characteristic string) error
	// Disconnected is closed when the peripheral drops the link.
	Disconnected() <-chan struct{}
	Close() error
}

// FrameHandler consumes one inbound frame on the session goroutine. It must
// not block for long: the next frame waits until it returns. A non-nil error
// ends the session.
type FrameHandler func(frame []byte, receivedAt time.Time) error

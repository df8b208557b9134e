package device

import (
	"errors"
	"fmt"
)

// Lifecycle failures. None of them is retried here.
var (
	ErrDiscoveryTimeout   = errors.New("no matching device found before scan timeout")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrSubscriptionFailed = errors.New("subscription failed")
	ErrConnectionLost     = errors.New("connection lost")
	ErrNotSubscribed      = errors.New("session is not subscribed")
)

// Session stages reported in StageError.
const (
	StageDiscover  = "discover"
	StageConnect   = "connect"
	StageSubscribe = "subscribe"
	StageReceive   = "receive"
)

// StageError tells which lifecycle stage a session failed in.
type StageError struct {
	Stage  string
	Device string
	Err    error
}

func (e *StageError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Device, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

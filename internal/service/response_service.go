package service

import (
	"time"

	"ud18_logger/internal/device"
	"ud18_logger/internal/recorder"
)

// RecordFilter selects persisted records by capture time.
type RecordFilter struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Limit int       // keep only the newest Limit records; 0 means all
}

// CaptureStatus describes the current or most recent capture session.
type CaptureStatus struct {
	SessionID string       `json:"session_id,omitempty"`
	Running   bool         `json:"running"`
	State     device.State `json:"state"`
	Device    string       `json:"device,omitempty"`
	Address   string       `json:"address,omitempty"`
	StartedAt *time.Time   `json:"started_at,omitempty"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`

	FramesDecoded  uint64         `json:"frames_decoded"`
	FramesRejected uint64         `json:"frames_rejected"`
	Recorder       recorder.Stats `json:"recorder"`

	LastError string `json:"last_error,omitempty"`
}

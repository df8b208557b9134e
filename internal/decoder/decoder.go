// Package decoder turns UD18 notification frames into measurements.
//
// A live frame is 36 bytes (some firmware appends one padding byte):
//
//	0-1   sync marker FF 55
//	2     packet type, 01 = live measurement
//	3     unused
//	4-6   voltage  x100, big endian
//	7-9   current  x100
//	10-12 capacity mAh
//	13-16 energy   x100 Wh
//	17-18 D-       x100 V
//	19-20 D+       x100 V
//	21-23 reserved
//	24-26 device runtime hh mm ss
//	27-35 reserved
package decoder

import (
	"errors"
	"fmt"
	"time"

	"ud18_logger/internal/models"
)

const (
	// FrameSize is the length of a live frame without padding.
	FrameSize = 36
	// PaddedFrameSize is a live frame with the trailing padding byte.
	PaddedFrameSize = 37

	syncByte0 = 0xFF
	syncByte1 = 0x55

	// TypeLive selects live measurement packets. Other types (history pages)
	// are rejected.
	TypeLive = 0x01

	scale = 100.0
)

var (
	// ErrMalformedFrame is wrapped by every rejection.
	ErrMalformedFrame = errors.New("malformed frame")

	ErrFrameLength = fmt.Errorf("%w: bad length", ErrMalformedFrame)
	ErrSyncMarker  = fmt.Errorf("%w: bad sync marker", ErrMalformedFrame)
	ErrPacketType  = fmt.Errorf("%w: unsupported packet type", ErrMalformedFrame)
)

// Frame holds the raw integer fields of a live frame.
type Frame struct {
	VoltageRaw  uint32 // 24 bit
	CurrentRaw  uint32 // 24 bit
	CapacityMAh uint32 // 24 bit
	EnergyRaw   uint32
	DMinusRaw   uint16
	DPlusRaw    uint16
	Hours       uint8
	Minutes     uint8
	Seconds     uint8
}

// Parse validates a frame and extracts its raw fields.
func Parse(frame []byte) (Frame, error) {
	if len(frame) == PaddedFrameSize {
		frame = frame[:FrameSize]
	}
	if len(frame) != FrameSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes", ErrFrameLength, len(frame))
	}
	if frame[0] != syncByte0 || frame[1] != syncByte1 {
		return Frame{}, fmt.Errorf("%w: % X", ErrSyncMarker, frame[:2])
	}
	if frame[2] != TypeLive {
		return Frame{}, fmt.Errorf("%w: 0x%02X", ErrPacketType, frame[2])
	}

	return Frame{
		VoltageRaw:  uint24(frame[4:7]),
		CurrentRaw:  uint24(frame[7:10]),
		CapacityMAh: uint24(frame[10:13]),
		EnergyRaw:   uint32(frame[13])<<24 | uint32(frame[14])<<16 | uint32(frame[15])<<8 | uint32(frame[16]),
		DMinusRaw:   uint16(frame[17])<<8 | uint16(frame[18]),
		DPlusRaw:    uint16(frame[19])<<8 | uint16(frame[20]),
		Hours:       frame[24],
		Minutes:     frame[25],
		Seconds:     frame[26],
	}, nil
}

// Decode parses frame and scales it into a Measurement stamped with now.
// Nothing is returned for a rejected frame.
func Decode(frame []byte, now time.Time) (models.Measurement, error) {
	f, err := Parse(frame)
	if err != nil {
		return models.Measurement{}, err
	}
	return f.Measurement(now), nil
}

// Measurement scales the raw fields. Power is recomputed here and nowhere else.
func (f Frame) Measurement(now time.Time) models.Measurement {
	voltage := float64(f.VoltageRaw) / scale
	current := float64(f.CurrentRaw) / scale
	return models.Measurement{
		Timestamp:   now,
		Voltage:     voltage,
		Current:     current,
		Power:       voltage * current,
		CapacityMAh: int(f.CapacityMAh),
		EnergyWh:    float64(f.EnergyRaw) / scale,
		DMinusV:     float64(f.DMinusRaw) / scale,
		DPlusV:      float64(f.DPlusRaw) / scale,
		Runtime:     fmt.Sprintf("%02d:%02d:%02d", f.Hours, f.Minutes, f.Seconds),
	}
}

func uint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

package decoder

import (
	"fmt"
	"math"

	"ud18_logger/internal/models"
)

const max24 = 1<<24 - 1

// Encode builds an unpadded live frame. 24-bit fields are truncated to their
// low three bytes; reserved bytes are zero.
func (f Frame) Encode() []byte {
	b := make([]byte, FrameSize)
	b[0], b[1], b[2] = syncByte0, syncByte1, TypeLive
	putUint24(b[4:7], f.VoltageRaw)
	putUint24(b[7:10], f.CurrentRaw)
	putUint24(b[10:13], f.CapacityMAh)
	b[13] = byte(f.EnergyRaw >> 24)
	b[14] = byte(f.EnergyRaw >> 16)
	b[15] = byte(f.EnergyRaw >> 8)
	b[16] = byte(f.EnergyRaw)
	b[17], b[18] = byte(f.DMinusRaw>>8), byte(f.DMinusRaw)
	b[19], b[20] = byte(f.DPlusRaw>>8), byte(f.DPlusRaw)
	b[24], b[25], b[26] = f.Hours, f.Minutes, f.Seconds
	return b
}

// FrameFromMeasurement quantizes m to the wire resolution (1/100 unit).
// Negative or out of range values are clamped. Power is not encoded.
func FrameFromMeasurement(m models.Measurement) (Frame, error) {
	f := Frame{
		VoltageRaw:  fixed(m.Voltage, max24),
		CurrentRaw:  fixed(m.Current, max24),
		CapacityMAh: clamp(float64(m.CapacityMAh), max24),
		EnergyRaw:   fixed(m.EnergyWh, math.MaxUint32),
		DMinusRaw:   uint16(fixed(m.DMinusV, math.MaxUint16)),
		DPlusRaw:    uint16(fixed(m.DPlusV, math.MaxUint16)),
	}
	if m.Runtime != "" {
		if _, err := fmt.Sscanf(m.Runtime, "%d:%d:%d", &f.Hours, &f.Minutes, &f.Seconds); err != nil {
			return Frame{}, fmt.Errorf("parse runtime %q: %w", m.Runtime, err)
		}
	}
	return f, nil
}

func fixed(v float64, limit uint32) uint32 {
	return clamp(math.Round(v*scale), limit)
}

func clamp(v float64, limit uint32) uint32 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= float64(limit) {
		return limit
	}
	return uint32(v)
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

package models

import "time"

// Measurement is one decoded live telemetry frame of the meter.
type Measurement struct {
	Timestamp   time.Time `json:"timestamp"`    // capture time, not from the frame
	Voltage     float64   `json:"voltage"`      // V
	Current     float64   `json:"current"`      // A
	Power       float64   `json:"power"`        // W, always Voltage*Current
	CapacityMAh int       `json:"capacity_mAh"` // mAh
	EnergyWh    float64   `json:"energy_Wh"`    // Wh
	DMinusV     float64   `json:"d_minus_V"`    // V
	DPlusV      float64   `json:"d_plus_V"`     // V
	Runtime     string    `json:"runtime"`      // HH:MM:SS as reported by the device
}

// MeasurementColumns is the persisted column order.
var MeasurementColumns = []string{
	"timestamp",
	"voltage",
	"current",
	"power",
	"capacity_mAh",
	"energy_Wh",
	"d_minus_V",
	"d_plus_V",
	"runtime",
}

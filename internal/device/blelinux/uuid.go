// Package blelinux implements device.Adapter on a Linux HCI controller
// through github.com/go-ble/ble.
package blelinux

import (
	"fmt"
	"strings"

	"github.com/go-ble/ble"
)

// bluetoothBaseSuffix is the tail of every UUID in the Bluetooth base range.
const bluetoothBaseSuffix = "-0000-1000-8000-00805f9b34fb"

// characteristicUUIDs parses s and, for UUIDs in the Bluetooth base range,
// adds the 16-bit short form the peripheral usually declares.
func characteristicUUIDs(s string) ([]ble.UUID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	full, err := ble.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse characteristic %q: %w", s, err)
	}
	out := []ble.UUID{full}
	if len(s) == 36 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, bluetoothBaseSuffix) {
		short, err := ble.Parse(s[4:8])
		if err == nil {
			out = append(out, short)
		}
	}
	return out, nil
}

// findCharacteristic looks up any of uuids in a discovered profile.
func findCharacteristic(p *ble.Profile, uuids []ble.UUID) *ble.Characteristic {
	if p == nil {
		return nil
	}
	for _, u := range uuids {
		if c := p.FindCharacteristic(ble.NewCharacteristic(u)); c != nil {
			return c
		}
	}
	return nil
}

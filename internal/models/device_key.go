package models

import (
	"fmt"
	"sort"
)

// DeviceKey joins capture events with device metadata. Address 0 is reserved on the wire
// and is used here for the per-bus aggregate.
//
// A device that reconnects and receives a previously used address is indistinguishable
// from the old one; the key carries no generation.
type DeviceKey struct {
	Bus     uint16 `json:"bus"`
	Address uint8  `json:"address"`
}

// BusKey returns the key of the aggregate for the given bus.
func BusKey(bus uint16) DeviceKey {
	return DeviceKey{Bus: bus}
}

func (k DeviceKey) IsBus() bool {
	return k.Address == 0
}

func (k DeviceKey) String() string {
	return fmt.Sprintf("%d-%d", k.Bus, k.Address)
}

// Less orders keys by bus, then address.
func (k DeviceKey) Less(other DeviceKey) bool {
	if k.Bus != other.Bus {
		return k.Bus < other.Bus
	}
	return k.Address < other.Address
}

// SortKeys sorts keys in place by bus, then address.
func SortKeys(keys []DeviceKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

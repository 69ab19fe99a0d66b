package models

// Speed is the negotiated link speed of a USB device.
type Speed string

const (
	SpeedUnknown   Speed = "unknown"
	SpeedLow       Speed = "low"
	SpeedFull      Speed = "full"
	SpeedHigh      Speed = "high"
	SpeedSuper     Speed = "super"
	SpeedSuperPlus Speed = "super_plus"
)

type speedInfo struct {
	label     string
	bitRate   uint64
	practical uint64 // bit rate after typical protocol overhead
}

var speedTable = map[Speed]speedInfo{
	SpeedLow:       {label: "1.5M", bitRate: 1_500_000, practical: 1_050_000},
	SpeedFull:      {label: "12M", bitRate: 12_000_000, practical: 9_600_000},
	SpeedHigh:      {label: "480M", bitRate: 480_000_000, practical: 384_000_000},
	SpeedSuper:     {label: "5G", bitRate: 5_000_000_000, practical: 4_250_000_000},
	SpeedSuperPlus: {label: "10G", bitRate: 10_000_000_000, practical: 8_500_000_000},
}

// speedTokens maps the Mbps strings found in sysfs "speed" files.
var speedTokens = map[string]Speed{
	"1.5":   SpeedLow,
	"12":    SpeedFull,
	"480":   SpeedHigh,
	"5000":  SpeedSuper,
	"10000": SpeedSuperPlus,
	"20000": SpeedSuperPlus,
}

// ParseSpeed maps a speed token to a Speed. Unrecognized tokens map to SpeedUnknown.
func ParseSpeed(token string) Speed {
	if speed, ok := speedTokens[token]; ok {
		return speed
	}
	return SpeedUnknown
}

// BitRate returns the nominal signalling rate in bits per second, 0 when unknown.
func (s Speed) BitRate() uint64 {
	return speedTable[s].bitRate
}

// PracticalBitRate returns the usable bit rate, 0 when unknown.
func (s Speed) PracticalBitRate() uint64 {
	return speedTable[s].practical
}

// Label is the short display form, e.g. "480M".
func (s Speed) Label() string {
	if info, ok := speedTable[s]; ok {
		return info.label
	}
	return "?"
}

// Faster reports whether s has a higher nominal rate than other.
func (s Speed) Faster(other Speed) bool {
	return s.BitRate() > other.BitRate()
}

package captures

import (
	"fmt"
	"path/filepath"

	"usbtop/internal/decoders"
)

const (
	DefaultBinaryRoot = "/dev"
	DefaultTextRoot   = "/sys/kernel/debug/usb/usbmon"
)

// Paths locates the usbmon files of each bus.
type Paths struct {
	BinaryRoot string // holds usbmon<bus> character devices
	TextRoot   string // debugfs directory holding <bus>u files
}

func DefaultPaths() Paths {
	return Paths{BinaryRoot: DefaultBinaryRoot, TextRoot: DefaultTextRoot}
}

// For returns the file to read for bus in the given format.
func (p Paths) For(bus uint16, mode decoders.Mode) string {
	if mode == decoders.ModeText {
		return filepath.Join(p.TextRoot, fmt.Sprintf("%du", bus))
	}
	return filepath.Join(p.BinaryRoot, fmt.Sprintf("usbmon%d", bus))
}

func alternateMode(mode decoders.Mode) decoders.Mode {
	if mode == decoders.ModeText {
		return decoders.ModeBinary
	}
	return decoders.ModeText
}

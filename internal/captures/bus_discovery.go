package captures

import (
	"errors"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// DiscoverBuses lists the buses that have a usbmon file in either format. Bus 0 is the
// all-buses pseudo interface and is never returned; capturing it next to real buses
// would count every transfer twice.
func DiscoverBuses(fsys afero.Fs, paths Paths) ([]uint16, error) {
	found := map[uint16]struct{}{}

	textBuses, textErr := scanBuses(fsys, paths.TextRoot, "", "u")
	for _, bus := range textBuses {
		found[bus] = struct{}{}
	}
	binaryBuses, binaryErr := scanBuses(fsys, paths.BinaryRoot, "usbmon", "")
	for _, bus := range binaryBuses {
		found[bus] = struct{}{}
	}

	if len(found) == 0 {
		if err := errors.Join(textErr, binaryErr); err != nil {
			return nil, classify(paths.TextRoot, err)
		}
		return nil, errInterfaceUnavailable(paths.TextRoot, fs.ErrNotExist)
	}

	buses := make([]uint16, 0, len(found))
	for bus := range found {
		buses = append(buses, bus)
	}
	sort.Slice(buses, func(i, j int) bool { return buses[i] < buses[j] })
	return buses, nil
}

func scanBuses(fsys afero.Fs, dir, prefix, suffix string) ([]uint16, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var buses []uint16
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		bus, err := strconv.ParseUint(digits, 10, 16)
		if err != nil || bus == 0 {
			continue
		}
		buses = append(buses, uint16(bus))
	}
	return buses, nil
}

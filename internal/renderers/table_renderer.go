package renderers

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"usbtop/internal/models"
	"usbtop/internal/orchestrators"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

const clearScreen = "\033[H\033[2J"

// DeviceNamer resolves display names for devices.
type DeviceNamer interface {
	Lookup(key models.DeviceKey) (models.DeviceInfo, bool)
}

type tableRenderer struct {
	w           io.Writer
	names       DeviceNamer
	clearScreen bool
}

// NewTableRenderer draws each tick as a console table. With clear set the terminal is
// cleared before every frame.
func NewTableRenderer(w io.Writer, names DeviceNamer, clear bool) orchestrators.Renderer {
	return &tableRenderer{w: w, names: names, clearScreen: clear}
}

func (r *tableRenderer) Render(_ context.Context, snapshot *models.TickSnapshot) error {
	if r.clearScreen {
		if _, err := io.WriteString(r.w, clearScreen); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(r.w, "usbtop  tick %d  %s\n", snapshot.Sequence, snapshot.TakenAt.Format("15:04:05")); err != nil {
		return err
	}

	table := tablewriter.NewWriter(r.w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Bus", "Device", "Name", "Speed", "RX/s", "TX/s", "Peak/s", "Busy", "State"})

	devicesByBus := make(map[uint16][]models.BandwidthStats)
	for _, stats := range snapshot.Devices {
		devicesByBus[stats.Key.Bus] = append(devicesByBus[stats.Key.Bus], stats)
	}
	for _, bus := range snapshot.Buses {
		table.Append(r.row(bus))
		for _, device := range devicesByBus[bus.Key.Bus] {
			table.Append(r.row(device))
		}
	}
	table.Render()

	for _, condition := range snapshot.Conditions {
		if _, err := fmt.Fprintln(r.w, formatCondition(condition)); err != nil {
			return err
		}
	}
	return nil
}

func (r *tableRenderer) row(stats models.BandwidthStats) []string {
	device, name := strconv.Itoa(int(stats.Key.Address)), ""
	if stats.Key.IsBus() {
		device, name = "*", fmt.Sprintf("bus %d", stats.Key.Bus)
	} else if r.names != nil {
		if info, ok := r.names.Lookup(stats.Key); ok {
			name = info.DisplayName()
		}
	}

	state := "active"
	if stats.Stale {
		state = "stale"
	}

	return []string{
		strconv.Itoa(int(stats.Key.Bus)),
		device,
		name,
		stats.Speed.Label(),
		formatRate(stats.RxBytesPerSec),
		formatRate(stats.TxBytesPerSec),
		formatRate(stats.PeakBytesPerSec),
		fmt.Sprintf("%.1f%%", stats.Utilization*100),
		state,
	}
}

func formatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytesPerSec + 0.5))
}

func formatCondition(condition models.SourceCondition) string {
	if condition.Bus == 0 {
		return fmt.Sprintf("%s: %s", condition.Severity, condition.Message)
	}
	return fmt.Sprintf("%s: bus %d: %s (%s)", condition.Severity, condition.Bus, condition.Message, condition.Kind)
}

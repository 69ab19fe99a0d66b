package captures_test

import (
	"testing"

	"usbtop/internal/captures"
	"usbtop/internal/models"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverBuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    []string
		expected []uint16
	}{
		{
			name: "merges both formats and skips bus 0",
			files: []string{
				"/sys/kernel/debug/usb/usbmon/0u",
				"/sys/kernel/debug/usb/usbmon/0s",
				"/sys/kernel/debug/usb/usbmon/1u",
				"/sys/kernel/debug/usb/usbmon/1t",
				"/sys/kernel/debug/usb/usbmon/2u",
				"/dev/usbmon0",
				"/dev/usbmon1",
				"/dev/usbmon3",
				"/dev/null",
			},
			expected: []uint16{1, 2, 3},
		},
		{
			name:     "binary only",
			files:    []string{"/dev/usbmon4", "/dev/usbmon12"},
			expected: []uint16{4, 12},
		},
		{
			name:     "text only",
			files:    []string{"/sys/kernel/debug/usb/usbmon/7u"},
			expected: []uint16{7},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsys := afero.NewMemMapFs()
			for _, f := range tt.files {
				require.NoError(t, afero.WriteFile(fsys, f, nil, 0o600))
			}

			buses, err := captures.DiscoverBuses(fsys, captures.DefaultPaths())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buses)
		})
	}
}

func TestDiscoverBuses_NothingFound(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/dev", 0o755))

	_, err := captures.DiscoverBuses(fsys, captures.DefaultPaths())
	require.Error(t, err)
	assert.Equal(t, models.CaptureErrorInterfaceUnavailable, captures.KindOf(err))
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.CaptureErrorNone, captures.KindOf(nil))
	assert.Equal(t, models.CaptureErrorUnknown, captures.KindOf(assert.AnError))
}

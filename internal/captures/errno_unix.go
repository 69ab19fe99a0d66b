//go:build unix

package captures

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isPermissionErrno(err error) bool {
	return errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM)
}

func isMissingErrno(err error) bool {
	return errors.Is(err, unix.ENOENT)
}

// isDeviceGone matches the errors usbmon returns once its bus is unregistered.
func isDeviceGone(err error) bool {
	return errors.Is(err, unix.ENODEV) || errors.Is(err, unix.ENXIO) || errors.Is(err, unix.ESHUTDOWN)
}

package devices

import (
	"fmt"

	"usbtop/internal/shared/svcerrors"
)

const (
	codeScanFailed = "DEV_1000"
)

// errScanFailed returns an error when the sysfs device directory cannot be listed.
func errScanFailed(root string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewUnavailableError(codeScanFailed, fmt.Sprintf("cannot list usb devices under %s", root), cause)
}

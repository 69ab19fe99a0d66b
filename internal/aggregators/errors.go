package aggregators

import (
	"fmt"
	"time"

	"usbtop/internal/shared/svcerrors"
)

const (
	codeInvalidWindow = "AGG_1000"
)

// errInvalidWindow returns an error when the bucket width cannot tile the history window.
func errInvalidWindow(history, bucket time.Duration) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidWindow,
		fmt.Sprintf("sample bucket %s must be positive and no wider than history window %s", bucket, history), nil)
}

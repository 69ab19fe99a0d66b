package orchestrators

import (
	"fmt"

	"usbtop/internal/models"
	"usbtop/internal/shared/svcerrors"
)

const (
	codeNoActiveSources = "ORC_1000"
	codeUnknownKey      = "ORC_1001"
	codeNotRunning      = "ORC_1002"
	codeAlreadyStarted  = "ORC_1003"
)

// ErrNoActiveSources is returned by Run after every capture source has failed.
var ErrNoActiveSources = svcerrors.NewUnavailableError(codeNoActiveSources, "no active capture sources remain", nil)

func errUnknownKey(key models.DeviceKey) *svcerrors.ServiceError {
	return svcerrors.NewNotFoundError(codeUnknownKey, fmt.Sprintf("no statistics for %s", key), nil)
}

func errNotRunning(state State) *svcerrors.ServiceError {
	return svcerrors.NewUnavailableError(codeNotRunning, fmt.Sprintf("orchestrator is %s", state), nil)
}

func errAlreadyStarted() *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeAlreadyStarted, "orchestrator can only run once", nil)
}

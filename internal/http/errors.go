package http

import (
	"fmt"

	"usbtop/internal/models"
	"usbtop/internal/shared/svcerrors"
)

const (
	codeInvalidDeviceKey = "API_1000"
	codeUnknownDevice    = "API_1001"
	codeNoSnapshot       = "API_1002"
	codeCommandCancelled = "API_1003"
)

func errInvalidDeviceKey(param, value string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidDeviceKey, fmt.Sprintf("invalid %s %q", param, value), cause)
}

func errUnknownDevice(key models.DeviceKey, cause error) *svcerrors.ServiceError {
	return svcerrors.NewNotFoundError(codeUnknownDevice, fmt.Sprintf("no statistics for %s", key), cause)
}

func errNoSnapshot() *svcerrors.ServiceError {
	return svcerrors.NewNotFoundError(codeNoSnapshot, "no snapshot has been taken yet", nil)
}

func errCommandCancelled(cause error) *svcerrors.ServiceError {
	return svcerrors.NewUnavailableError(codeCommandCancelled, "request ended before the orchestrator answered", cause)
}

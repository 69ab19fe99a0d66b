package captures

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"usbtop/internal/models"
	"usbtop/internal/shared/svcerrors"
)

const (
	codePermissionDenied     = "CAP_1000"
	codeInterfaceUnavailable = "CAP_1001"
	codeDeviceRemoved        = "CAP_1002"
	codeMalformedStream      = "CAP_1003"
	codeSourceClosed         = "CAP_1004"

	codeInternalReadFailed = "CAP_9000"
)

var errClosed = errors.New("capture source closed")

func errPermissionDenied(path string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewPermissionDeniedError(codePermissionDenied, fmt.Sprintf("no permission to read %s", path), cause)
}

func errInterfaceUnavailable(path string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewUnavailableError(codeInterfaceUnavailable, fmt.Sprintf("usbmon interface %s is not available", path), cause)
}

func errDeviceRemoved(path string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewGoneError(codeDeviceRemoved, fmt.Sprintf("bus behind %s went away", path), cause)
}

func errMalformedStream(path string, failures int) *svcerrors.ServiceError {
	return svcerrors.NewDataLossError(codeMalformedStream,
		fmt.Sprintf("%d consecutive undecodable records from %s", failures, path), nil)
}

func errSourceClosed(path string) *svcerrors.ServiceError {
	return svcerrors.NewUnavailableError(codeSourceClosed, fmt.Sprintf("capture of %s was closed", path), errClosed)
}

func errInternalReadFailed(path string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalReadFailed, fmt.Errorf("read %s: %w", path, cause))
}

// classify maps an open or read failure onto the capture error taxonomy.
func classify(path string, err error) *svcerrors.ServiceError {
	if svcErr, ok := svcerrors.AsServiceError(err); ok {
		return svcErr
	}
	switch {
	case isPermission(err):
		return errPermissionDenied(path, err)
	case isMissing(err):
		return errInterfaceUnavailable(path, err)
	case errors.Is(err, io.EOF), isDeviceGone(err):
		return errDeviceRemoved(path, err)
	default:
		return errInternalReadFailed(path, err)
	}
}

func isPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission) || isPermissionErrno(err)
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || isMissingErrno(err)
}

// KindOf returns the capture error kind carried by err, CaptureErrorUnknown for foreign
// errors and CaptureErrorNone for nil.
func KindOf(err error) models.CaptureErrorKind {
	if err == nil {
		return models.CaptureErrorNone
	}
	svcErr, ok := svcerrors.AsServiceError(err)
	if !ok {
		return models.CaptureErrorUnknown
	}
	switch svcErr.Code {
	case codePermissionDenied:
		return models.CaptureErrorPermissionDenied
	case codeInterfaceUnavailable:
		return models.CaptureErrorInterfaceUnavailable
	case codeDeviceRemoved:
		return models.CaptureErrorDeviceRemoved
	case codeMalformedStream:
		return models.CaptureErrorMalformedStream
	default:
		return models.CaptureErrorUnknown
	}
}

// IsClosed reports whether err is the result of Close racing a read.
func IsClosed(err error) bool {
	return errors.Is(err, errClosed)
}

//go:build !unix

package captures

func isPermissionErrno(error) bool { return false }

func isMissingErrno(error) bool { return false }

func isDeviceGone(error) bool { return false }

package aggregators

import "usbtop/internal/models"

// DeviceManager supplies link capacity for utilization.
//
//go:generate mockgen -source=device_manager.go -destination=./mocks/device_manager_mock.go -package=mocks
type DeviceManager interface {
	// LookupCapacity returns the practical capacity in bits per second, 0 when unknown.
	LookupCapacity(key models.DeviceKey) uint64
	LookupNegotiatedSpeed(key models.DeviceKey) models.Speed
}

type unknownCapacity struct{}

func (unknownCapacity) LookupCapacity(models.DeviceKey) uint64 { return 0 }

func (unknownCapacity) LookupNegotiatedSpeed(models.DeviceKey) models.Speed {
	return models.SpeedUnknown
}

package devices

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"usbtop/internal/models"
	"usbtop/internal/shared/loggers"
	"usbtop/internal/shared/metrics"
	"usbtop/internal/shared/svcerrors"

	"github.com/jellydator/ttlcache/v3"
	"github.com/spf13/afero"
)

const (
	DefaultSysfsRoot = "/sys/bus/usb/devices"

	defaultCacheTTL = 5 * time.Second

	scanCacheKey = "devices"
)

type DeviceManager interface {
	// LookupCapacity returns the practical bit rate of the device, 0 when unknown.
	LookupCapacity(key models.DeviceKey) uint64
	LookupNegotiatedSpeed(key models.DeviceKey) models.Speed
	// Lookup returns the sysfs metadata of one attached device.
	Lookup(key models.DeviceKey) (models.DeviceInfo, bool)
	// Devices lists the attached devices sorted by key.
	Devices() []models.DeviceInfo
	// Refresh rescans sysfs immediately.
	Refresh() error
}

type Config struct {
	Root     string
	CacheTTL time.Duration
	Logger   loggers.Logger
}

type scan map[models.DeviceKey]models.DeviceInfo

type sysfsDeviceManager struct {
	fs     afero.Fs
	config Config
	logger loggers.Logger

	cache   *ttlcache.Cache[string, scan]
	cacheMu sync.Mutex
}

// NewSysfsDeviceManager reads device speed and identity from the sysfs USB tree.
// Scans are cached for config.CacheTTL.
func NewSysfsDeviceManager(fs afero.Fs, config Config) DeviceManager {
	if config.Root == "" {
		config.Root = DefaultSysfsRoot
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultCacheTTL
	}

	return &sysfsDeviceManager{
		fs:     fs,
		config: config,
		logger: config.Logger.With().Str(loggers.FieldComponent, "device_manager").Logger(),
		cache: ttlcache.New(
			ttlcache.WithTTL[string, scan](config.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, scan](),
		),
	}
}

func (m *sysfsDeviceManager) LookupCapacity(key models.DeviceKey) uint64 {
	return m.LookupNegotiatedSpeed(key).PracticalBitRate()
}

func (m *sysfsDeviceManager) LookupNegotiatedSpeed(key models.DeviceKey) models.Speed {
	info, ok := m.Lookup(key)
	if !ok {
		return models.SpeedUnknown
	}
	return info.Speed
}

func (m *sysfsDeviceManager) Lookup(key models.DeviceKey) (models.DeviceInfo, bool) {
	info, ok := m.current()[key]
	return info, ok
}

func (m *sysfsDeviceManager) Devices() []models.DeviceInfo {
	current := m.current()

	keys := make([]models.DeviceKey, 0, len(current))
	for key := range current {
		keys = append(keys, key)
	}
	models.SortKeys(keys)

	list := make([]models.DeviceInfo, 0, len(keys))
	for _, key := range keys {
		list = append(list, current[key])
	}
	return list
}

func (m *sysfsDeviceManager) Refresh() error {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	_, err := m.rescanLocked()
	return err
}

// current returns the cached scan, rescanning once when it expired.
func (m *sysfsDeviceManager) current() scan {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	if cached := m.cache.Get(scanCacheKey); cached != nil {
		return cached.Value()
	}
	result, _ := m.rescanLocked()
	return result
}

func (m *sysfsDeviceManager) rescanLocked() (scan, error) {
	result, err := m.scanSysfs()
	if err != nil {
		metricScansTotal.WithLabelValues(err.Code).Inc()
		m.logger.Warn().Err(err).Str(loggers.FieldErrorCode, err.Code).Msg("sysfs scan failed")
		result = scan{}
	} else {
		metricScansTotal.WithLabelValues(metrics.ValueNoError).Inc()
	}
	m.cache.Set(scanCacheKey, result, ttlcache.DefaultTTL)

	if err != nil {
		// Keep the interface nil on success.
		return result, err
	}
	return result, nil
}

func (m *sysfsDeviceManager) scanSysfs() (scan, *svcerrors.ServiceError) {
	entries, err := afero.ReadDir(m.fs, m.config.Root)
	if err != nil {
		return nil, errScanFailed(m.config.Root, err)
	}

	result := make(scan, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		// Interfaces look like "1-1:1.0".
		if strings.Contains(name, ":") {
			continue
		}
		info, ok := m.readDevice(filepath.Join(m.config.Root, name))
		if !ok {
			continue
		}
		result[info.Key] = info
	}

	m.logger.Debug().Int("devices", len(result)).Msg("sysfs scanned")
	return result, nil
}

func (m *sysfsDeviceManager) readDevice(dir string) (models.DeviceInfo, bool) {
	bus, err := m.readUint(filepath.Join(dir, "busnum"), 16)
	if err != nil {
		return models.DeviceInfo{}, false
	}
	dev, err := m.readUint(filepath.Join(dir, "devnum"), 8)
	if err != nil || dev == 0 {
		return models.DeviceInfo{}, false
	}

	info := models.DeviceInfo{
		Key:   models.DeviceKey{Bus: uint16(bus), Address: uint8(dev)},
		Speed: models.SpeedUnknown,
	}
	if speed, err := m.readString(filepath.Join(dir, "speed")); err == nil {
		info.Speed = models.ParseSpeed(speed)
	}
	info.VendorID, _ = m.readString(filepath.Join(dir, "idVendor"))
	info.ProductID, _ = m.readString(filepath.Join(dir, "idProduct"))
	info.Manufacturer, _ = m.readString(filepath.Join(dir, "manufacturer"))
	info.Product, _ = m.readString(filepath.Join(dir, "product"))
	return info, true
}

func (m *sysfsDeviceManager) readString(path string) (string, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (m *sysfsDeviceManager) readUint(path string, bitSize int) (uint64, error) {
	s, err := m.readString(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(s, 10, bitSize)
}

package accessory

import (
	"encoding/binary"
	"fmt"
	"sync"

	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/brutella/hc/log"
	"github.com/google/uuid"

	"github.com/cloudkucooland/hivebridge/devices"
	"github.com/cloudkucooland/hivebridge/hive"
)

// HiveAccessory is the accessory type: our record of a Hive device, plus hc's stuff
type HiveAccessory struct {
	UUID        uuid.UUID // stable across restarts, derived from the device ID
	DisplayName string    // "{device name} : {suffix}"

	// embedded struct (pointer)
	*hcaccessory.Accessory

	mu           sync.RWMutex
	device       hive.Device // last seen, persisted as the accessory context
	switches     map[string]*devices.ModeSwitch
	thermometers map[string]*devices.Thermometer
}

// Record is what gets persisted between restarts
type Record struct {
	UUID        uuid.UUID   `json:"uuid"`
	DisplayName string      `json:"displayName"`
	Device      hive.Device `json:"device"`
}

// New builds an accessory with no services other than the info service
func New(displayName string, id uuid.UUID) *HiveAccessory {
	info := hcaccessory.Info{
		Name:         displayName,
		ID:           hcID(id),
		SerialNumber: id.String(),
		Manufacturer: "Hive",
		Model:        "Hive",
	}

	a := HiveAccessory{
		UUID:         id,
		DisplayName:  displayName,
		Accessory:    hcaccessory.New(info, hcaccessory.TypeSwitch),
		switches:     make(map[string]*devices.ModeSwitch),
		thermometers: make(map[string]*devices.Thermometer),
	}

	a.Accessory.OnIdentify(func() {
		log.Info.Printf("identify called for [%s]", a.DisplayName)
		for _, service := range a.Accessory.GetServices() {
			log.Info.Printf("service: %+v", service)
			for _, char := range service.GetCharacteristics() {
				log.Info.Printf("characteristic : %+v", char)
			}
		}
	})
	return &a
}

// FromRecord restores a persisted accessory
func FromRecord(r Record) *HiveAccessory {
	a := New(r.DisplayName, r.UUID)
	a.device = r.Device
	if r.Device.ID != "" {
		a.Accessory.Info.Model.SetValue(string(r.Device.Kind))
	}
	return a
}

// Record returns the persistable part of the accessory
func (a *HiveAccessory) Record() Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Record{UUID: a.UUID, DisplayName: a.DisplayName, Device: a.device}
}

// Device is the last seen device
func (a *HiveAccessory) Device() hive.Device {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.device
}

// SetDevice replaces the last seen device
func (a *HiveAccessory) SetDevice(d hive.Device) {
	a.mu.Lock()
	a.device = d
	a.mu.Unlock()
	a.Accessory.Info.Model.SetValue(string(d.Kind))
}

// Switch returns the named switch, adding it if it is not yet present
func (a *HiveAccessory) Switch(key string) *devices.ModeSwitch {
	a.mu.Lock()
	defer a.mu.Unlock()

	if sw, ok := a.switches[key]; ok {
		return sw
	}
	sw := devices.NewModeSwitch(fmt.Sprintf("%s %s", a.DisplayName, key))
	a.Accessory.AddService(sw.Service)
	a.switches[key] = sw
	return sw
}

// Thermometer returns the named temperature sensor, adding it if needed
func (a *HiveAccessory) Thermometer(key string) *devices.Thermometer {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.thermometers[key]; ok {
		return t
	}
	t := devices.NewThermometer(fmt.Sprintf("%s %s", a.DisplayName, key))
	a.Accessory.AddService(t.Service)
	a.thermometers[key] = t
	return t
}

// HasService reports whether a sub-service of that name is attached
func (a *HiveAccessory) HasService(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, sw := a.switches[key]
	_, th := a.thermometers[key]
	return sw || th
}

// hc wants a uint64; the first 8 bytes of the UUID are stable enough.
// 1 is the bridge itself.
func hcID(id uuid.UUID) uint64 {
	n := binary.BigEndian.Uint64(id[:8])
	if n <= 1 {
		n += 2
	}
	return n
}

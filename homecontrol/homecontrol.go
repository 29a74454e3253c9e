package tfhc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/brutella/hc"
	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/brutella/hc/log"
	"github.com/brutella/hc/util"
	"github.com/google/uuid"

	"github.com/cloudkucooland/hivebridge/accessory"
	"github.com/cloudkucooland/hivebridge/config"
)

const indexKey = "accessories"

// ErrDuplicateAccessory is returned when an identity is registered twice
var ErrDuplicateAccessory = errors.New("accessory already registered")

// Host holds every accessory this bridge knows about, persists them between
// restarts, and publishes them over HAP
type Host struct {
	config  *config.Config
	storage util.Storage

	mu          sync.Mutex
	cached      []*accessory.HiveAccessory // restored at startup
	known       map[uuid.UUID]*accessory.HiveAccessory
	order       []uuid.UUID
	transport   hc.Transport
	terminating sync.Once
}

// New restores the cached accessories from storage
func New(c *config.Config, storage util.Storage) (*Host, error) {
	h := Host{
		config:  c,
		storage: storage,
		known:   make(map[uuid.UUID]*accessory.HiveAccessory),
	}

	raw, err := storage.Get(indexKey)
	if err != nil || len(raw) == 0 {
		// nothing cached yet
		return &h, nil
	}

	var records []accessory.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("unable to read accessory cache: %w", err)
	}
	for _, r := range records {
		if _, ok := h.known[r.UUID]; ok {
			continue
		}
		a := accessory.FromRecord(r)
		log.Info.Printf("loading accessory from cache: %s", a.DisplayName)
		h.cached = append(h.cached, a)
		h.known[a.UUID] = a
		h.order = append(h.order, a.UUID)
	}
	return &h, nil
}

// CachedAccessories returns the accessories restored at startup
func (h *Host) CachedAccessories() []*accessory.HiveAccessory {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*accessory.HiveAccessory, len(h.cached))
	copy(out, h.cached)
	return out
}

// NewAccessory creates, but does not register, an accessory
func (h *Host) NewAccessory(name string, id uuid.UUID) *accessory.HiveAccessory {
	return accessory.New(name, id)
}

// RegisterAccessory makes a new accessory known and persists it.
// Registering an identity which is already known is an error.
func (h *Host) RegisterAccessory(a *accessory.HiveAccessory) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.known[a.UUID]; ok {
		return fmt.Errorf("%s (%s): %w", a.DisplayName, a.UUID, ErrDuplicateAccessory)
	}
	h.known[a.UUID] = a
	h.order = append(h.order, a.UUID)
	return h.persist()
}

// UpdateAccessory persists a change to a known accessory's context
func (h *Host) UpdateAccessory(a *accessory.HiveAccessory) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.known[a.UUID]; !ok {
		return fmt.Errorf("update of unregistered accessory %s (%s)", a.DisplayName, a.UUID)
	}
	return h.persist()
}

// Accessories returns every known accessory, cached ones first
func (h *Host) Accessories() []*accessory.HiveAccessory {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*accessory.HiveAccessory, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.known[id])
	}
	return out
}

// persist must be called with mu held
func (h *Host) persist() error {
	records := make([]accessory.Record, 0, len(h.order))
	for _, id := range h.order {
		records = append(records, h.known[id].Record())
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return h.storage.Set(indexKey, raw)
}

// Publish (re)starts the HAP transport with every known accessory.
// HC can only be started once all accessories are known, so this runs again
// whenever discovery adds one.
func (h *Host) Publish() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.transport != nil {
		<-h.transport.Stop()
		h.transport = nil
	}

	serial := h.config.ID
	if serial == "" {
		serial = util.GetSerialNumberForAccessoryName("HiveBridgeRoot", h.storage)
	}
	root := hcaccessory.NewBridge(hcaccessory.Info{
		Name:             h.config.Name,
		ID:               1,
		SerialNumber:     serial,
		Manufacturer:     "deviousness",
		Model:            "HiveBridge",
		FirmwareRevision: "0.1.0",
	})
	root.Accessory.OnIdentify(func() {
		log.Info.Printf("bridge root identify called: %+v", root.Accessory)
	})

	values := make([]*hcaccessory.Accessory, 0, len(h.order))
	for _, id := range h.order {
		values = append(values, h.known[id].Accessory)
	}

	transport, err := hc.NewIPTransport(hc.Config(h.config.HCConfig), root.Accessory, values...)
	if err != nil {
		return err
	}
	h.transport = transport

	h.terminating.Do(func() {
		hc.OnTermination(func() {
			h.Shutdown()
		})
	})
	go transport.Start()
	uri, _ := transport.XHMURI()
	log.Info.Printf("publishing %d accessories, add this bridge with: %s", len(values), uri)
	return nil
}

// Startup is called by the platform bootstrap; the cache is already loaded
func (h *Host) Startup(c *config.Config) error {
	return nil
}

// Background runs the various background tasks: none for HC
func (h *Host) Background() {}

// Shutdown stops the transport
func (h *Host) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.transport != nil {
		<-h.transport.Stop()
		h.transport = nil
	}
}

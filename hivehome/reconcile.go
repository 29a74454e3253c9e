package hivehome

import (
	"context"
	"sync"

	"github.com/brutella/hc/log"
	"github.com/google/uuid"

	"github.com/cloudkucooland/hivebridge/accessory"
	"github.com/cloudkucooland/hivebridge/config"
	"github.com/cloudkucooland/hivebridge/hive"
)

// Host is the automation bridge which owns the accessories
type Host interface {
	CachedAccessories() []*accessory.HiveAccessory
	NewAccessory(name string, id uuid.UUID) *accessory.HiveAccessory
	RegisterAccessory(a *accessory.HiveAccessory) error
	UpdateAccessory(a *accessory.HiveAccessory) error
	Publish() error
}

// Pair is an accessory bound to the device it mirrors
type Pair struct {
	Accessory *accessory.HiveAccessory
	Device    hive.Device
	Handler   *Synchronizer
}

// Reconciler matches freshly listed devices against the known accessories
type Reconciler struct {
	config   *config.Config
	host     Host
	registry *Registry
	metrics  *Metrics

	// find-or-create and bind must not interleave between cycles
	mu sync.Mutex
}

// NewReconciler returns a reconciler creating accessories through host
func NewReconciler(c *config.Config, host Host, registry *Registry, m *Metrics) *Reconciler {
	return &Reconciler{config: c, host: host, registry: registry, metrics: m}
}

// Reconcile reuses the accessory of every device already known and creates
// (and registers, once) an accessory for every new one. Each accessory gets
// the fresh device as its context and a synchronizer bound to it. created
// counts the accessories registered by this call.
func (r *Reconciler) Reconcile(ctx context.Context, sess hive.Session, devs []hive.Device) (pairs []Pair, created int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dev := range devs {
		v, ok := variantFor(dev.Kind, r.config)
		if !ok {
			log.Debug.Printf("ignoring %s device [%s]", dev.Kind, dev.Name)
			continue
		}

		id := Identity(dev.ID)
		a := r.registry.Find(id)
		if a == nil {
			name := dev.Name + v.suffix()
			log.Info.Printf("adding new accessory: %s", name)
			a = r.host.NewAccessory(name, id)
			// never attempted twice, even if it failed
			r.registry.Remember(a)
			created++
			if err := r.host.RegisterAccessory(a); err != nil {
				log.Info.Printf("unable to register [%s]: %s", name, err.Error())
			}
		}

		// keep the accessory in sync with any device changes
		a.SetDevice(dev)
		if err := r.host.UpdateAccessory(a); err != nil {
			log.Info.Printf("unable to update [%s]: %s", a.DisplayName, err.Error())
		}

		h := r.registry.Handler(id)
		if h == nil {
			h = newSynchronizer(a, sess, v, r.metrics)
			h.Attach()
			r.registry.Bind(h)
		} else {
			h.rebind(sess)
		}
		pairs = append(pairs, Pair{Accessory: a, Device: dev, Handler: h})
	}
	r.metrics.bound.Set(float64(len(r.registry.Handlers())))
	return pairs, created
}

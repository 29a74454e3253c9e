package hivehome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brutella/hc/log"

	"github.com/cloudkucooland/hivebridge/config"
	"github.com/cloudkucooland/hivebridge/hive"
)

// DiscoveryRetryInterval is how long to wait after a discovery which found nothing
const DiscoveryRetryInterval = 5000 * time.Millisecond

// SessionFactory returns a new, not yet logged in, session
type SessionFactory func() hive.Session

// Platform is the handle to the Hive devices
type Platform struct {
	config     *config.Config
	host       Host
	registry   *Registry
	reconciler *Reconciler
	metrics    *Metrics
	sessions   SessionFactory
	scheduler  Scheduler

	// one discovery cycle at a time
	discovering sync.Mutex

	mu        sync.Mutex
	suspended bool
	published bool
	retry     Timer
	stop      chan struct{}
	stopped   bool
}

// Option changes a Platform's collaborators
type Option func(*Platform)

// WithScheduler replaces the timer used for discovery retries
func WithScheduler(s Scheduler) Option {
	return func(p *Platform) { p.scheduler = s }
}

// WithMetrics replaces the metrics
func WithMetrics(m *Metrics) Option {
	return func(p *Platform) { p.metrics = m }
}

// NewPlatform reads the host's cached accessories; call it once the host has
// finished restoring them
func NewPlatform(c *config.Config, host Host, sessions SessionFactory, opts ...Option) *Platform {
	p := Platform{
		config:    c,
		host:      host,
		registry:  NewRegistry(host.CachedAccessories()),
		sessions:  sessions,
		scheduler: clock{},
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&p)
	}
	if p.metrics == nil {
		p.metrics = NewMetrics()
	}
	p.reconciler = NewReconciler(c, host, p.registry, p.metrics)
	return &p
}

// Registry returns the accessory registry
func (p *Platform) Registry() *Registry { return p.registry }

// Metrics returns the platform's metrics
func (p *Platform) Metrics() *Metrics { return p.metrics }

// Suspended reports whether the configuration was rejected
func (p *Platform) Suspended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suspended
}

// Startup validates the configuration and starts discovery.
// An invalid configuration suspends the platform entirely.
func (p *Platform) Startup(c *config.Config) error {
	if errs := c.Validate(); len(errs) > 0 {
		p.mu.Lock()
		p.suspended = true
		p.mu.Unlock()
		log.Info.Printf("ERROR plugin suspended. Invalid configuration: %s", strings.Join(errs, "; "))
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	log.Debug.Printf("finished initializing platform")
	go p.Discover(context.Background())
	return nil
}

// Discover logs in, lists the devices and reconciles them with the known
// accessories. If nothing is bound afterwards another attempt is scheduled;
// this repeats until a device turns up. A login rejected by the server is
// not retried. Overlapping calls run one after the other; any retry still
// pending when a cycle starts is cancelled.
func (p *Platform) Discover(ctx context.Context) {
	p.discovering.Lock()
	defer p.discovering.Unlock()

	p.mu.Lock()
	if p.suspended || p.stopped {
		p.mu.Unlock()
		return
	}
	if p.retry != nil {
		p.retry.Stop()
		p.retry = nil
	}
	p.mu.Unlock()

	sess, err := hive.Start(ctx, p.sessions())
	if err != nil {
		var authErr hive.AuthError
		if errors.As(err, &authErr) {
			p.metrics.discoveries.WithLabelValues("auth_failed").Inc()
			log.Info.Printf("ERROR login failed, please check your credentials. Are you sure the device is registered? (challenge %q)", authErr.Challenge)
			return
		}
		p.metrics.discoveries.WithLabelValues("error").Inc()
		log.Info.Printf("WARN unable to start session: %s", err.Error())
		p.scheduleRetry()
		return
	}

	devs := hive.ListDevices(ctx, sess)
	log.Debug.Printf("discovered devices: %+v", devs)

	pairs, created := p.reconciler.Reconcile(ctx, sess, devs)
	if len(pairs) == 0 {
		p.metrics.discoveries.WithLabelValues("empty").Inc()
		log.Info.Printf("WARN failed to find devices, retry in %s", DiscoveryRetryInterval)
		p.scheduleRetry()
		return
	}
	p.metrics.discoveries.WithLabelValues("found").Inc()

	// the first poll fills in the services
	p.PollAll(ctx)

	p.mu.Lock()
	publish := created > 0 || !p.published
	p.published = true
	p.mu.Unlock()
	if publish {
		if err := p.host.Publish(); err != nil {
			log.Info.Printf("unable to publish accessories: %s", err.Error())
		}
	}
}

// scheduleRetry keeps at most one discovery pending
func (p *Platform) scheduleRetry() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.retry != nil || p.stopped {
		return
	}
	p.retry = p.scheduler.AfterFunc(DiscoveryRetryInterval, func() {
		p.Discover(context.Background())
	})
}

// RetryPending reports whether a discovery retry is scheduled
func (p *Platform) RetryPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retry != nil
}

// PollAll refreshes every bound accessory. Accessories are independent, so
// each gets its own goroutine.
func (p *Platform) PollAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, h := range p.registry.Handlers() {
		wg.Add(1)
		go func(h *Synchronizer) {
			defer wg.Done()
			h.Poll(ctx)
		}(h)
	}
	wg.Wait()
}

// Background starts up the go process to periodically pull device state
func (p *Platform) Background() {
	if p.Suspended() {
		return
	}
	rate := time.Duration(p.config.PollRate) * time.Second
	if rate <= 0 {
		rate = time.Minute
	}

	go func() {
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.PollAll(context.Background())
			}
		}
	}()
}

// Shutdown cancels any pending discovery and stops polling
func (p *Platform) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	if p.retry != nil {
		p.retry.Stop()
		p.retry = nil
	}
	close(p.stop)
}

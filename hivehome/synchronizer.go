package hivehome

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brutella/hc/log"

	"github.com/cloudkucooland/hivebridge/accessory"
	"github.com/cloudkucooland/hivebridge/hive"
)

// Lifecycle is where a synchronizer is in its fetch/write cycle
type Lifecycle int

const (
	Uninitialized Lifecycle = iota
	Ready
	Syncing
)

func (l Lifecycle) String() string {
	switch l {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Syncing:
		return "syncing"
	}
	return fmt.Sprintf("lifecycle(%d)", int(l))
}

// ErrNotReady is returned for a write before the services are attached
var ErrNotReady = errors.New("accessory services not attached")

// ErrUnknownService is returned for a write to a service the device kind does not have
var ErrUnknownService = errors.New("unknown service")

// Synchronizer keeps one accessory in step with its Hive device.
// Polls and host writes for the same accessory never overlap: each holds
// busy for the whole transition.
type Synchronizer struct {
	acc     *accessory.HiveAccessory
	kind    variant
	metrics *Metrics

	busy sync.Mutex

	mu        sync.RWMutex
	session   hive.Session
	lifecycle Lifecycle
	state     map[string]hive.HeatingMode
}

func newSynchronizer(a *accessory.HiveAccessory, s hive.Session, v variant, m *Metrics) *Synchronizer {
	return &Synchronizer{
		acc:     a,
		kind:    v,
		metrics: m,
		session: s,
		state:   make(map[string]hive.HeatingMode),
	}
}

// Attach adds (or reuses) the services for the device kind and installs the
// host write callbacks
func (s *Synchronizer) Attach() {
	s.busy.Lock()
	defer s.busy.Unlock()

	if s.Lifecycle() != Uninitialized {
		return
	}
	s.kind.attach(s.acc, func(service string, on bool) {
		log.Info.Printf("setting [%s] %s to [%t] from HC handler", s.acc.DisplayName, service, on)
		if err := s.Set(context.Background(), service, on); err != nil {
			log.Debug.Printf("[%s] %s write failed: %s", s.acc.DisplayName, service, err.Error())
		}
	})
	s.setLifecycle(Ready)
}

// Accessory returns the bound accessory
func (s *Synchronizer) Accessory() *accessory.HiveAccessory {
	return s.acc
}

// Kind returns the device kind this synchronizer handles
func (s *Synchronizer) Kind() hive.Category {
	return s.kind.kind()
}

// Lifecycle returns the current state of the synchronizer
func (s *Synchronizer) Lifecycle() Lifecycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lifecycle
}

func (s *Synchronizer) setLifecycle(l Lifecycle) {
	s.mu.Lock()
	s.lifecycle = l
	s.mu.Unlock()
}

// State returns the cached value of one service
func (s *Synchronizer) State(service string) (hive.HeatingMode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state[service]
	return m, ok
}

// Snapshot returns a copy of every cached service value
func (s *Synchronizer) Snapshot() map[string]hive.HeatingMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]hive.HeatingMode, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}

// rebind points an existing synchronizer at a new session, after a later
// discovery logged in again
func (s *Synchronizer) rebind(sess hive.Session) {
	s.busy.Lock()
	defer s.busy.Unlock()
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
}

func (s *Synchronizer) currentSession() hive.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Poll fetches the device, derives every service value and pushes them to
// the host. On any failure the previous values are kept and pushed again.
func (s *Synchronizer) Poll(ctx context.Context) {
	s.busy.Lock()
	defer s.busy.Unlock()

	if s.Lifecycle() != Ready {
		return
	}
	s.setLifecycle(Syncing)
	defer s.setLifecycle(Ready)

	sess := s.currentSession()
	dev, err := s.kind.fetch(ctx, sess, s.acc.Device())
	var derived map[string]hive.HeatingMode
	if err == nil {
		derived, err = s.kind.derive(ctx, sess, dev)
	}
	s.metrics.polls.WithLabelValues(string(s.kind.kind()), result(err)).Inc()

	if err != nil {
		log.Debug.Printf("error updating [%s]: %s", s.acc.DisplayName, err.Error())
		s.push()
		return
	}

	s.acc.SetDevice(dev)
	s.mu.Lock()
	for k, v := range derived {
		s.state[k] = v
	}
	s.mu.Unlock()
	s.push()
}

// Set applies a host request for one service to the device. The cached
// value changes only once the remote call has returned successfully; on
// failure the last known value is pushed back to the host.
func (s *Synchronizer) Set(ctx context.Context, service string, on bool) error {
	s.busy.Lock()
	defer s.busy.Unlock()

	if s.Lifecycle() != Ready {
		return ErrNotReady
	}
	mode, ok := s.kind.request(service, on)
	if !ok {
		return fmt.Errorf("%s: %w", service, ErrUnknownService)
	}

	s.setLifecycle(Syncing)
	defer s.setLifecycle(Ready)

	err := s.kind.apply(ctx, s.currentSession(), s.acc.Device(), service, mode)
	s.metrics.writes.WithLabelValues(service, result(err)).Inc()
	if err != nil {
		s.push()
		return err
	}

	s.mu.Lock()
	s.state[service] = mode
	s.mu.Unlock()
	s.push()
	return nil
}

func (s *Synchronizer) push() {
	s.kind.push(s.acc, s.acc.Device(), s.Snapshot())
}

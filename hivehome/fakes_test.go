package hivehome

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloudkucooland/hivebridge/accessory"
	"github.com/cloudkucooland/hivebridge/config"
	"github.com/cloudkucooland/hivebridge/hive"
)

func testConfig() *config.Config {
	c := config.Config{
		HiveUsername:      "me@example.com",
		HivePassword:      "secret",
		DeviceGroupKey:    "group",
		DeviceKey:         "key",
		DevicePassword:    "devpass",
		HotWaterBoostMins: 30,
	}
	c.Defaults()
	return &c
}

type fakeHost struct {
	mu          sync.Mutex
	cached      []*accessory.HiveAccessory
	registered  map[uuid.UUID]int
	updates     map[uuid.UUID]int
	publishes   int
	registerErr error

	// widens the gap between lookup and registration
	newDelay time.Duration
}

func newFakeHost(cached ...*accessory.HiveAccessory) *fakeHost {
	return &fakeHost{
		cached:     cached,
		registered: make(map[uuid.UUID]int),
		updates:    make(map[uuid.UUID]int),
	}
}

func (h *fakeHost) CachedAccessories() []*accessory.HiveAccessory { return h.cached }

func (h *fakeHost) NewAccessory(name string, id uuid.UUID) *accessory.HiveAccessory {
	time.Sleep(h.newDelay)
	return accessory.New(name, id)
}

func (h *fakeHost) RegisterAccessory(a *accessory.HiveAccessory) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registered[a.UUID]++
	return h.registerErr
}

func (h *fakeHost) UpdateAccessory(a *accessory.HiveAccessory) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates[a.UUID]++
	return nil
}

func (h *fakeHost) Publish() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishes++
	return nil
}

func (h *fakeHost) publishCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.publishes
}

func (h *fakeHost) registrations(id uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registered[id]
}

// fakeRemote is one Hive account: devices and their modes, shared by every
// session logged into it
type fakeRemote struct {
	mu        sync.Mutex
	challenge string
	loginErr  error
	devices   []hive.Device
	mode      map[string]hive.HeatingMode
	boost     map[string]hive.HeatingMode
	temp      map[string]float64
	fetchErr  error
	writeErr  error
	calls     []string
	logins    int

	// called at the start of a remote operation, may block
	onFetch func()
	onWrite func(call string)
}

func newFakeRemote(devs ...hive.Device) *fakeRemote {
	r := fakeRemote{
		challenge: hive.DeviceLoginRequired,
		devices:   devs,
		mode:      make(map[string]hive.HeatingMode),
		boost:     make(map[string]hive.HeatingMode),
		temp:      make(map[string]float64),
	}
	for _, d := range devs {
		r.mode[d.ID] = hive.ModeSchedule
		r.boost[d.ID] = hive.ModeOff
	}
	return &r
}

func (r *fakeRemote) session() hive.Session { return &fakeSession{r} }

func (r *fakeRemote) setDevices(devs ...hive.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = devs
	for _, d := range devs {
		if _, ok := r.mode[d.ID]; !ok {
			r.mode[d.ID] = hive.ModeSchedule
			r.boost[d.ID] = hive.ModeOff
		}
	}
}

func (r *fakeRemote) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *fakeRemote) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *fakeRemote) fetch(d hive.Device) (hive.Device, error) {
	if r.onFetch != nil {
		r.onFetch()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return d, r.fetchErr
	}
	for _, dev := range r.devices {
		if dev.ID == d.ID {
			return dev, nil
		}
	}
	return d, hive.ErrNotFound
}

func (r *fakeRemote) write(call string, f func()) error {
	if r.onWrite != nil {
		r.onWrite(call)
	}
	r.record(call)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	f()
	return nil
}

func (r *fakeRemote) getMode(d hive.Device) hive.HeatingMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode[d.ID]
}

func (r *fakeRemote) getBoost(d hive.Device) hive.HeatingMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boost[d.ID]
}

type fakeSession struct{ r *fakeRemote }

func (s *fakeSession) Login(context.Context) (string, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.logins++
	return s.r.challenge, s.r.loginErr
}

func (s *fakeSession) DeviceLogin(context.Context) error  { return nil }
func (s *fakeSession) UpdateInterval(int)                 {}
func (s *fakeSession) StartSession(context.Context) error { return nil }
func (s *fakeSession) HotWater() hive.HotWater            { return fakeHotWater{s.r} }
func (s *fakeSession) Heating() hive.Heating              { return fakeHeating{s.r} }

func (s *fakeSession) DeviceList(_ context.Context, c hive.Category) ([]hive.Device, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var out []hive.Device
	for _, d := range s.r.devices {
		if d.Kind == c {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeHotWater struct{ r *fakeRemote }

func (f fakeHotWater) GetWaterHeater(_ context.Context, d hive.Device) (hive.Device, error) {
	return f.r.fetch(d)
}

func (f fakeHotWater) GetMode(_ context.Context, d hive.Device) (hive.HeatingMode, error) {
	return f.r.getMode(d), nil
}

func (f fakeHotWater) GetBoost(_ context.Context, d hive.Device) (hive.HeatingMode, error) {
	return f.r.getBoost(d), nil
}

func (f fakeHotWater) SetMode(_ context.Context, d hive.Device, m hive.HeatingMode) error {
	if m == hive.ModeOn {
		return errors.New("no such mode on the wire")
	}
	return f.r.write("hotwater.setMode "+string(m), func() {
		if m == hive.ModeManual {
			m = hive.ModeOn
		}
		f.r.mode[d.ID] = m
	})
}

func (f fakeHotWater) SetBoostOn(_ context.Context, d hive.Device, mins int) error {
	return f.r.write(fmt.Sprintf("hotwater.setBoostOn %d", mins), func() {
		f.r.boost[d.ID] = hive.ModeOn
	})
}

func (f fakeHotWater) SetBoostOff(_ context.Context, d hive.Device) error {
	return f.r.write("hotwater.setBoostOff", func() {
		f.r.boost[d.ID] = hive.ModeOff
	})
}

type fakeHeating struct{ r *fakeRemote }

func (f fakeHeating) GetClimate(_ context.Context, d hive.Device) (hive.Device, error) {
	return f.r.fetch(d)
}

func (f fakeHeating) GetMode(_ context.Context, d hive.Device) (hive.HeatingMode, error) {
	return f.r.getMode(d), nil
}

func (f fakeHeating) GetBoost(_ context.Context, d hive.Device) (hive.HeatingMode, error) {
	return f.r.getBoost(d), nil
}

func (f fakeHeating) GetCurrentTemperature(_ context.Context, d hive.Device) (float64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	return f.r.temp[d.ID], nil
}

func (f fakeHeating) SetMode(_ context.Context, d hive.Device, m hive.HeatingMode) error {
	return f.r.write("heating.setMode "+string(m), func() {
		if m == hive.ModeManual {
			m = hive.ModeOn
		}
		f.r.mode[d.ID] = m
	})
}

func (f fakeHeating) SetBoostOn(_ context.Context, d hive.Device, mins int, temp float64) error {
	return f.r.write(fmt.Sprintf("heating.setBoostOn %d %.1f", mins, temp), func() {
		f.r.boost[d.ID] = hive.ModeOn
	})
}

func (f fakeHeating) SetBoostOff(_ context.Context, d hive.Device) error {
	return f.r.write("heating.setBoostOff", func() {
		f.r.boost[d.ID] = hive.ModeOff
	})
}

// fakeScheduler never fires on its own
type fakeScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []*fakeTimer
	timers  []*fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{f: f}
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, t)
	s.timers = append(s.timers, t)
	return t
}

// fire runs every pending timer and reports how many ran
func (s *fakeScheduler) fire() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	n := 0
	for _, t := range pending {
		// a fired timer counts as stopped
		if !t.Stop() {
			continue
		}
		t.f()
		n++
	}
	return n
}

// live counts timers which have neither fired nor been stopped
func (s *fakeScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if t.armed() {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

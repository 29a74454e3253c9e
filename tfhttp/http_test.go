package tfhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkucooland/hivebridge/accessory"
	"github.com/cloudkucooland/hivebridge/config"
	"github.com/cloudkucooland/hivebridge/hive"
	"github.com/cloudkucooland/hivebridge/hivehome"
)

type stubHost struct{}

func (stubHost) CachedAccessories() []*accessory.HiveAccessory    { return nil }
func (stubHost) RegisterAccessory(*accessory.HiveAccessory) error { return nil }
func (stubHost) UpdateAccessory(*accessory.HiveAccessory) error   { return nil }
func (stubHost) Publish() error                                   { return nil }

func (stubHost) NewAccessory(name string, id uuid.UUID) *accessory.HiveAccessory {
	return accessory.New(name, id)
}

type stubBridge struct {
	registry  *hivehome.Registry
	metrics   *hivehome.Metrics
	suspended bool

	mu        sync.Mutex
	discovers int
	done      chan struct{}
}

func (b *stubBridge) Registry() *hivehome.Registry { return b.registry }
func (b *stubBridge) Metrics() *hivehome.Metrics   { return b.metrics }
func (b *stubBridge) Suspended() bool              { return b.suspended }

func (b *stubBridge) Discover(context.Context) {
	b.mu.Lock()
	b.discovers++
	b.mu.Unlock()
	close(b.done)
}

func newBridge(t *testing.T, devs ...hive.Device) *stubBridge {
	t.Helper()
	c := &config.Config{HotWaterBoostMins: 30}
	c.Defaults()

	b := stubBridge{
		registry: hivehome.NewRegistry(nil),
		metrics:  hivehome.NewMetrics(),
		done:     make(chan struct{}),
	}
	r := hivehome.NewReconciler(c, stubHost{}, b.registry, b.metrics)
	r.Reconcile(context.Background(), nil, devs)
	return &b
}

func TestHome(t *testing.T) {
	h := New(newBridge(t)).Handler(false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestAccessories(t *testing.T) {
	tank := hive.Device{ID: "hw-1", Name: "Tank", Kind: hive.CategoryHotWater}
	h := New(newBridge(t, tank)).Handler(true)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accessories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []accessoryStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, hivehome.Identity("hw-1").String(), out[0].ID)
	assert.Equal(t, "Tank : Hot Water", out[0].Name)
	assert.Equal(t, hive.CategoryHotWater, out[0].Kind)
	assert.Equal(t, "ready", out[0].Lifecycle)
	assert.Equal(t, tank, out[0].Device)
}

func TestDiscover(t *testing.T) {
	b := newBridge(t)
	h := New(b).Handler(false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discover", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-b.done:
	case <-time.After(time.Second):
		t.Fatal("discovery not started")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discover", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDiscoverSuspended(t *testing.T) {
	b := newBridge(t)
	b.suspended = true
	h := New(b).Handler(false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discover", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, b.discovers)
}

func TestMetrics(t *testing.T) {
	h := New(newBridge(t, hive.Device{ID: "hw-1", Name: "Tank", Kind: hive.CategoryHotWater})).Handler(false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hivebridge_accessories_bound 1"))
}

func TestStartupDisabled(t *testing.T) {
	p := New(newBridge(t))
	require.NoError(t, p.Startup(&config.Config{}))
	p.Background()
	p.Shutdown()
}

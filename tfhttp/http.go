package tfhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/brutella/hc/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudkucooland/hivebridge/config"
	"github.com/cloudkucooland/hivebridge/hive"
	"github.com/cloudkucooland/hivebridge/hivehome"
)

// Bridge is what the control channel reports on
type Bridge interface {
	Registry() *hivehome.Registry
	Metrics() *hivehome.Metrics
	Suspended() bool
	Discover(ctx context.Context)
}

// Platform is the HTTP status and control channel
type Platform struct {
	bridge   Bridge
	registry *prometheus.Registry
	srv      *http.Server
}

// accessoryStatus is one entry of /accessories
type accessoryStatus struct {
	ID        string                      `json:"id"`
	Name      string                      `json:"name"`
	Kind      hive.Category               `json:"kind"`
	Lifecycle string                      `json:"lifecycle"`
	State     map[string]hive.HeatingMode `json:"state"`
	Device    hive.Device                 `json:"device"`
}

// New sets up the routes and registers the bridge's metrics
func New(b Bridge) *Platform {
	reg := prometheus.NewRegistry()
	reg.MustRegister(b.Metrics().Collectors()...)
	return &Platform{bridge: b, registry: reg}
}

// Handler returns the router, wrapped in request logging when debug is on
func (h *Platform) Handler(debug bool) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", homeHandler).Methods(http.MethodGet)
	r.HandleFunc("/accessories", h.accessoriesHandler).Methods(http.MethodGet)
	r.HandleFunc("/discover", h.discoverHandler).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	if debug {
		r.Use(debugMW)
	}
	return r
}

// Startup is called by the platform management to get things running.
// An empty HTTPAddress leaves the control channel off.
func (h *Platform) Startup(c *config.Config) error {
	if c.HTTPAddress == "" {
		log.Debug.Printf("no HTTP address set, control channel disabled")
		return nil
	}

	h.srv = &http.Server{
		Addr:         c.HTTPAddress,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      h.Handler(c.EnableDebugLog),
	}

	srv := h.srv
	go func() {
		log.Info.Printf("starting up HTTP control channel on %s", c.HTTPAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Info.Print(err)
		}
	}()
	return nil
}

// Background - nothing to do, the server runs from Startup
func (h *Platform) Background() {}

// Shutdown is called by the platform management to shut things down
func (h *Platform) Shutdown() {
	if h.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		log.Info.Print(err)
	}
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	log.Debug.Print("HomeHandler requested")
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	fmt.Fprint(w, "{ \"status\": \"OK\" }")
}

func (h *Platform) accessoriesHandler(w http.ResponseWriter, r *http.Request) {
	handlers := h.bridge.Registry().Handlers()
	out := make([]accessoryStatus, 0, len(handlers))
	for _, s := range handlers {
		a := s.Accessory()
		out = append(out, accessoryStatus{
			ID:        a.UUID.String(),
			Name:      a.DisplayName,
			Kind:      s.Kind(),
			Lifecycle: s.Lifecycle().String(),
			State:     s.Snapshot(),
			Device:    a.Device(),
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Info.Print(err)
	}
}

func (h *Platform) discoverHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if h.bridge.Suspended() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "{ \"status\": \"suspended\" }")
		return
	}

	log.Info.Print("discovery requested over HTTP")
	go h.bridge.Discover(context.Background())
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprint(w, "{ \"status\": \"discovering\" }")
}

func debugMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		dump, _ := httputil.DumpRequest(req, false)
		log.Debug.Print(string(dump))
		next.ServeHTTP(res, req)
	})
}

package platform

import (
	"sort"
	"sync"

	"github.com/brutella/hc/log"

	"github.com/cloudkucooland/hivebridge/config"
)

// Control is the interface which all platforms must satisfy
type Control interface {
	Startup(*config.Config) error
	Background()
	Shutdown()
}

// Registry holds the platforms of one bridge instance
type Registry struct {
	mu        sync.Mutex
	platforms map[string]Control
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{platforms: make(map[string]Control)}
}

// RegisterPlatform adds a platform; a name which is already taken is ignored
func (r *Registry) RegisterPlatform(name string, control Control) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.platforms[name]; !ok {
		r.platforms[name] = control
	}
}

// GetPlatform looks up a registered platform by name
func (r *Registry) GetPlatform(name string) (Control, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pc, ok := r.platforms[name]
	return pc, ok
}

// names is sorted so startup order is repeatable
func (r *Registry) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartupAllPlatforms is called at process start to initialize all platforms.
// A platform which fails to start is logged and skipped.
func (r *Registry) StartupAllPlatforms(c *config.Config) {
	for _, name := range r.names() {
		p, _ := r.GetPlatform(name)
		if err := p.Startup(c); err != nil {
			log.Info.Printf("unable to start %s: %s", name, err.Error())
		}
	}
}

// Background starts the background processes for every platform
func (r *Registry) Background() {
	for _, name := range r.names() {
		p, _ := r.GetPlatform(name)
		p.Background()
	}
}

// ShutdownAllPlatforms is called at process stop to shutdown all platforms
func (r *Registry) ShutdownAllPlatforms() {
	for _, name := range r.names() {
		p, _ := r.GetPlatform(name)
		log.Debug.Printf("shutting down: %s", name)
		p.Shutdown()
	}
}

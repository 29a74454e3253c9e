package hivebridge

import (
	"github.com/brutella/hc/util"

	"github.com/cloudkucooland/hivebridge/config"
	"github.com/cloudkucooland/hivebridge/hive"
	"github.com/cloudkucooland/hivebridge/hivehome"
	tfhc "github.com/cloudkucooland/hivebridge/homecontrol"
	"github.com/cloudkucooland/hivebridge/platform"
	"github.com/cloudkucooland/hivebridge/tfhttp"
)

// Bridge is one running instance: the HAP host, the Hive platform and the
// HTTP control channel
type Bridge struct {
	Platforms *platform.Registry
	Host      *tfhc.Host
	Hive      *hivehome.Platform
	HTTP      *tfhttp.Platform
}

// Credentials pulls the Hive login out of the configuration
func Credentials(c *config.Config) hive.Credentials {
	return hive.Credentials{
		Username:       c.HiveUsername,
		Password:       c.HivePassword,
		DeviceGroupKey: c.DeviceGroupKey,
		DeviceKey:      c.DeviceKey,
		DevicePassword: c.DevicePassword,
	}
}

// Sessions returns a factory for sessions against the live service
func Sessions(c *config.Config) hivehome.SessionFactory {
	creds := Credentials(c)
	return func() hive.Session {
		return hive.NewClient(c.BaseURL, creds)
	}
}

// Bootstrap restores the cached accessories, sets up all the platforms and
// starts them. The host has to be loaded before the Hive platform is built,
// it seeds the registry from the cache.
func Bootstrap(c *config.Config, storage util.Storage, sessions hivehome.SessionFactory, opts ...hivehome.Option) (*Bridge, error) {
	host, err := tfhc.New(c, storage)
	if err != nil {
		return nil, err
	}

	b := Bridge{
		Platforms: platform.NewRegistry(),
		Host:      host,
		Hive:      hivehome.NewPlatform(c, host, sessions, opts...),
	}
	b.HTTP = tfhttp.New(b.Hive)

	b.Platforms.RegisterPlatform("HomeControl", b.Host)
	b.Platforms.RegisterPlatform("Hive", b.Hive)
	b.Platforms.RegisterPlatform("HTTP", b.HTTP)

	b.Platforms.StartupAllPlatforms(c)
	return &b, nil
}

// Background runs every platform's background processes
func (b *Bridge) Background() {
	b.Platforms.Background()
}

// Shutdown stops every platform
func (b *Bridge) Shutdown() {
	b.Platforms.ShutdownAllPlatforms()
}

package config

import (
	"github.com/brutella/hc"
)

const (
	defaultName             = "HiveBridge"
	defaultPollRate         = 60
	defaultHeatingBoostTemp = 21.0
)

// Config is the primary daemon configuration...
type Config struct {
	ConfigDir   string    // passed in from CLI
	ConfigFile  string    // server.json
	HTTPAddress string    // net.Dial address format, :port is good enough -- empty disables the status channel
	Name        string    // what this bridge shows as
	ID          string    // displayed serial number -- if you run multiple instances, make sure each has a distinct ID
	HCConfig    hc.Config // base HomeControl configuration

	HiveUsername   string
	HivePassword   string
	DeviceGroupKey string // device registration secrets, from a previous registration
	DeviceKey      string
	DevicePassword string
	BaseURL        string // remote session endpoint, empty for the default

	HotWaterBoostMins int     // how long a hot water boost lasts
	HeatingBoostMins  int     // unset uses HotWaterBoostMins
	HeatingBoostTemp  float64 // (C) target while a heating boost is active
	PollRate          int     // (seconds) how frequently to pull device state
	EnableDebugLog    bool
}

// Validate returns every problem with the configuration, not just the first
func (c *Config) Validate() []string {
	var errs []string
	if c.HiveUsername == "" {
		errs = append(errs, "No Hive username specified")
	}
	if c.HivePassword == "" {
		errs = append(errs, "No Hive password specified")
	}
	if c.DeviceGroupKey == "" {
		errs = append(errs, "No Hive Device Group Key specified")
	}
	if c.DeviceKey == "" {
		errs = append(errs, "No Hive Device Key specified")
	}
	if c.DevicePassword == "" {
		errs = append(errs, "No Hive Device Password specified")
	}
	if c.HotWaterBoostMins <= 0 {
		errs = append(errs, "Hot Water Boost Duration is not an integer > 0")
	}
	if c.HeatingBoostMins < 0 {
		errs = append(errs, "Heating Boost Duration is not an integer > 0")
	}
	return errs
}

// Defaults fills in anything optional which was left unset
func (c *Config) Defaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.PollRate <= 0 {
		c.PollRate = defaultPollRate
	}
	if c.HeatingBoostMins == 0 {
		c.HeatingBoostMins = c.HotWaterBoostMins
	}
	if c.HeatingBoostTemp == 0 {
		c.HeatingBoostTemp = defaultHeatingBoostTemp
	}
}

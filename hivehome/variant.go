package hivehome

import (
	"context"

	"github.com/cloudkucooland/hivebridge/accessory"
	"github.com/cloudkucooland/hivebridge/config"
	"github.com/cloudkucooland/hivebridge/hive"
)

const (
	manualName = "Manual"
	boostName  = "Boost"
	tempName   = "Temperature"

	maxRemaining = 3600
)

// variant is what differs between device kinds
type variant interface {
	kind() hive.Category
	suffix() string // appended to the device name for the accessory's name

	// attach adds the services to the accessory, onSet is called for host writes
	attach(a *accessory.HiveAccessory, onSet func(service string, on bool))
	fetch(ctx context.Context, s hive.Session, d hive.Device) (hive.Device, error)
	derive(ctx context.Context, s hive.Session, d hive.Device) (map[string]hive.HeatingMode, error)
	push(a *accessory.HiveAccessory, d hive.Device, state map[string]hive.HeatingMode)

	// request maps a switch position to the mode it asks for
	request(service string, on bool) (hive.HeatingMode, bool)
	apply(ctx context.Context, s hive.Session, d hive.Device, service string, m hive.HeatingMode) error
}

func variantFor(kind hive.Category, c *config.Config) (variant, bool) {
	switch kind {
	case hive.CategoryHotWater:
		return hotWater{boostMins: c.HotWaterBoostMins}, true
	case hive.CategoryHeating:
		return heating{boostMins: c.HeatingBoostMins, boostTemp: c.HeatingBoostTemp}, true
	}
	return nil, false
}

// Both kinds expose the same pair of switches: Manual on is manual mode and
// off is back to the schedule; Boost on is a timed boost and off cancels it.
func modeRequest(service string, on bool) (hive.HeatingMode, bool) {
	switch service {
	case manualName:
		if on {
			return hive.ModeOn, true
		}
		return hive.ModeSchedule, true
	case boostName:
		if on {
			return hive.ModeOn, true
		}
		return hive.ModeOff, true
	}
	return "", false
}

func attachSwitches(a *accessory.HiveAccessory, onSet func(string, bool)) {
	for _, name := range []string{manualName, boostName} {
		key := name
		sw := a.Switch(key)
		sw.On.OnValueRemoteUpdate(func(on bool) {
			onSet(key, on)
		})
	}
}

func pushSwitches(a *accessory.HiveAccessory, d hive.Device, state map[string]hive.HeatingMode) {
	a.Switch(manualName).On.SetValue(state[manualName].Active())

	boost := a.Switch(boostName)
	active := state[boostName].Active()
	boost.On.SetValue(active)
	remaining := 0
	if active && d.Boost > 0 {
		remaining = d.Boost * 60
	}
	// HAP caps remaining duration at an hour
	if remaining > maxRemaining {
		remaining = maxRemaining
	}
	boost.RemainingDuration.SetValue(remaining)
}

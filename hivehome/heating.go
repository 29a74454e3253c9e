package hivehome

import (
	"context"
	"fmt"

	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/brutella/hc/log"

	"github.com/cloudkucooland/hivebridge/accessory"
	"github.com/cloudkucooland/hivebridge/hive"
)

// heating exposes a room heating zone: Manual and Boost switches like hot
// water, and the zone's current temperature
type heating struct {
	boostMins int
	boostTemp float64
}

func (heating) kind() hive.Category { return hive.CategoryHeating }
func (heating) suffix() string      { return " : Heating" }

func (heating) attach(a *accessory.HiveAccessory, onSet func(string, bool)) {
	a.Accessory.Type = hcaccessory.TypeThermostat
	attachSwitches(a, onSet)
	a.Thermometer(tempName)
}

func (heating) fetch(ctx context.Context, s hive.Session, d hive.Device) (hive.Device, error) {
	dev, err := s.Heating().GetClimate(ctx, d)
	if err != nil {
		return d, err
	}
	temp, err := s.Heating().GetCurrentTemperature(ctx, dev)
	if err != nil {
		return d, err
	}
	dev.Temperature = temp
	return dev, nil
}

func (heating) derive(ctx context.Context, s hive.Session, d hive.Device) (map[string]hive.HeatingMode, error) {
	boost, err := s.Heating().GetBoost(ctx, d)
	if err != nil {
		return nil, err
	}
	mode, err := s.Heating().GetMode(ctx, d)
	if err != nil {
		return nil, err
	}
	return map[string]hive.HeatingMode{boostName: boost, manualName: mode}, nil
}

func (heating) push(a *accessory.HiveAccessory, d hive.Device, state map[string]hive.HeatingMode) {
	pushSwitches(a, d, state)
	if d.ID != "" {
		a.Thermometer(tempName).CurrentTemperature.SetValue(d.Temperature)
	}
}

func (heating) request(service string, on bool) (hive.HeatingMode, bool) {
	return modeRequest(service, on)
}

func (h heating) apply(ctx context.Context, s hive.Session, d hive.Device, service string, m hive.HeatingMode) error {
	switch service {
	case boostName:
		if m == hive.ModeOn {
			if err := s.Heating().SetBoostOn(ctx, d, h.boostMins, h.boostTemp); err != nil {
				return err
			}
			log.Info.Printf("enabled %s boost to %.1fC for %d minutes", d.Name, h.boostTemp, h.boostMins)
			return nil
		}
		if err := s.Heating().SetBoostOff(ctx, d); err != nil {
			return err
		}
		log.Info.Printf("turned off %s boost", d.Name)
		return nil
	case manualName:
		if err := s.Heating().SetMode(ctx, d, hive.ToRequestValue(m)); err != nil {
			return err
		}
		log.Info.Printf("set %s mode: %s", d.Name, m)
		return nil
	}
	return fmt.Errorf("%s: %w", service, ErrUnknownService)
}

package hivehome

import (
	"context"
	"fmt"

	"github.com/brutella/hc/log"

	"github.com/cloudkucooland/hivebridge/accessory"
	"github.com/cloudkucooland/hivebridge/hive"
)

// hotWater exposes a hot water controller's Manual and Boost switches
type hotWater struct {
	boostMins int
}

func (hotWater) kind() hive.Category { return hive.CategoryHotWater }
func (hotWater) suffix() string      { return " : Hot Water" }

func (hotWater) attach(a *accessory.HiveAccessory, onSet func(string, bool)) {
	attachSwitches(a, onSet)
}

func (hotWater) fetch(ctx context.Context, s hive.Session, d hive.Device) (hive.Device, error) {
	return s.HotWater().GetWaterHeater(ctx, d)
}

func (hotWater) derive(ctx context.Context, s hive.Session, d hive.Device) (map[string]hive.HeatingMode, error) {
	boost, err := s.HotWater().GetBoost(ctx, d)
	if err != nil {
		return nil, err
	}
	mode, err := s.HotWater().GetMode(ctx, d)
	if err != nil {
		return nil, err
	}
	return map[string]hive.HeatingMode{boostName: boost, manualName: mode}, nil
}

func (hotWater) push(a *accessory.HiveAccessory, d hive.Device, state map[string]hive.HeatingMode) {
	pushSwitches(a, d, state)
}

func (hotWater) request(service string, on bool) (hive.HeatingMode, bool) {
	return modeRequest(service, on)
}

func (h hotWater) apply(ctx context.Context, s hive.Session, d hive.Device, service string, m hive.HeatingMode) error {
	switch service {
	case boostName:
		if m == hive.ModeOn {
			if err := s.HotWater().SetBoostOn(ctx, d, h.boostMins); err != nil {
				return err
			}
			log.Info.Printf("enabled %s boost for %d minutes", d.Name, h.boostMins)
			return nil
		}
		if err := s.HotWater().SetBoostOff(ctx, d); err != nil {
			return err
		}
		log.Info.Printf("turned off %s boost", d.Name)
		return nil
	case manualName:
		if err := s.HotWater().SetMode(ctx, d, hive.ToRequestValue(m)); err != nil {
			return err
		}
		log.Info.Printf("set %s mode: %s", d.Name, m)
		return nil
	}
	return fmt.Errorf("%s: %w", service, ErrUnknownService)
}

package devices

import (
	"github.com/brutella/hc/characteristic"
	"github.com/brutella/hc/service"
)

// ModeSwitch is one independently togglable facet of a heating device,
// e.g. Manual or Boost
type ModeSwitch struct {
	*service.Service

	On   *characteristic.On
	Name *characteristic.Name

	RemainingDuration *characteristic.RemainingDuration
}

// NewModeSwitch builds a switch service; label is what the user sees
func NewModeSwitch(label string) *ModeSwitch {
	var svc ModeSwitch
	svc.Service = service.New(service.TypeSwitch)

	svc.On = characteristic.NewOn()
	svc.AddCharacteristic(svc.On.Characteristic)

	svc.Name = characteristic.NewName()
	svc.Name.SetValue(label)
	svc.AddCharacteristic(svc.Name.Characteristic)

	// only meaningful for boost, zero otherwise
	svc.RemainingDuration = characteristic.NewRemainingDuration()
	svc.AddCharacteristic(svc.RemainingDuration.Characteristic)
	svc.RemainingDuration.SetValue(0)

	return &svc
}

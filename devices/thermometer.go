package devices

import (
	"github.com/brutella/hc/characteristic"
	"github.com/brutella/hc/service"
)

// Thermometer reports a zone's current temperature
type Thermometer struct {
	*service.TemperatureSensor

	Name *characteristic.Name
}

func NewThermometer(label string) *Thermometer {
	var t Thermometer
	t.TemperatureSensor = service.NewTemperatureSensor()

	t.Name = characteristic.NewName()
	t.Name.SetValue(label)
	t.AddCharacteristic(t.Name.Characteristic)

	return &t
}

package hive

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Category is the kind of a device in the session's device list
type Category string

const (
	CategoryHeating  Category = "heating"
	CategoryHotWater Category = "hotwater"
)

// DeviceLoginRequired is the challenge the server answers with when the
// login must be completed with the registered device's secrets
const DeviceLoginRequired = "DEVICE_SRP_AUTH"

// ScanIntervalSecs is the minimum time between refreshes from the server
const ScanIntervalSecs = 15

// Device is one heating zone or hot water controller as last reported.
// A Device is a snapshot; every fetch replaces it wholesale.
type Device struct {
	ID   string   `json:"hiveID"`
	Name string   `json:"hiveName"`
	Kind Category `json:"hiveType"`

	Mode        string  `json:"mode,omitempty"`
	PrevMode    string  `json:"prevMode,omitempty"`
	Boost       int     `json:"boost,omitempty"` // minutes remaining, 0 if not boosting
	Temperature float64 `json:"temperature,omitempty"`
	Target      float64 `json:"target,omitempty"`
	Online      bool    `json:"online"`
}

// Credentials are everything needed to log in as a previously registered device
type Credentials struct {
	Username       string
	Password       string
	DeviceGroupKey string
	DeviceKey      string
	DevicePassword string
}

// Session is the remote vendor session. Implementations must be safe for
// concurrent use, every accessory shares one.
type Session interface {
	Login(ctx context.Context) (string, error)
	DeviceLogin(ctx context.Context) error
	UpdateInterval(secs int)
	StartSession(ctx context.Context) error
	DeviceList(ctx context.Context, c Category) ([]Device, error)
	HotWater() HotWater
	Heating() Heating
}

// HotWater is the set of hot water operations a session offers
type HotWater interface {
	GetWaterHeater(ctx context.Context, d Device) (Device, error)
	GetMode(ctx context.Context, d Device) (HeatingMode, error)
	GetBoost(ctx context.Context, d Device) (HeatingMode, error)
	SetMode(ctx context.Context, d Device, m HeatingMode) error
	SetBoostOn(ctx context.Context, d Device, mins int) error
	SetBoostOff(ctx context.Context, d Device) error
}

// Heating is the set of room heating operations a session offers
type Heating interface {
	GetClimate(ctx context.Context, d Device) (Device, error)
	GetMode(ctx context.Context, d Device) (HeatingMode, error)
	GetBoost(ctx context.Context, d Device) (HeatingMode, error)
	GetCurrentTemperature(ctx context.Context, d Device) (float64, error)
	SetMode(ctx context.Context, d Device, m HeatingMode) error
	SetBoostOn(ctx context.Context, d Device, mins int, temp float64) error
	SetBoostOff(ctx context.Context, d Device) error
}

// ErrNotFound is returned when a device is no longer in the session's device list
var ErrNotFound = errors.New("device not found")

// AuthError is returned when the login challenge is anything other than
// DeviceLoginRequired. The credentials are presumed bad; do not retry.
type AuthError struct {
	Challenge string
}

func (e AuthError) Error() string {
	return fmt.Sprintf("login replied with unexpected challenge %q", e.Challenge)
}

// HTTPStatusError is a non-2xx reply from the server
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("hive api error %d: %s", e.Status, strings.TrimSpace(e.Body))
}

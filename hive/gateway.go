package hive

import (
	"context"
	"fmt"

	"github.com/brutella/hc/log"
)

// Start logs into, configures and starts a session.
// If the server wants anything other than a device login an AuthError is
// returned and no session is produced. Transport errors are returned as-is,
// there is no retry here.
func Start(ctx context.Context, s Session) (Session, error) {
	challenge, err := s.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if challenge != DeviceLoginRequired {
		log.Debug.Printf("login replied with: %s", challenge)
		return nil, AuthError{Challenge: challenge}
	}
	if err := s.DeviceLogin(ctx); err != nil {
		return nil, fmt.Errorf("device login: %w", err)
	}

	s.UpdateInterval(ScanIntervalSecs)

	if err := s.StartSession(ctx); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return s, nil
}

// ListDevices returns every room heating zone followed by every hot water
// device. A category which cannot be listed contributes nothing; no devices
// yet is a normal state while discovery is retrying.
func ListDevices(ctx context.Context, s Session) []Device {
	var out []Device
	for _, c := range []Category{CategoryHeating, CategoryHotWater} {
		devs, err := s.DeviceList(ctx, c)
		if err != nil {
			log.Debug.Printf("unable to list %s devices: %s", c, err.Error())
			continue
		}
		out = append(out, devs...)
	}
	if out == nil {
		out = []Device{}
	}
	return out
}

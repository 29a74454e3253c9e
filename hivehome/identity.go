package hivehome

import (
	"github.com/google/uuid"
)

var namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("hivebridge.cloudkucooland.github.com"))

// Identity is the stable accessory identity of a Hive device.
// The same device ID always gives the same identity.
func Identity(deviceID string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(deviceID))
}

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valid() Config {
	return Config{
		HiveUsername:      "me@example.com",
		HivePassword:      "secret",
		DeviceGroupKey:    "group",
		DeviceKey:         "key",
		DevicePassword:    "devpass",
		HotWaterBoostMins: 30,
	}
}

func TestValidateOK(t *testing.T) {
	c := valid()
	assert.Empty(t, c.Validate())
}

func TestValidateListsEverything(t *testing.T) {
	var c Config
	assert.Equal(t, []string{
		"No Hive username specified",
		"No Hive password specified",
		"No Hive Device Group Key specified",
		"No Hive Device Key specified",
		"No Hive Device Password specified",
		"Hot Water Boost Duration is not an integer > 0",
	}, c.Validate())
}

func TestValidateBoost(t *testing.T) {
	c := valid()
	c.HotWaterBoostMins = -5
	assert.Equal(t, []string{"Hot Water Boost Duration is not an integer > 0"}, c.Validate())

	c = valid()
	c.HeatingBoostMins = -1
	assert.Equal(t, []string{"Heating Boost Duration is not an integer > 0"}, c.Validate())
}

func TestDefaults(t *testing.T) {
	c := valid()
	c.Defaults()
	assert.Equal(t, "HiveBridge", c.Name)
	assert.Equal(t, 60, c.PollRate)
	assert.Equal(t, 30, c.HeatingBoostMins)
	assert.Equal(t, 21.0, c.HeatingBoostTemp)

	c = valid()
	c.HeatingBoostMins = 45
	c.PollRate = 20
	c.Defaults()
	assert.Equal(t, 45, c.HeatingBoostMins)
	assert.Equal(t, 20, c.PollRate)
}

func TestDecode(t *testing.T) {
	raw := `{"HiveUsername":"u","HivePassword":"p","DeviceGroupKey":"g","DeviceKey":"k","DevicePassword":"d","hotWaterBoostMins":30,"EnableDebugLog":true,"HCConfig":{"Pin":"00102003"}}`
	var c Config
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Empty(t, c.Validate())
	assert.Equal(t, 30, c.HotWaterBoostMins)
	assert.True(t, c.EnableDebugLog)
	assert.Equal(t, "00102003", c.HCConfig.Pin)

	assert.Error(t, json.Unmarshal([]byte(`{"HotWaterBoostMins":1.5}`), &c))
}

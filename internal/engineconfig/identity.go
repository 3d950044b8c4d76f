package engineconfig

import (
	"github.com/dogmatiq/ferrite"
	"github.com/google/uuid"
)

var deviceID = ferrite.
	String("UNDOBLK_DEVICE_ID", "a unique identifier for this device").
	WithConstraint(
		"must be a UUID",
		func(v string) bool {
			id, err := uuid.Parse(v)
			return err == nil && id != uuid.Nil
		},
	).
	Optional(ferrite.WithRegistry(FerriteRegistry))

func (c *Config) finalizeDeviceID() {
	if c.DeviceID != uuid.Nil {
		return
	}

	if c.UseEnv {
		if id, ok := deviceID.Value(); ok {
			c.DeviceID = uuid.MustParse(id)
			return
		}
	}

	c.DeviceID = uuid.New()
}

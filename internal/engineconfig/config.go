package engineconfig

import (
	"net"

	"github.com/dogmatiq/ferrite"
	"github.com/google/uuid"
	"github.com/undoblk/undoblk/internal/telemetry"
)

// FerriteRegistry is a registry of the environment variables used by undoblk.
var FerriteRegistry = ferrite.NewRegistry(
	"undoblk",
	"undoblk",
	ferrite.WithDocumentationURL("https://github.com/undoblk/undoblk#readme"),
)

// Config encapsulates the configuration of an [undoblk.Engine], built by
// applying [undoblk.EngineOption] functions.
type Config struct {
	UseEnv    bool
	DeviceID  uuid.UUID
	Telemetry *telemetry.Provider

	Device struct {
		CapacitySectors uint64
		JournalEntries  int
		MaxSnapshots    int
	}

	Control struct {
		Listener      net.Listener
		ListenAddress string
	}
}

// New returns a new configuration for an [undoblk.Engine].
func New[Option ~func(*Config)](options []Option) Config {
	c := Config{
		Telemetry: &telemetry.Provider{},
	}

	for _, opt := range options {
		opt(&c)
	}

	c.finalize()

	return c
}

func (c *Config) finalize() {
	c.finalizeDeviceID()
	c.finalizeTelemetry()
	c.finalizeDevice()
	c.finalizeControl()
}

package engineconfig

import (
	"net"

	"github.com/dogmatiq/ferrite"
	"github.com/undoblk/undoblk/internal/control"
)

var controlListenAddress = ferrite.
	String("UNDOBLK_LISTEN_ADDRESS", "the address on which the control server listens").
	WithDefault(control.DefaultListenAddress).
	WithConstraint(
		"must be a network address",
		isNetworkAddress,
	).
	Optional(ferrite.WithRegistry(FerriteRegistry))

func isNetworkAddress(v string) bool {
	_, port, err := net.SplitHostPort(v)
	return err == nil && port != ""
}

func (c *Config) finalizeControl() {
	if c.Control.Listener != nil || c.Control.ListenAddress != "" {
		return
	}

	if c.UseEnv {
		if addr, ok := controlListenAddress.Value(); ok {
			c.Control.ListenAddress = addr
			return
		}
	}

	c.Control.ListenAddress = control.DefaultListenAddress
}

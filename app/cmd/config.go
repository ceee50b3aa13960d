package cmd

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/MarimeGui/NetDump-client/pkg/netdump"
	"github.com/MarimeGui/NetDump-client/pkg/util"
)

// clientConfig is the resolved connection configuration for one invocation.
// Values come from the optional TOML config file first, then command line
// flags override them.
type clientConfig struct {
	Host            string
	Port            int
	ProtocolVersion uint32
	Timeout         time.Duration
}

// fileConfig is the config.toml key mapping.
type fileConfig struct {
	Address         string `toml:"address"`
	Port            int    `toml:"port"`
	ProtocolVersion uint32 `toml:"protocol_version"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

func loadClientConfig(c *cli.Context) (*clientConfig, error) {
	cfg := &clientConfig{
		Port:            netdump.DefaultPort,
		ProtocolVersion: netdump.CurrentVersion,
	}

	if path := c.GlobalString("config"); path != "" {
		var raw fileConfig
		md, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
		if md.IsDefined("address") {
			cfg.Host = raw.Address
		}
		if md.IsDefined("port") {
			cfg.Port = raw.Port
		}
		if md.IsDefined("protocol_version") {
			cfg.ProtocolVersion = raw.ProtocolVersion
		}
		if md.IsDefined("timeout_seconds") {
			cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
		}
	}

	if c.GlobalIsSet("address") || cfg.Host == "" {
		cfg.Host = c.GlobalString("address")
	}
	if cfg.Host != "" {
		// the address may carry its own port, an explicit --port still wins
		host, port, err := util.ParseAddress(cfg.Host, cfg.Port)
		if err != nil {
			return nil, err
		}
		cfg.Host = host
		cfg.Port = port
	}
	if c.GlobalIsSet("port") {
		cfg.Port = c.GlobalInt("port")
	}
	if c.GlobalIsSet("protocol-version") {
		cfg.ProtocolVersion = uint32(c.GlobalInt("protocol-version"))
	}
	if c.GlobalIsSet("timeout") {
		cfg.Timeout = time.Duration(c.GlobalInt("timeout")) * time.Second
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("missing required parameter: address")
	}
	return cfg, nil
}

func openSession(c *cli.Context) (*netdump.Session, error) {
	cfg, err := loadClientConfig(c)
	if err != nil {
		return nil, err
	}
	return netdump.Dial(cfg.Host, cfg.Port, cfg.ProtocolVersion, cfg.Timeout)
}

// finish releases the session after an operation. A framing mismatch leaves
// the byte stream unusable, so the Disconnect handshake is skipped and the
// socket just closed; every other outcome still gets the polite teardown.
func finish(s *netdump.Session, opErr error) {
	if errors.Cause(opErr) == netdump.ErrFraming {
		s.Close()
		return
	}
	s.Teardown()
}

package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/MarimeGui/NetDump-client/app/cmd"
	"github.com/MarimeGui/NetDump-client/meta"
	"github.com/MarimeGui/NetDump-client/pkg/netdump"
)

func main() {
	a := cli.NewApp()
	a.Name = "netdump-client"
	a.Usage = "client for netdump running on a Wii"
	a.Version = meta.Version
	a.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
			return nil
		}
		lvl, err := logrus.ParseLevel(c.GlobalString("log-level"))
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
		return nil
	}
	a.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "address, a",
			Usage: "hostname of the Wii to connect to",
		},
		cli.IntFlag{
			Name:  "port, p",
			Value: netdump.DefaultPort,
			Usage: "port netdump listens on",
		},
		cli.IntFlag{
			Name:  "protocol-version",
			Value: int(netdump.CurrentVersion),
			Usage: "wire protocol revision to speak, must match the console exactly",
		},
		cli.IntFlag{
			Name:  "timeout",
			Usage: "per-exchange I/O deadline in seconds, 0 blocks forever like the original protocol",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "TOML file supplying defaults for address, port, protocol version and timeout",
		},
		cli.BoolFlag{
			Name: "debug",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
		},
	}
	a.Commands = []cli.Command{
		cmd.InfoCmd(),
		cmd.GameCmd(),
		cmd.BCACmd(),
		cmd.FullCmd(),
		cmd.EjectCmd(),
		cmd.ExitCmd(),
		cmd.ShutdownCmd(),
		cmd.VersionCmd(),
	}
	if err := a.Run(os.Args); err != nil {
		logrus.Fatal("Error when executing command: ", err)
	}
}

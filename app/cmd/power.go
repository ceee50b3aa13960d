package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/MarimeGui/NetDump-client/pkg/netdump"
)

// These operations terminate the remote program, so no Disconnect handshake
// follows; the socket is just closed.

func ExitCmd() cli.Command {
	return cli.Command{
		Name:  "exit",
		Usage: "exit the netdump program on the console",
		Action: func(c *cli.Context) {
			if err := powerOp(c, (*netdump.Session).ExitProgram, "Remote program exited"); err != nil {
				logrus.WithError(err).Fatalf("Error running exit command")
			}
		},
	}
}

func ShutdownCmd() cli.Command {
	return cli.Command{
		Name:  "shutdown",
		Usage: "shut the console down",
		Action: func(c *cli.Context) {
			if err := powerOp(c, (*netdump.Session).Shutdown, "Console shutting down"); err != nil {
				logrus.WithError(err).Fatalf("Error running shutdown command")
			}
		},
	}
}

func powerOp(c *cli.Context, op func(*netdump.Session) error, done string) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := op(s); err != nil {
		return err
	}
	logrus.Info(done)
	return nil
}

package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func EjectCmd() cli.Command {
	return cli.Command{
		Name:  "eject",
		Usage: "eject the disc from the drive",
		Action: func(c *cli.Context) {
			if err := eject(c); err != nil {
				logrus.WithError(err).Fatalf("Error running eject command")
			}
		},
	}
}

func eject(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}

	err = s.EjectDisc()
	finish(s, err)
	if err != nil {
		return err
	}

	logrus.Info("Disc ejected")
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"go.uber.org/multierr"
)

func InfoCmd() cli.Command {
	return cli.Command{
		Name:  "info",
		Usage: "show the disc type, game name and internal name of the inserted disc",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "output, o",
				Usage: "write the disc info as JSON to this file instead of printing it",
			},
		},
		Action: func(c *cli.Context) {
			if err := discInfo(c); err != nil {
				logrus.WithError(err).Fatalf("Error running info command")
			}
		},
	}
}

func discInfo(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}

	info, err := s.GetDiscInfo()
	finish(s, err)
	if err != nil {
		return err
	}

	if output := c.String("output"); output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		return multierr.Append(info.WriteJSON(f), f.Close())
	}

	fmt.Print(info.Summary())
	return nil
}

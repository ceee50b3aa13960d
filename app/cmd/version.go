package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/MarimeGui/NetDump-client/meta"
)

func VersionCmd() cli.Command {
	return cli.Command{
		Name:  "version",
		Usage: "print the client and protocol version",
		Action: func(c *cli.Context) {
			if err := version(); err != nil {
				logrus.WithError(err).Fatalf("Error running version command")
			}
		},
	}
}

func version() error {
	output, err := json.MarshalIndent(meta.GetVersion(), "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

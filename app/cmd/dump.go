package cmd

import (
	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"go.uber.org/multierr"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/MarimeGui/NetDump-client/pkg/netdump"
	"github.com/MarimeGui/NetDump-client/pkg/util"
)

const (
	DefaultGameFile = "./game.iso"
	DefaultBCAFile  = "./game.bca"
)

func GameCmd() cli.Command {
	return cli.Command{
		Name:  "game",
		Usage: "dump the game disc image",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "output, o",
				Value: DefaultGameFile,
				Usage: "filepath to write the disc image to",
			},
			cli.BoolFlag{
				Name:  "stdout, s",
				Usage: "write raw image bytes to stdout instead of a file",
			},
		},
		Action: func(c *cli.Context) {
			if err := dumpGame(c); err != nil {
				logrus.WithError(err).Fatalf("Error running game dump command")
			}
		},
	}
}

func BCACmd() cli.Command {
	return cli.Command{
		Name:  "bca",
		Usage: "dump the disc's Burst Cutting Area block",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "output, o",
				Value: DefaultBCAFile,
				Usage: "filepath to write the BCA block to",
			},
			cli.BoolFlag{
				Name:  "stdout, s",
				Usage: "write raw BCA bytes to stdout instead of a file",
			},
		},
		Action: func(c *cli.Context) {
			if err := dumpBCA(c); err != nil {
				logrus.WithError(err).Fatalf("Error running BCA dump command")
			}
		},
	}
}

func FullCmd() cli.Command {
	return cli.Command{
		Name:  "full",
		Usage: "dump the game, BCA and info in one go (not supported by any protocol revision)",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "output, o",
				Value: ".",
				Usage: "directory the dump files would be written to",
			},
		},
		Action: func(c *cli.Context) {
			if err := dumpFull(c); err != nil {
				logrus.WithError(err).Fatalf("Error running full dump command")
			}
		},
	}
}

func openSink(c *cli.Context) (*util.Sink, string, error) {
	if c.Bool("stdout") {
		return util.StdoutSink(), "stdout", nil
	}
	path := c.String("output")
	sink, err := util.FileSink(path)
	return sink, path, err
}

func dumpGame(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}

	sink, target, err := openSink(c)
	if err != nil {
		s.Teardown()
		return err
	}

	// The bar owns the terminal, so it stays off for stdout sinks.
	var bar *pb.ProgressBar
	progress := func(total, received uint64) {
		if !sink.IsFile() || total == 0 {
			return
		}
		if bar == nil {
			bar = pb.StartNew(100)
		}
		bar.Set(int(received * 100 / total))
	}

	n, err := s.DumpGame(sink, progress)
	if bar != nil {
		bar.Finish()
	}
	finish(s, err)

	if err = multierr.Append(err, sink.Close()); err != nil {
		return err
	}
	logrus.Infof("Dumped %s game image to %s", units.BytesSize(float64(n)), target)
	return nil
}

func dumpBCA(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}

	sink, target, err := openSink(c)
	if err != nil {
		s.Teardown()
		return err
	}

	err = s.DumpBCA(sink)
	finish(s, err)

	if err = multierr.Append(err, sink.Close()); err != nil {
		return err
	}
	logrus.Infof("Dumped %d byte BCA block to %s", netdump.BCASize, target)
	return nil
}

func dumpFull(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}

	err = s.DumpAll()
	finish(s, err)
	return err
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/aurosearch/pkg/version"
	"github.com/urfave/cli/v3"
)

// VersionCommand prints the aurosearch release
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the aurosearch version",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "short",
				Usage: "Print only the version number",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			printVersion(os.Stdout, c.Bool("short"))
			return nil
		},
	}
}

func printVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, version.APIVersion())
		return
	}
	fmt.Fprintln(w, version.BuildVersion())
}

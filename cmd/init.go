package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/aurosearch/pkg/config"
	"github.com/urfave/cli/v3"
)

// InitCommand writes a commented aurosearch config file
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a sample aurosearch config pointing at the search backend",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(os.Stdout, c.String("config"), c.Bool("force"))
		},
	}
}

// initConfig writes the sample config to configPath. An existing file is
// left alone unless force is set.
func initConfig(w io.Writer, configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", configPath)
	}

	cfg := config.GetDefaultConfig()
	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(w, "aurosearch config written to %s\n", configPath)
	fmt.Fprintf(w, "Set backend_url (or %s) to the search backend, then run: aurosearch web\n", config.BackendURLEnv)
	return nil
}

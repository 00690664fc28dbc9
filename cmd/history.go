package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/aurosearch/pkg/config"
	"github.com/rubiojr/aurosearch/pkg/history"
	"github.com/urfave/cli/v3"
)

// HistoryCommand creates the history command
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent searches",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of searches to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Delete the recorded searches",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return showHistory(ctx, os.Stdout, c.String("config"), c.Int("limit"), c.Bool("clear"))
		},
	}
}

func showHistory(ctx context.Context, w io.Writer, configPath string, limit int, clear bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.HistoryPath == "" {
		fmt.Fprintln(w, noDataStyle.Render("Search history is disabled. Set history_path in the config file to enable it."))
		return nil
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("opening search history: %w", err)
	}
	defer store.Close()

	if clear {
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, "Search history cleared.")
		return nil
	}

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printHistory(w, entries, cfg.GroupLabels)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/aurosearch/pkg/config"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/urfave/cli/v3"
)

// FiltersCommand creates the filters command
func FiltersCommand() *cli.Command {
	return &cli.Command{
		Name:  "filters",
		Usage: "List the authors, groups and book titles offered by the backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "group",
				Usage: "Only list the book titles of this group",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return listFilters(ctx, os.Stdout, c.String("config"), c.String("group"))
		},
	}
}

func listFilters(ctx context.Context, w io.Writer, configPath, group string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	client, err := newBackendClient(cfg, newResilienceGuard(cfg), nil)
	if err != nil {
		return err
	}

	raw, err := client.Filters(ctx)
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render("Failed to load filters."))
		return fmt.Errorf("fetching filters: %w", err)
	}
	opts := filters.NormalizeOptions(raw, cfg.AuthorOrder)

	if group == "" {
		fmt.Fprintln(w, titleStyle.Render("Authors"))
		for _, a := range opts.Authors {
			fmt.Fprintf(w, "  %s\n", a)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Groups"))
		for _, g := range opts.Groups {
			fmt.Fprintf(w, "  %s  %s\n", headerStyle.Render(g), metaStyle.Render(filters.GroupLabel(cfg.GroupLabels, g)))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Search types"))
		for _, t := range filters.SearchTypes {
			fmt.Fprintf(w, "  %-10s %s\n", t, metaStyle.Render(t.Label()))
		}
		fmt.Fprintln(w)
	}

	titles := opts.TitlesFor(group)
	heading := fmt.Sprintf("Book titles (%d)", len(titles))
	if group != "" {
		heading = fmt.Sprintf("Book titles in %s (%d)", filters.GroupLabel(cfg.GroupLabels, group), len(titles))
	}
	fmt.Fprintln(w, titleStyle.Render(heading))
	if len(titles) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No book titles."))
	}
	for _, t := range titles {
		fmt.Fprintf(w, "  %s\n", t)
	}
	return nil
}

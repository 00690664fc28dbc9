package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rubiojr/aurosearch/pkg/backend"
	"github.com/rubiojr/aurosearch/pkg/config"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/history"
	"github.com/rubiojr/aurosearch/pkg/paginate"
	"github.com/rubiojr/aurosearch/pkg/query"
	"github.com/rubiojr/aurosearch/pkg/render"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the corpus from the terminal",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query (or pass it as arguments)",
			},
			&cli.StringFlag{
				Name:  "author",
				Usage: "Only results by this author",
			},
			&cli.StringFlag{
				Name:  "group",
				Usage: "Only results from this group (CWSA, CWM, Disciples)",
			},
			&cli.StringFlag{
				Name:  "book-title",
				Usage: "Only results from this book",
			},
			&cli.StringFlag{
				Name:  "search-type",
				Usage: "all, exact, all_words or semantic",
				Value: string(filters.SearchAll),
			},
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Maximum number of results requested from the backend (0 uses the config)",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page of results to show",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			q := c.String("query")
			if q == "" {
				q = strings.Join(c.Args().Slice(), " ")
			}
			st, err := filters.ParseSearchType(c.String("search-type"))
			if err != nil {
				return err
			}
			req := backend.Request{
				Query: q,
				Selection: filters.Selection{
					Author:     c.String("author"),
					Group:      c.String("group"),
					BookTitle:  c.String("book-title"),
					SearchType: st,
				},
				TopK: c.Int("top-k"),
			}
			return searchCorpus(ctx, os.Stdout, c.String("config"), req, c.Int("page"))
		},
	}
}

// searchCorpus runs one search and prints a page of results.
func searchCorpus(ctx context.Context, w io.Writer, configPath string, req backend.Request, page int) error {
	if strings.TrimSpace(req.Query) == "" {
		return errors.New(query.ErrEmptyQuery)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if req.TopK <= 0 {
		req.TopK = cfg.TopK
	}

	client, err := newBackendClient(cfg, newResilienceGuard(cfg), nil)
	if err != nil {
		return err
	}

	results, err := client.Search(ctx, req)
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render(query.ErrSearchFailed))
		return fmt.Errorf("searching: %w", err)
	}
	recordSearch(ctx, cfg, req, len(results))

	printResults(w, cfg, req, results, page)
	return nil
}

func printResults(w io.Writer, cfg *config.Config, req backend.Request, results []backend.Result, page int) {
	header := fmt.Sprintf("%q · %s results", req.Query, formatNumber(len(results)))
	if f := describeSelection(req.Selection, cfg.GroupLabels); f != "" {
		header += " · " + f
	}
	fmt.Fprintln(w, titleStyle.Render(header))

	if len(results) == 0 {
		fmt.Fprintln(w, noDataStyle.Render(render.NoResults))
		return
	}

	p := paginate.New(results, cfg.PageSize)
	p.GoToPage(page)
	for i, r := range p.CurrentSlice() {
		card := render.NewCard(r, req.Query, p.Offset()+i+1)
		fmt.Fprintln(w, formatCard(card, r.Snippet, req.Query))
	}
	if p.TotalPages() > 1 {
		fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("Page %d of %d (pages %v)", p.Page(), p.TotalPages(), p.Window(paginate.DefaultWindow))))
	}
}

// recordSearch stores a CLI search in the history database when one is
// configured. Failures only warn.
func recordSearch(ctx context.Context, cfg *config.Config, req backend.Request, results int) {
	if cfg.HistoryPath == "" {
		return
	}
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		webLog.Warnf("opening search history: %v", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, req.Query, req.Selection, results, time.Now()); err != nil {
		webLog.Warnf("recording search: %v", err)
	}
}

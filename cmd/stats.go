package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/factor"
	"github.com/sells-group/restoration-db/internal/stats"
)

var statsCategory string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print project totals and factor usage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cats, err := statsCategories(statsCategory)
		if err != nil {
			return err
		}

		if err := cfg.Validate("stats"); err != nil {
			return err
		}

		if err := useBoundaries(ctx, cfg.Geo); err != nil {
			return err
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		return printStats(cmd, pool, cats)
	},
}

// statsCategories returns every category for an empty key.
func statsCategories(key string) ([]factor.Category, error) {
	if key == "" {
		return factor.All, nil
	}
	cat, ok := factor.ByKey(key)
	if !ok {
		return nil, eris.Errorf("stats: unknown category %q", key)
	}
	return []factor.Category{cat}, nil
}

func printStats(cmd *cobra.Command, pool db.Pool, cats []factor.Category) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	footer, err := stats.FooterStats(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Projects:  %d\nCountries: %d\n", footer.TotalProjects, footer.TotalCountries)

	for _, cat := range cats {
		usage, err := stats.UsageCounts(ctx, pool, cat)
		if err != nil {
			return err
		}
		printUsage(out, cat, usage)
	}
	return nil
}

func printUsage(out io.Writer, cat factor.Category, usage []stats.Usage) {
	fmt.Fprintf(out, "\n%s\n", cat.Table)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROJECTS")
	for _, u := range usage {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", u.ID, u.Name, u.ProjectCount)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	statsCmd.Flags().StringVar(&statsCategory, "category", "", "only this category key (e.g. issue, governance)")
	rootCmd.AddCommand(statsCmd)
}

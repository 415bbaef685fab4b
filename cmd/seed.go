package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/restoration-db/internal/factor"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load factor reference data",
	Long:  "Upserts the seven factor tables from a YAML file, or from the built-in reference data when --file is not given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sf, err := loadSeed(seedFile)
		if err != nil {
			return err
		}

		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := factor.Seed(ctx, pool, sf)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d of %d factors\n", n, sf.Len())
		return nil
	},
}

func loadSeed(path string) (factor.SeedFile, error) {
	if path == "" {
		return factor.DefaultSeed()
	}
	return factor.LoadSeedFile(path)
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed file (default: built-in reference data)")
	rootCmd.AddCommand(seedCmd)
}

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/KaramelBytes/tidyloom/internal/fixture"
	"github.com/KaramelBytes/tidyloom/internal/tableio"
	"github.com/KaramelBytes/tidyloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	genOutDir       string
	genCustomers    int
	genTransactions int
	genLoyaltyShare float64
	genSeed         int64
	genRate         float64
	genClean        bool
)

type namedDataset struct {
	name string
	d    *dataset.Dataset
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic messy retail datasets as CSV",
	Long: `Writes seeded synthetic transactions, loyalty and customer datasets, corrupted
with nulls, duplicates, outliers, formatting noise and future dates, for trying
out the cleaner. Use --clean to also write the uncorrupted originals.

Files go to input_dir under the configured *_file names with a .csv extension,
so a following "tidyloom clean" picks them up without arguments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		outDir := pick(cmd.Flags().Changed("output-dir"), genOutDir, c.InputDir)

		opts := fixture.DefaultOptions()
		opts.Customers = genCustomers
		opts.Transactions = genTransactions
		opts.LoyaltyShare = genLoyaltyShare
		opts.Seed = genSeed

		set, err := fixture.Generate(opts)
		if err != nil {
			return err
		}
		dirty, err := fixture.Dirty(set, genRate, genSeed)
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		out := cmd.OutOrStdout()
		write := func(name string, d *dataset.Dataset) error {
			p := filepath.Join(outDir, name)
			if err := tableio.WriteCSVFile(p, d); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote %s (%d rows)\n", p, d.Len())
			return nil
		}
		files := []namedDataset{
			{csvName(c.TransactionsFile), dirty.Transactions},
			{csvName(c.LoyaltyFile), dirty.Loyalty},
			{csvName(c.CustomersFile), dirty.Customers},
		}
		if genClean {
			originals := []*dataset.Dataset{set.Transactions, set.Loyalty, set.Customers}
			for i, d := range originals {
				files = append(files, namedDataset{strings.TrimSuffix(files[i].name, ".csv") + "_clean.csv", d})
			}
		}
		for _, f := range files {
			if err := write(f.name, f.d); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	d := fixture.DefaultOptions()
	generateCmd.Flags().StringVarP(&genOutDir, "output-dir", "o", "", "directory to write the CSV files into (default: input_dir from config)")
	generateCmd.Flags().IntVar(&genCustomers, "customers", d.Customers, "number of customers")
	generateCmd.Flags().IntVar(&genTransactions, "transactions", d.Transactions, "number of transaction line items")
	generateCmd.Flags().Float64Var(&genLoyaltyShare, "loyalty-share", d.LoyaltyShare, "fraction of customers enrolled in the loyalty program")
	generateCmd.Flags().Int64Var(&genSeed, "seed", d.Seed, "random seed")
	generateCmd.Flags().Float64Var(&genRate, "rate", 0.05, "fraction of rows hit by each corruption")
	generateCmd.Flags().BoolVar(&genClean, "clean", false, "also write the uncorrupted datasets (*_clean.csv)")
}

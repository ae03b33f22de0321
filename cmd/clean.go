package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/KaramelBytes/tidyloom/internal/clean"
	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/KaramelBytes/tidyloom/internal/tableio"
	"github.com/KaramelBytes/tidyloom/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	clnTransactions string
	clnLoyalty      string
	clnCustomers    string
	clnInputDir     string
	clnOutputDir    string
	clnProfiles     string
	clnSheet        string
	clnDelimiter    string
	clnDecimal      string
	clnThousands    string
	clnReport       string
	clnParallel     bool
	clnNoInfer      bool
	clnDryRun       bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the transactions, loyalty and customer datasets",
	Long: `Reads the three retail datasets (XLSX or CSV), runs each through its cleaning
profile and writes <name>.cleaned.csv plus a <name>.report file per dataset.

Files default to <input_dir>/<kind>_file from the config, falling back to the
same name with a .csv extension (what "tidyloom generate" writes). A default
file that does not exist is skipped, an explicitly named one is an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		f := cmd.Flags()
		inDir := pick(f.Changed("input-dir"), clnInputDir, c.InputDir)
		outDir := pick(f.Changed("output-dir"), clnOutputDir, c.OutputDir)
		profilesPath := pick(f.Changed("profiles"), clnProfiles, c.ProfilesFile)
		parallel := c.Parallel || clnParallel
		format, err := parseReportFormat(pick(f.Changed("report"), clnReport, c.ReportFormat))
		if err != nil {
			return err
		}

		opt := tableio.Options{
			SheetName:  pick(f.Changed("sheet"), clnSheet, c.SheetName),
			InferTypes: c.InferTypes && !clnNoInfer,
		}
		if opt.Delimiter, err = parseDelimiter(pick(f.Changed("delimiter"), clnDelimiter, c.Delimiter)); err != nil {
			return err
		}
		if err := applyLocale(&opt, clnDecimal, clnThousands); err != nil {
			return err
		}

		profiles, err := loadProfiles(profilesPath)
		if err != nil {
			return err
		}

		inputs := []struct {
			kind, flag, explicit, def string
		}{
			{clean.Transactions, "transactions", clnTransactions, c.TransactionsFile},
			{clean.Loyalty, "loyalty", clnLoyalty, c.LoyaltyFile},
			{clean.Customers, "customers", clnCustomers, c.CustomersFile},
		}
		loaded := make([]*dataset.Dataset, len(inputs))
		for i, in := range inputs {
			path, required := in.explicit, f.Changed(in.flag)
			if !required {
				path = defaultInput(inDir, in.def)
			}
			d, err := readInput(path, in.kind, opt, required, log)
			if err != nil {
				return err
			}
			loaded[i] = d
		}

		cl, err := clean.NewCleaner(loaded[0], loaded[1], loaded[2],
			clean.WithProfiles(profiles),
			clean.WithParallel(parallel),
			clean.WithCleanerLogger(log),
		)
		if err != nil {
			if errors.Is(err, dataset.ErrInvalidDataset) {
				return fmt.Errorf("no input datasets found in %s: %w", inDir, err)
			}
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		res, err := cl.CleanAll(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !clnDryRun {
			if err := utils.EnsureDir(outDir); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		for _, r := range res.All() {
			rep := r.Report
			fmt.Fprintf(out, "✓ %s: %d → %d rows (duplicates %d, outliers %d)\n",
				r.Name, rep.InputRows, rep.OutputRows, rep.DuplicatesRemoved, rep.TotalOutliers())
			if clnDryRun {
				continue
			}
			dataPath := filepath.Join(outDir, r.Name+".cleaned.csv")
			if err := tableio.WriteCSVFile(dataPath, r.Data); err != nil {
				return err
			}
			reportPath, err := writeReport(outDir, r.Name, format, rep)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  Wrote %s\n  Wrote %s\n", dataPath, reportPath)
		}
		return nil
	},
}

func pick(changed bool, flagVal, cfgVal string) string {
	if changed {
		return flagVal
	}
	return cfgVal
}

// defaultInput returns dir/name, or its .csv sibling when only that exists.
func defaultInput(dir, name string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	if alt := filepath.Join(dir, csvName(name)); alt != p {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return p
}

func readInput(path, kind string, opt tableio.Options, required bool, log *zap.Logger) (*dataset.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			log.Warn("input file not found, skipping", zap.String("dataset", kind), zap.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("%s input: %w", kind, err)
	}
	opt.Name = kind
	d, err := tableio.Read(path, opt)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	log.Info("loaded dataset", zap.String("dataset", kind), zap.String("path", path), zap.Int("rows", d.Len()))
	return d, nil
}

func writeReport(dir, name, format string, rep *clean.Report) (string, error) {
	var (
		data []byte
		ext  = ".md"
	)
	if format == "json" {
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return "", err
		}
		data, ext = b, ".json"
	} else {
		data = []byte(rep.Markdown())
	}
	p := filepath.Join(dir, name+".report"+ext)
	if err := utils.SafeWriteFile(p, data); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&clnTransactions, "transactions", "", "transactions file (.xlsx or .csv)")
	cleanCmd.Flags().StringVar(&clnLoyalty, "loyalty", "", "loyalty file (.xlsx or .csv)")
	cleanCmd.Flags().StringVar(&clnCustomers, "customers", "", "customers file (.xlsx or .csv)")
	cleanCmd.Flags().StringVar(&clnInputDir, "input-dir", "", "directory holding the default input files (overrides config)")
	cleanCmd.Flags().StringVarP(&clnOutputDir, "output-dir", "o", "", "directory for cleaned files and reports (overrides config)")
	cleanCmd.Flags().StringVar(&clnProfiles, "profiles", "", "YAML file overriding the built-in cleaning profiles")
	cleanCmd.Flags().StringVar(&clnSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cleanCmd.Flags().StringVar(&clnDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	cleanCmd.Flags().StringVar(&clnDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	cleanCmd.Flags().StringVar(&clnThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	cleanCmd.Flags().StringVar(&clnReport, "report", "", "report format: markdown|json (overrides config)")
	cleanCmd.Flags().BoolVar(&clnParallel, "parallel", false, "clean the datasets concurrently")
	cleanCmd.Flags().BoolVar(&clnNoInfer, "no-infer", false, "keep every CSV/XLSX cell as text when reading")
	cleanCmd.Flags().BoolVar(&clnDryRun, "dry-run", false, "print the summary without writing files")
}

package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tidyloom/internal/inspect"
	"github.com/KaramelBytes/tidyloom/internal/tableio"
	"github.com/KaramelBytes/tidyloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	insSheet     string
	insDelimiter string
	insDecimal   string
	insThousands string
	insTop       int
	insOutlierZ  float64
	insFormat    string
	insOut       string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Profile the data quality of a CSV/XLSX file",
	Long: `Prints per-column null rates, cardinality, numeric spread, robust outlier
counts and top values. Run it on a raw file before cleaning, or on a
*.cleaned.csv afterwards, to see what changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parseReportFormat(insFormat)
		if err != nil {
			return err
		}
		opt := tableio.Options{SheetName: insSheet, InferTypes: true}
		if opt.Delimiter, err = parseDelimiter(insDelimiter); err != nil {
			return err
		}
		if err := applyLocale(&opt, insDecimal, insThousands); err != nil {
			return err
		}
		d, err := tableio.Read(args[0], opt)
		if err != nil {
			return err
		}
		p, err := inspect.Dataset(d, inspect.Options{TopN: insTop, OutlierZ: insOutlierZ})
		if err != nil {
			return err
		}
		var data []byte
		if format == "json" {
			if data, err = utils.PrettyJSON(p); err != nil {
				return err
			}
		} else {
			data = []byte(p.Markdown())
		}
		if insOut != "" {
			if err := utils.SafeWriteFile(insOut, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", insOut)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	d := inspect.DefaultOptions()
	inspectCmd.Flags().StringVar(&insSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	inspectCmd.Flags().StringVar(&insDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	inspectCmd.Flags().StringVar(&insDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	inspectCmd.Flags().StringVar(&insThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	inspectCmd.Flags().IntVar(&insTop, "top", d.TopN, "top values listed per text column")
	inspectCmd.Flags().Float64Var(&insOutlierZ, "outlier-z", d.OutlierZ, "robust z-score threshold for outlier counts (0 disables)")
	inspectCmd.Flags().StringVar(&insFormat, "format", "markdown", "output format: markdown|json")
	inspectCmd.Flags().StringVarP(&insOut, "output", "o", "", "write the profile to a file instead of stdout")
}

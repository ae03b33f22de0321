package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tidyloom/internal/clean"
	"github.com/KaramelBytes/tidyloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	profFile string
	profOut  string
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Print or validate cleaning profiles",
}

var profilesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective cleaning profiles as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := profFile
		if !cmd.Flags().Changed("file") {
			if c, err := effectiveConfig(); err == nil {
				path = c.ProfilesFile
			}
		}
		p, err := loadProfiles(path)
		if err != nil {
			return err
		}
		b, err := clean.MarshalProfiles(p)
		if err != nil {
			return err
		}
		if profOut != "" {
			if err := utils.SafeWriteFile(profOut, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", profOut)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var profilesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a profiles YAML file and report every problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := clean.LoadProfiles(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	profilesCmd.AddCommand(profilesValidateCmd)
	profilesShowCmd.Flags().StringVar(&profFile, "file", "", "profiles YAML to load instead of the built-in profiles")
	profilesShowCmd.Flags().StringVarP(&profOut, "output", "o", "", "write the YAML to a file instead of stdout")
}

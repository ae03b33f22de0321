package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	InputDir         string `mapstructure:"input_dir" yaml:"input_dir"`
	OutputDir        string `mapstructure:"output_dir" yaml:"output_dir"`
	TransactionsFile string `mapstructure:"transactions_file" yaml:"transactions_file"`
	LoyaltyFile      string `mapstructure:"loyalty_file" yaml:"loyalty_file"`
	CustomersFile    string `mapstructure:"customers_file" yaml:"customers_file"`
	// ProfilesFile overrides the built-in cleaning profiles when set.
	ProfilesFile string `mapstructure:"profiles_file" yaml:"profiles_file"`

	// Reading
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	InferTypes bool   `mapstructure:"infer_types" yaml:"infer_types"`

	Parallel     bool   `mapstructure:"parallel" yaml:"parallel"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`
}

// Dir is the per-user configuration directory, ~/.tidyloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tidyloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tidyloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TIDYLOOM")
	v.AutomaticEnv()

	v.SetDefault("input_dir", "data/raw")
	v.SetDefault("output_dir", "data/cleaned")
	v.SetDefault("transactions_file", "transaction_data_variants.xlsx")
	v.SetDefault("loyalty_file", "loyalty_data_variants.xlsx")
	v.SetDefault("customers_file", "customer_data.xlsx")
	v.SetDefault("profiles_file", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("infer_types", true)
	v.SetDefault("parallel", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("report_format", "markdown")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

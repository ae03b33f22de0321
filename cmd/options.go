package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tidyloom/internal/clean"
	"github.com/KaramelBytes/tidyloom/internal/tableio"
)

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %s (use ','|';'|'tab'|'pipe')", s)
}

// applyLocale sets the numeric separators on opt.
func applyLocale(opt *tableio.Options, decimal, thousands string) error {
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(strings.TrimSpace(thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	return nil
}

func parseReportFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return "markdown", nil
	case "json":
		return "json", nil
	}
	return "", fmt.Errorf("unsupported report format: %s (use markdown|json)", s)
}

// loadProfiles returns the profiles in path, or the built-in ones when path is empty.
func loadProfiles(path string) (clean.Profiles, error) {
	if strings.TrimSpace(path) == "" {
		return clean.DefaultProfiles(), nil
	}
	return clean.LoadProfiles(path)
}

// csvName swaps the extension of a configured input file name for .csv.
func csvName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
}

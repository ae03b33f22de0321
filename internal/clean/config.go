package clean

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid cleaning config")
	// ErrNoColumns marks a required operation configured without any column.
	ErrNoColumns = errors.New("operation references no columns")
	// ErrUnknownStrategy is returned when outlier strategy text matches no variant.
	ErrUnknownStrategy = errors.New("unknown outlier strategy")
	// ErrUnknownPolicy is returned when fill policy text matches no variant.
	ErrUnknownPolicy = errors.New("unknown fill policy")
	// ErrUnknownQuantile is returned when quantile method text matches no variant.
	ErrUnknownQuantile = errors.New("unknown quantile method")
)

// DefaultSentinel replaces missing values when no statistical fill applies.
const DefaultSentinel = "Unknown"

// Strategy selects what happens to an out-of-range value.
type Strategy int

const (
	Clip Strategy = iota
	Nullify
	Remove
)

// ParseStrategy maps configuration text to a Strategy. The legacy spellings
// "cap" and "nan" are accepted.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clip", "cap":
		return Clip, nil
	case "nullify", "nan", "null":
		return Nullify, nil
	case "remove", "drop":
		return Remove, nil
	}
	return 0, fmt.Errorf("%w: %q (use clip|nullify|remove)", ErrUnknownStrategy, s)
}

func (s Strategy) String() string {
	switch s {
	case Clip:
		return "clip"
	case Nullify:
		return "nullify"
	case Remove:
		return "remove"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// FillPolicy names a missing-value policy.
type FillPolicy int

const (
	ModeFill FillPolicy = iota
	SentinelFill
	DropIfNull
)

// ParseFillPolicy maps configuration text to a FillPolicy.
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mode", "mode_fill":
		return ModeFill, nil
	case "sentinel", "sentinel_fill", "unknown":
		return SentinelFill, nil
	case "drop", "drop_if_null":
		return DropIfNull, nil
	}
	return 0, fmt.Errorf("%w: %q (use mode|sentinel|drop)", ErrUnknownPolicy, s)
}

func (p FillPolicy) String() string {
	switch p {
	case ModeFill:
		return "mode"
	case SentinelFill:
		return "sentinel"
	case DropIfNull:
		return "drop"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func (p FillPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *FillPolicy) UnmarshalText(b []byte) error {
	v, err := ParseFillPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// QuantileMethod selects how the upper threshold is derived from sorted values.
type QuantileMethod int

const (
	// Linear interpolates between the two closest ranks.
	Linear QuantileMethod = iota
	// LowerRank takes the closest rank at or below the requested position.
	// Clipping to it is a fixed point, so a second pass changes nothing.
	LowerRank
)

// ParseQuantileMethod maps configuration text to a QuantileMethod.
func ParseQuantileMethod(s string) (QuantileMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "":
		return Linear, nil
	case "lower":
		return LowerRank, nil
	}
	return 0, fmt.Errorf("%w: %q (use linear|lower)", ErrUnknownQuantile, s)
}

func (m QuantileMethod) String() string {
	if m == LowerRank {
		return "lower"
	}
	return "linear"
}

func (m QuantileMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *QuantileMethod) UnmarshalText(b []byte) error {
	v, err := ParseQuantileMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// OutlierSpec bounds one numeric column.
type OutlierSpec struct {
	Column        string         `yaml:"column"`
	Lower         *float64       `yaml:"lower,omitempty"`
	UpperQuantile *float64       `yaml:"upper_quantile,omitempty"`
	Strategy      Strategy       `yaml:"strategy"`
	Quantile      QuantileMethod `yaml:"quantile"`
}

func (s OutlierSpec) validate() error {
	var err error
	if strings.TrimSpace(s.Column) == "" {
		err = multierr.Append(err, fmt.Errorf("outlier spec: %w", ErrNoColumns))
	}
	if s.Lower == nil && s.UpperQuantile == nil {
		err = multierr.Append(err, fmt.Errorf("outlier spec %q: needs a lower bound or an upper quantile", s.Column))
	}
	if s.Lower != nil && (math.IsNaN(*s.Lower) || math.IsInf(*s.Lower, 0)) {
		err = multierr.Append(err, fmt.Errorf("outlier spec %q: lower bound must be finite", s.Column))
	}
	if q := s.UpperQuantile; q != nil && !(*q > 0 && *q < 1) {
		err = multierr.Append(err, fmt.Errorf("outlier spec %q: upper quantile %v outside (0,1)", s.Column, *q))
	}
	if s.Strategy < Clip || s.Strategy > Remove {
		err = multierr.Append(err, fmt.Errorf("outlier spec %q: %w: %d", s.Column, ErrUnknownStrategy, int(s.Strategy)))
	}
	return err
}

// Config is the cleaning configuration for one dataset kind. A Pipeline keeps
// its own deep copy, so later edits to a Config never reach a running pipeline.
type Config struct {
	Name            string                `yaml:"name"`
	DuplicateKeys   []string              `yaml:"duplicate_keys"`
	DateColumns     []string              `yaml:"date_columns,omitempty"`
	NumericColumns  []string              `yaml:"numeric_columns,omitempty"`
	ModeFill        []string              `yaml:"mode_fill,omitempty"`
	SentinelFill    []string              `yaml:"sentinel_fill,omitempty"`
	DropIfNull      []string              `yaml:"drop_if_null,omitempty"`
	// Fill assigns a policy per column; a pipeline merges it into the three
	// policy lists above.
	Fill            map[string]FillPolicy `yaml:"fill,omitempty"`
	CriticalColumns []string              `yaml:"critical_columns,omitempty"`
	Outliers        []OutlierSpec         `yaml:"outliers,omitempty"`
	TextColumns     []string              `yaml:"text_columns,omitempty"`
	Sentinel        string                `yaml:"sentinel,omitempty"`
}

// Validate reports every structural problem in the configuration at once.
func (c Config) Validate() error {
	var err error
	if len(c.DuplicateKeys) == 0 {
		err = multierr.Append(err, fmt.Errorf("duplicate keys: %w", ErrNoColumns))
	}
	lists := []struct {
		name string
		cols []string
	}{
		{"duplicate_keys", c.DuplicateKeys},
		{"date_columns", c.DateColumns},
		{"numeric_columns", c.NumericColumns},
		{"mode_fill", c.ModeFill},
		{"sentinel_fill", c.SentinelFill},
		{"drop_if_null", c.DropIfNull},
		{"critical_columns", c.CriticalColumns},
		{"text_columns", c.TextColumns},
	}
	for _, l := range lists {
		for _, col := range l.cols {
			if strings.TrimSpace(col) == "" {
				err = multierr.Append(err, fmt.Errorf("%s: blank column name", l.name))
			}
		}
	}
	for _, col := range sortedFillKeys(c.Fill) {
		err = multierr.Append(err, c.validateFill(col, c.Fill[col]))
	}
	for _, s := range c.Outliers {
		err = multierr.Append(err, s.validate())
	}
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidConfig, c.Name, err)
	}
	return nil
}

func (c Config) validateFill(col string, p FillPolicy) error {
	if strings.TrimSpace(col) == "" {
		return fmt.Errorf("fill: blank column name")
	}
	if p < ModeFill || p > DropIfNull {
		return fmt.Errorf("fill %q: %w: %d", col, ErrUnknownPolicy, int(p))
	}
	for _, other := range []FillPolicy{ModeFill, SentinelFill, DropIfNull} {
		if other != p && slices.Contains(*c.policyList(other), col) {
			return fmt.Errorf("fill %q: policy %s conflicts with %s list", col, p, other)
		}
	}
	return nil
}

func (c *Config) policyList(p FillPolicy) *[]string {
	switch p {
	case SentinelFill:
		return &c.SentinelFill
	case DropIfNull:
		return &c.DropIfNull
	}
	return &c.ModeFill
}

// mergeFill appends every Fill entry to its policy list in column order and
// clears Fill. Columns already listed are not repeated.
func (c *Config) mergeFill() {
	for _, col := range sortedFillKeys(c.Fill) {
		list := c.policyList(c.Fill[col])
		if !slices.Contains(*list, col) {
			*list = append(*list, col)
		}
	}
	c.Fill = nil
}

func sortedFillKeys(m map[string]FillPolicy) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (c Config) sentinel() string {
	if c.Sentinel == "" {
		return DefaultSentinel
	}
	return c.Sentinel
}

func (c Config) clone() Config {
	out := c
	out.DuplicateKeys = cloneStrings(c.DuplicateKeys)
	out.DateColumns = cloneStrings(c.DateColumns)
	out.NumericColumns = cloneStrings(c.NumericColumns)
	out.ModeFill = cloneStrings(c.ModeFill)
	out.SentinelFill = cloneStrings(c.SentinelFill)
	out.DropIfNull = cloneStrings(c.DropIfNull)
	out.CriticalColumns = cloneStrings(c.CriticalColumns)
	out.TextColumns = cloneStrings(c.TextColumns)
	if c.Fill != nil {
		out.Fill = make(map[string]FillPolicy, len(c.Fill))
		for k, v := range c.Fill {
			out.Fill[k] = v
		}
	}
	out.Outliers = make([]OutlierSpec, len(c.Outliers))
	for i, s := range c.Outliers {
		cp := s
		if s.Lower != nil {
			v := *s.Lower
			cp.Lower = &v
		}
		if s.UpperQuantile != nil {
			v := *s.UpperQuantile
			cp.UpperQuantile = &v
		}
		out.Outliers[i] = cp
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Float returns a pointer to v, for building OutlierSpec literals.
func Float(v float64) *float64 { return &v }

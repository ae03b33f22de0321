package clean

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Dataset kinds with a built-in profile.
const (
	Transactions = "transactions"
	Loyalty      = "loyalty"
	Customers    = "customers"
)

// TransactionsConfig is the built-in profile for transaction records.
func TransactionsConfig() Config {
	return Config{
		Name:           Transactions,
		DuplicateKeys:  []string{"transaction_id", "customer_id", "transaction_timestamps", "order_total", "item_name"},
		DateColumns:    []string{"transaction_timestamps"},
		NumericColumns: []string{"order_total", "quantity", "item_price"},
		ModeFill:       []string{"payment_method", "order_source"},
		SentinelFill:   []string{"item_name", "item_category"},
		DropIfNull:     []string{"order_total", "quantity"},
		Outliers: []OutlierSpec{
			{Column: "order_total", Lower: Float(0.1), UpperQuantile: Float(0.99), Strategy: Clip, Quantile: LowerRank},
			{Column: "quantity", Lower: Float(1), UpperQuantile: Float(0.99), Strategy: Clip, Quantile: LowerRank},
		},
		TextColumns: []string{"item_name", "item_category", "payment_method", "order_source"},
	}
}

// LoyaltyConfig is the built-in profile for loyalty-program records.
func LoyaltyConfig() Config {
	return Config{
		Name:            Loyalty,
		DuplicateKeys:   []string{"loyalty_member_id", "customer_id"},
		NumericColumns:  []string{"total_loyalty_points"},
		SentinelFill:    []string{"assigned_discount_group(s)"},
		CriticalColumns: []string{"customer_id"},
		Outliers: []OutlierSpec{
			{Column: "total_loyalty_points", Lower: Float(0), Strategy: Clip, Quantile: LowerRank},
		},
		TextColumns: []string{"assigned_discount_group(s)"},
	}
}

// CustomersConfig is the built-in profile for customer profiles.
func CustomersConfig() Config {
	return Config{
		Name:          Customers,
		DuplicateKeys: []string{"customer_id", "email"},
		DateColumns:   []string{"DOB"},
		SentinelFill:  []string{"email", "phone", "address", "gender"},
		DropIfNull:    []string{"customer_id"},
		Outliers: []OutlierSpec{
			{Column: "age", Lower: Float(0), UpperQuantile: Float(0.999), Strategy: Clip, Quantile: LowerRank},
		},
		TextColumns: []string{"gender"},
	}
}

// Profiles holds one configuration per dataset kind.
type Profiles struct {
	Transactions Config `yaml:"transactions"`
	Loyalty      Config `yaml:"loyalty"`
	Customers    Config `yaml:"customers"`
}

// DefaultProfiles returns the built-in profiles.
func DefaultProfiles() Profiles {
	return Profiles{
		Transactions: TransactionsConfig(),
		Loyalty:      LoyaltyConfig(),
		Customers:    CustomersConfig(),
	}
}

// Validate checks all three profiles and reports every problem found.
func (p Profiles) Validate() error {
	return multierr.Combine(
		p.Transactions.Validate(),
		p.Loyalty.Validate(),
		p.Customers.Validate(),
	)
}

// LoadProfiles reads a YAML profile file. Keys present in the file replace the
// built-in values; anything omitted keeps its default.
func LoadProfiles(path string) (Profiles, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profiles{}, fmt.Errorf("open profiles: %w", err)
	}
	defer f.Close()
	return DecodeProfiles(f)
}

// DecodeProfiles is LoadProfiles over a reader.
func DecodeProfiles(r io.Reader) (Profiles, error) {
	p := DefaultProfiles()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profiles{}, fmt.Errorf("%w: decode profiles: %w", ErrInvalidConfig, err)
	}
	// A section may rename its dataset; an empty name falls back to the kind.
	if p.Transactions.Name == "" {
		p.Transactions.Name = Transactions
	}
	if p.Loyalty.Name == "" {
		p.Loyalty.Name = Loyalty
	}
	if p.Customers.Name == "" {
		p.Customers.Name = Customers
	}
	if err := p.Validate(); err != nil {
		return Profiles{}, err
	}
	return p, nil
}

// MarshalProfiles renders p as YAML.
func MarshalProfiles(p Profiles) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode profiles: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

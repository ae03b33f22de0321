// Package fixture builds synthetic retail datasets and corrupts them the way a
// messy upstream export would, for tests and demos.
package fixture

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/google/uuid"
)

// Options controls dataset sizes and the random stream.
type Options struct {
	Customers    int
	Transactions int
	// LoyaltyShare is the fraction of customers enrolled in the loyalty program.
	LoyaltyShare float64
	Seed         int64
	Start        time.Time
	End          time.Time
}

// DefaultOptions returns a small, fixed-seed configuration.
func DefaultOptions() Options {
	return Options{
		Customers:    200,
		Transactions: 1000,
		LoyaltyShare: 0.4,
		Seed:         42,
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC),
	}
}

// Set is one generated batch of the three related datasets.
type Set struct {
	Transactions *dataset.Dataset
	Loyalty      *dataset.Dataset
	Customers    *dataset.Dataset
}

// Column layouts of the generated datasets.
var (
	TransactionColumns = []dataset.Column{
		{Name: "transaction_id", Kind: dataset.Identifier},
		{Name: "customer_id", Kind: dataset.Identifier},
		{Name: "transaction_timestamps", Kind: dataset.Temporal},
		{Name: "order_type", Kind: dataset.Text},
		{Name: "order_total", Kind: dataset.Numeric},
		{Name: "item_name", Kind: dataset.Text},
		{Name: "item_category", Kind: dataset.Text},
		{Name: "quantity", Kind: dataset.Numeric},
		{Name: "item_price", Kind: dataset.Numeric},
		{Name: "order_source", Kind: dataset.Text},
		{Name: "payment_method", Kind: dataset.Text},
	}
	LoyaltyColumns = []dataset.Column{
		{Name: "loyalty_member_id", Kind: dataset.Identifier},
		{Name: "customer_id", Kind: dataset.Identifier},
		{Name: "email", Kind: dataset.Text},
		{Name: "loyalty_signup_date", Kind: dataset.Temporal},
		{Name: "total_loyalty_points", Kind: dataset.Numeric},
		{Name: "number_of_transactions", Kind: dataset.Numeric},
		{Name: "total_spend", Kind: dataset.Numeric},
		{Name: "assigned_discount_group(s)", Kind: dataset.Text},
	}
	CustomerColumns = []dataset.Column{
		{Name: "customer_id", Kind: dataset.Identifier},
		{Name: "email", Kind: dataset.Text},
		{Name: "phone", Kind: dataset.Text},
		{Name: "DOB", Kind: dataset.Temporal},
		{Name: "full_name", Kind: dataset.Text},
		{Name: "address", Kind: dataset.Text},
		{Name: "gender", Kind: dataset.Text},
		{Name: "age", Kind: dataset.Numeric},
	}
)

type product struct {
	name     string
	category string
	price    float64
	variants []variant
}

type variant struct {
	size string
	mult float64
}

var catalog = []product{
	{"Koshihikari Rice", "Staples", 2400, []variant{{"2kg", 1}, {"5kg", 2.3}}},
	{"Milk Bread", "Bakery", 220, []variant{{"Loaf", 1}, {"Half Loaf", 0.55}}},
	{"Green Tea", "Beverages", 150, []variant{{"Bottle", 1}, {"6 Pack", 5.4}}},
	{"Natto", "Chilled", 98, []variant{{"3 Pack", 1}}},
	{"Miso Paste", "Seasoning", 380, []variant{{"750g", 1}, {"1kg", 1.25}}},
	{"Salmon Fillet", "Seafood", 540, []variant{{"Tray", 1}, {"Single", 0.5}}},
	{"Umeboshi", "Pickles", 600, []variant{{"Jar", 1}}},
	{"Canned Mackerel", "Pantry", 210, []variant{{"Can", 1}, {"3 Can Pack", 2.8}}},
}

var (
	orderTypes      = []string{"In-Store", "Online Delivery", "Pick-up"}
	paymentMethods  = []string{"Cash", "Credit Card", "E-Money", "QR Pay"}
	onlineSources   = []string{"Website", "Mobile App"}
	cities          = []string{"Shibuya", "Umeda", "Sakae", "Tenjin", "Sapporo"}
	discountGroups  = []string{"Regular", "Silver Member", "Gold Member", "Student Discount"}
	genders         = []string{"female", "male", "other"}
	firstNames      = []string{"Aiko", "Haruto", "Yui", "Sota", "Mei", "Ren", "Hina", "Riku"}
	lastNames       = []string{"Sato", "Suzuki", "Takahashi", "Tanaka", "Ito", "Watanabe"}
	multiUnitTokens = []string{"Single", "Pack", "Bottle", "Loaf", "Jar", "Can", "Tray"}
)

type item struct {
	name     string
	category string
	price    float64
}

func flatten() []item {
	var out []item
	for _, p := range catalog {
		for _, v := range p.variants {
			out = append(out, item{
				name:     p.name + " " + v.size,
				category: p.category,
				price:    math.Round(p.price * v.mult),
			})
		}
	}
	return out
}

// Generate builds a clean, internally consistent Set. The same options always
// produce the same data.
func Generate(opts Options) (Set, error) {
	if opts.Customers <= 0 {
		return Set{}, fmt.Errorf("generate: customers must be positive, got %d", opts.Customers)
	}
	if !opts.End.After(opts.Start) {
		return Set{}, fmt.Errorf("generate: end %s is not after start %s", opts.End.Format(time.DateOnly), opts.Start.Format(time.DateOnly))
	}
	g := &gen{r: rand.New(rand.NewSource(opts.Seed))}
	days := int(opts.End.Sub(opts.Start).Hours() / 24)

	customers := make([]dataset.Record, 0, opts.Customers)
	for i := 0; i < opts.Customers; i++ {
		first, last := pick(g.r, firstNames), pick(g.r, lastNames)
		age := 18 + g.r.Intn(43)
		dob := opts.End.AddDate(-age, 0, -g.r.Intn(365))
		customers = append(customers, dataset.Record{
			"customer_id": g.id(),
			"email":       fmt.Sprintf("%s.%s%d@example.jp", strings.ToLower(first), strings.ToLower(last), i),
			"phone":       fmt.Sprintf("090-%04d-%04d", g.r.Intn(10000), i%10000),
			"DOB":         dob,
			"full_name":   first + " " + last,
			"address":     fmt.Sprintf("%d-%d %s", 1+g.r.Intn(9), 1+g.r.Intn(30), pick(g.r, cities)),
			"gender":      pick(g.r, genders),
			"age":         age,
		})
	}

	items := flatten()
	transactions := make([]dataset.Record, 0, opts.Transactions)
	for i := 0; i < opts.Transactions; i++ {
		c := customers[g.r.Intn(len(customers))]
		it := items[g.r.Intn(len(items))]
		qty := 1
		if hasAny(it.name, multiUnitTokens) {
			qty = weighted(g.r, []int{1, 2, 3, 4, 7}, []float64{0.75, 0.55, 0.35, 0.20, 0.05})
		}
		total := math.Round(it.price * float64(qty) * (0.98 + g.r.Float64()*0.07))
		source := pick(g.r, onlineSources)
		if g.r.Intn(2) == 0 {
			source = pick(g.r, cities) + " Store"
		}
		transactions = append(transactions, dataset.Record{
			"transaction_id":         g.id(),
			"customer_id":            c["customer_id"],
			"transaction_timestamps": opts.Start.AddDate(0, 0, g.r.Intn(days+1)),
			"order_type":             pick(g.r, orderTypes),
			"order_total":            total,
			"item_name":              it.name,
			"item_category":          it.category,
			"quantity":               qty,
			"item_price":             it.price,
			"order_source":           source,
			"payment_method":         pick(g.r, paymentMethods),
		})
	}

	members := int(float64(opts.Customers) * opts.LoyaltyShare)
	loyalty := make([]dataset.Record, 0, members)
	for _, idx := range g.r.Perm(len(customers))[:members] {
		c := customers[idx]
		loyalty = append(loyalty, dataset.Record{
			"loyalty_member_id":          g.id(),
			"customer_id":                c["customer_id"],
			"email":                      c["email"],
			"loyalty_signup_date":        opts.Start.AddDate(0, 0, g.r.Intn(days/2+1)),
			"total_loyalty_points":       100 + g.r.Intn(9900),
			"number_of_transactions":     5 + g.r.Intn(115),
			"total_spend":                math.Round(5000 + g.r.Float64()*195000),
			"assigned_discount_group(s)": pick(g.r, discountGroups),
		})
	}

	return build(transactions, loyalty, customers)
}

func build(transactions, loyalty, customers []dataset.Record) (Set, error) {
	var (
		s   Set
		err error
	)
	if s.Transactions, err = dataset.New("transactions", TransactionColumns, transactions); err != nil {
		return Set{}, fmt.Errorf("build transactions: %w", err)
	}
	if s.Loyalty, err = dataset.New("loyalty", LoyaltyColumns, loyalty); err != nil {
		return Set{}, fmt.Errorf("build loyalty: %w", err)
	}
	if s.Customers, err = dataset.New("customers", CustomerColumns, customers); err != nil {
		return Set{}, fmt.Errorf("build customers: %w", err)
	}
	return s, nil
}

type gen struct {
	r *rand.Rand
}

// id draws a version 4 UUID from the seeded stream.
func (g *gen) id() string {
	u, err := uuid.NewRandomFromReader(g.r)
	if err != nil {
		// rand.Rand never fails to read.
		panic(err)
	}
	return u.String()
}

func pick[T any](r *rand.Rand, xs []T) T { return xs[r.Intn(len(xs))] }

func weighted(r *rand.Rand, xs []int, w []float64) int {
	total := 0.0
	for _, v := range w {
		total += v
	}
	x := r.Float64() * total
	for i, v := range w {
		if x < v {
			return xs[i]
		}
		x -= v
	}
	return xs[len(xs)-1]
}

func hasAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

package fixture

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
)

// FutureDate is written into corrupted temporal cells.
var FutureDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// Values injected as numeric outliers.
var (
	OrderTotalOutliers = []float64{0, -100, 999999}
	QuantityOutliers   = []float64{0, -1, 999}
	PointsOutliers     = []float64{0, -10, 99999}
)

// Dirty returns a corrupted copy of s. rate is the fraction of rows hit by each
// corruption; duplicates are added at rate/2. The input is not modified.
//
// Duplicates are copied before the other corruptions, so a copy and its source
// may later differ in casing, spacing or value.
func Dirty(s Set, rate float64, seed int64) (Set, error) {
	if rate < 0 || rate > 1 {
		return Set{}, fmt.Errorf("dirty: rate %v outside [0,1]", rate)
	}
	r := rand.New(rand.NewSource(seed))
	g := &gen{r: r}

	tx := duplicate(r, rows(s.Transactions), rate/2, nil)
	for _, col := range []string{"payment_method", "order_source"} {
		for _, i := range sample(r, len(tx), rate) {
			tx[i][col] = nil
		}
	}
	for _, i := range sample(r, len(tx), rate) {
		tx[i]["order_total"] = pick(r, OrderTotalOutliers)
	}
	for _, i := range sample(r, len(tx), rate) {
		tx[i]["quantity"] = pick(r, QuantityOutliers)
	}
	for _, i := range sample(r, len(tx), rate) {
		name, _ := tx[i]["item_name"].(string)
		switch r.Intn(4) {
		case 0:
			tx[i]["item_name"] = strings.ToUpper(name)
		case 1:
			tx[i]["item_name"] = "  " + name + " "
		case 2:
			if len(name) > 3 {
				at := r.Intn(len(name) - 1)
				tx[i]["item_name"] = name[:at] + pick(r, []string{"x", "z", "y"}) + name[at+1:]
			}
		case 3:
			if c, ok := tx[i]["item_category"].(string); ok {
				tx[i]["item_category"] = strings.ToLower(c)
			}
		}
	}
	for _, i := range sample(r, len(tx), rate) {
		tx[i]["transaction_timestamps"] = FutureDate
	}

	// Some duplicated customers get a fresh id, which hides them from the
	// (customer_id, email) key.
	cu := duplicate(r, rows(s.Customers), rate/2, func(rec dataset.Record) {
		if r.Float64() > 0.5 {
			rec["customer_id"] = g.id()
		}
	})
	for _, col := range []string{"email", "phone", "address"} {
		for _, i := range sample(r, len(cu), rate) {
			cu[i][col] = nil
		}
	}
	for _, i := range sample(r, len(cu), rate) {
		cu[i]["DOB"] = FutureDate
	}

	lo := rows(s.Loyalty)
	for _, i := range sample(r, len(lo), rate) {
		lo[i]["total_loyalty_points"] = pick(r, PointsOutliers)
	}
	for _, i := range sample(r, len(lo), rate) {
		if grp, ok := lo[i]["assigned_discount_group(s)"].(string); ok {
			lo[i]["assigned_discount_group(s)"] = strings.ToUpper(grp)
		}
	}

	shuffle(r, tx)
	shuffle(r, cu)
	shuffle(r, lo)
	return build(tx, lo, cu)
}

func rows(d *dataset.Dataset) []dataset.Record {
	out := make([]dataset.Record, d.Len())
	for i := range out {
		out[i] = d.Row(i)
	}
	return out
}

// sample returns distinct row indices covering round-down(n*rate) rows.
func sample(r *rand.Rand, n int, rate float64) []int {
	k := int(float64(n) * rate)
	return r.Perm(n)[:k]
}

func duplicate(r *rand.Rand, recs []dataset.Record, rate float64, mutate func(dataset.Record)) []dataset.Record {
	n := int(float64(len(recs)) * rate)
	for j := 0; j < n; j++ {
		cp := make(dataset.Record, len(recs[0]))
		for k, v := range recs[r.Intn(len(recs))] {
			cp[k] = v
		}
		if mutate != nil {
			mutate(cp)
		}
		recs = append(recs, cp)
	}
	return recs
}

func shuffle(r *rand.Rand, recs []dataset.Record) {
	r.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
}

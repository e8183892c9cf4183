package pipeline

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// Key identifies an aggregate row. Deal is empty before classification.
type Key struct {
	Country     string
	AffiliateID string
	Period      string
	Deal        DealType
}

// Row is a keyed set of measures at any stage of the pipeline.
type Row struct {
	Key    Key
	Values Measures
}

// Op is a reduction applied to one measure within a group.
type Op int

const (
	// Sum adds the measure across the group.
	Sum Op = iota
	// Count counts group members whose measure is non-zero.
	Count
)

// Reduction pairs a measure with the operation that reduces it.
type Reduction struct {
	Measure Measure
	Op      Op
}

// AggSpec declares the measures a group-by carries and how each is reduced.
// Measures absent from the spec are dropped from the output rows.
type AggSpec []Reduction

// Measures lists the measures of the spec in declaration order.
func (s AggSpec) Measures() []Measure {
	out := make([]Measure, len(s))
	for i, r := range s {
		out[i] = r.Measure
	}
	return out
}

// Stage1Spec collapses player events into (country, affiliate, period) totals.
var Stage1Spec = AggSpec{
	{DepositsCount, Sum},
	{DepositAmount, Sum},
	{BetsAmount, Sum},
	{CompanyProfit, Sum},
	{RS, Sum},
	{CPA, Sum},
	{CommissionAmount, Sum},
	{BonusAmount, Sum},
	{PlayerCount, Count},
}

// Stage2Spec collapses classified rows into (country, affiliate, period, deal)
// totals. RS and CPA are consumed by classification and no longer carried.
var Stage2Spec = AggSpec{
	{DepositsCount, Sum},
	{DepositAmount, Sum},
	{BetsAmount, Sum},
	{CompanyProfit, Sum},
	{CommissionAmount, Sum},
	{BonusAmount, Sum},
	{PlayerCount, Sum},
}

var one = decimal.NewFromInt(1)

// Aggregate groups rows by the projected key and reduces each group per spec.
// Output rows are sorted by key.
func Aggregate(rows []Row, key func(Key) Key, spec AggSpec) []Row {
	groups := make(map[Key]*Row)
	for _, row := range rows {
		k := key(row.Key)
		g, ok := groups[k]
		if !ok {
			g = &Row{Key: k}
			groups[k] = g
		}
		for _, r := range spec {
			switch r.Op {
			case Sum:
				g.Values[r.Measure] = g.Values[r.Measure].Add(row.Values[r.Measure])
			case Count:
				if !row.Values[r.Measure].IsZero() {
					g.Values[r.Measure] = g.Values[r.Measure].Add(one)
				}
			}
		}
	}

	out := make([]Row, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b Row) int { return compareKeys(a.Key, b.Key) })
	return out
}

// Stage1 sums player events per (country, affiliate, period).
func Stage1(rows []Row) []Row {
	return Aggregate(rows, func(k Key) Key {
		k.Deal = ""
		return k
	}, Stage1Spec)
}

// Classify returns a copy of stage-1 rows with the deal type set.
func Classify(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		row.Key.Deal = ClassifyDeal(row.Values[CPA], row.Values[RS])
		out[i] = row
	}
	return out
}

// Stage2 sums classified rows per (country, affiliate, period, deal).
func Stage2(rows []Row) []Row {
	return Aggregate(rows, func(k Key) Key { return k }, Stage2Spec)
}

// FilterMinPlayers keeps rows whose player count is strictly greater than min.
func FilterMinPlayers(rows []Row, min int) []Row {
	threshold := decimal.NewFromInt(int64(min))
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Values[PlayerCount].GreaterThan(threshold) {
			out = append(out, row)
		}
	}
	return out
}

func compareKeys(a, b Key) int {
	if c := cmp.Compare(a.Country, b.Country); c != 0 {
		return c
	}
	if c := compareIDs(a.AffiliateID, b.AffiliateID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Period, b.Period); c != 0 {
		return c
	}
	return cmp.Compare(a.Deal, b.Deal)
}

// compareIDs orders numeric IDs by value and falls back to text order.
func compareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(ai, bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ReconcilePreviewRows is how many reconciled rows a run echoes back.
const ReconcilePreviewRows = 10

// Join full-outer-joins the per-order groups of both sources. Every order id
// present on either side appears exactly once, in ascending byte order.
// Difference is payments minus settlements rounded half away from zero to
// two places, and only set when both sides have records.
func Join(payments, settlements []Group, at time.Time) []ReconciledRecord {
	p := collapse(payments)
	s := collapse(settlements)

	out := make([]ReconciledRecord, 0, max(len(p), len(s)))
	i, j := 0, 0
	for i < len(p) || j < len(s) {
		var rec ReconciledRecord
		switch {
		case j >= len(s) || (i < len(p) && p[i].OrderID < s[j].OrderID):
			rec = joinPair(&p[i], nil, at)
			i++
		case i >= len(p) || s[j].OrderID < p[i].OrderID:
			rec = joinPair(nil, &s[j], at)
			j++
		default:
			rec = joinPair(&p[i], &s[j], at)
			i++
			j++
		}
		out = append(out, rec)
	}
	return out
}

func joinPair(p, s *Group, at time.Time) ReconciledRecord {
	rec := ReconciledRecord{ReconciledAt: at}
	if p != nil {
		rec.OrderID = p.OrderID
		rec.PaymentIDs = p.IDs
		rec.PaymentsTotal = decimal.NewNullDecimal(p.Total)
	}
	if s != nil {
		rec.OrderID = s.OrderID
		rec.SettlementIDs = s.IDs
		rec.SettlementsTotal = decimal.NewNullDecimal(s.Total)
	}
	if p != nil && s != nil {
		rec.Difference = decimal.NewNullDecimal(p.Total.Sub(s.Total).Round(2))
	}
	return rec
}

// collapse sorts groups by order id and merges duplicate keys, so the merge
// in Join never emits an order id twice.
func collapse(groups []Group) []Group {
	sorted := make([]Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderID < sorted[j].OrderID })

	out := sorted[:0]
	for _, g := range sorted {
		g.IDs = append([]int64(nil), g.IDs...)
		if n := len(out); n > 0 && out[n-1].OrderID == g.OrderID {
			last := &out[n-1]
			last.IDs = append(last.IDs, g.IDs...)
			last.Total = last.Total.Add(g.Total)
			continue
		}
		out = append(out, g)
	}
	for k := range out {
		sort.Slice(out[k].IDs, func(a, b int) bool { return out[k].IDs[a] < out[k].IDs[b] })
	}
	return out
}

// Limit returns the first n records, or all of them when n is 0.
func Limit(recs []ReconciledRecord, n int) []ReconciledRecord {
	if n <= 0 || n >= len(recs) {
		return recs
	}
	return recs[:n]
}

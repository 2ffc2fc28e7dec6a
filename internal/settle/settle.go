package settle

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every amount is rounded to.
const Places = 2

type Entry struct {
	Name  string
	Total decimal.Decimal
}

type Balance struct {
	Name   string
	Amount decimal.Decimal // positive: should receive, negative: owes
}

type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

type Result struct {
	Total     decimal.Decimal
	Average   decimal.Decimal
	Balances  []Balance
	Transfers []Transfer
}

// Settled reports whether no transfers are needed.
func (r Result) Settled() bool {
	return len(r.Transfers) == 0
}

// Round rounds half away from zero to two fractional digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Compute splits the sum of totals evenly across all entries and returns the
// transfers that settle every balance. Debtors and creditors are matched
// greedily, largest against largest, which is deterministic but does not
// always yield the smallest possible number of transfers.
func Compute(totals []Entry) Result {
	n := len(totals)
	if n == 0 {
		n = 1
	}

	total := decimal.Zero
	for _, e := range totals {
		total = total.Add(Round(e.Total))
	}
	total = Round(total)
	avg := Round(total.Div(decimal.NewFromInt(int64(n))))

	type bal struct {
		name string
		net  decimal.Decimal
	}
	balances := make([]Balance, 0, len(totals))
	var pos, neg []bal
	for _, e := range totals {
		net := Round(Round(e.Total).Sub(avg))
		balances = append(balances, Balance{Name: e.Name, Amount: net})
		switch net.Sign() {
		case 1:
			pos = append(pos, bal{name: e.Name, net: net})
		case -1:
			neg = append(neg, bal{name: e.Name, net: net.Neg()})
		}
	}
	sort.SliceStable(pos, func(i, j int) bool { return pos[i].net.GreaterThan(pos[j].net) })
	sort.SliceStable(neg, func(i, j int) bool { return neg[i].net.GreaterThan(neg[j].net) })

	var transfers []Transfer
	i, j := 0, 0
	for i < len(neg) && j < len(pos) {
		d := &neg[i]
		c := &pos[j]
		pay := Round(decimal.Min(d.net, c.net))
		if pay.IsPositive() {
			transfers = append(transfers, Transfer{From: d.name, To: c.name, Amount: pay})
		}
		d.net = Round(d.net.Sub(pay))
		c.net = Round(c.net.Sub(pay))
		if d.net.IsZero() {
			i++
		}
		if c.net.IsZero() {
			j++
		}
	}

	return Result{
		Total:     total,
		Average:   avg,
		Balances:  balances,
		Transfers: transfers,
	}
}

package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/susu3304/partybot/internal/ledger"
)

// Document is a generated export file. It is built on demand and never stored.
type Document struct {
	Filename string
	Body     string
}

const timeLayout = "2006-01-02T15:04:05.000000"

// Filename returns the attachment name for a party's export.
func Filename(party string) string {
	return party + "_summary.txt"
}

// Render produces the plain-text summary of p as of now.
func Render(p *ledger.Party, now time.Time) Document {
	res := p.Settle()

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	creator := "none"
	if p.CreatorID != nil {
		creator = strconv.FormatInt(*p.CreatorID, 10)
	}

	line("Party: %s", p.Name)
	line("Creator ID: %s", creator)
	line("Generated: %s UTC", now.UTC().Format(timeLayout))
	line("")
	line("Members and totals:")
	for _, m := range p.Members {
		line(" - %s: %s", m.Name, ledger.FormatAmount(m.Total))
	}
	line("")
	line("Total: %s", ledger.FormatAmount(res.Total))
	line("Average: %s", ledger.FormatAmount(res.Average))
	line("")
	line("Balances (positive => should receive):")
	for _, bal := range res.Balances {
		sign := "+"
		if bal.Amount.IsNegative() {
			sign = "-"
		}
		line(" - %s: %s%s", bal.Name, sign, ledger.FormatAmount(bal.Amount.Abs()))
	}
	line("")
	line("Suggested transfers:")
	if res.Settled() {
		b.WriteString(" - All settled")
	} else {
		for i, tr := range res.Transfers {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, " - %s -> %s : %s", tr.From, tr.To, ledger.FormatAmount(tr.Amount))
		}
	}

	return Document{Filename: Filename(p.Name), Body: b.String()}
}

package export

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/susu3304/partybot/internal/ledger"
)

var generated = time.Date(2026, 5, 4, 18, 30, 15, 123456000, time.UTC)

func TestRender(t *testing.T) {
	creator := int64(42)
	p := &ledger.Party{
		Name:      "BBQ",
		CreatorID: &creator,
		Members: []ledger.Member{
			{Name: "a", Total: decimal.RequireFromString("30")},
			{Name: "b", Total: decimal.RequireFromString("10")},
			{Name: "c", Total: decimal.RequireFromString("20")},
		},
	}

	doc := Render(p, generated)
	assert.Equal(t, "BBQ_summary.txt", doc.Filename)
	assert.Equal(t, `Party: BBQ
Creator ID: 42
Generated: 2026-05-04T18:30:15.123456 UTC

Members and totals:
 - a: 30.00
 - b: 10.00
 - c: 20.00

Total: 60.00
Average: 20.00

Balances (positive => should receive):
 - a: +10.00
 - b: -10.00
 - c: +0.00

Suggested transfers:
 - b -> a : 10.00`, doc.Body)
}

func TestRender_SettledLegacyParty(t *testing.T) {
	p := &ledger.Party{
		Name:    "old",
		Members: []ledger.Member{{Name: "solo", Total: decimal.Zero}},
	}

	doc := Render(p, generated)
	assert.Contains(t, doc.Body, "Creator ID: none\n")
	assert.Contains(t, doc.Body, " - solo: +0.00\n")
	assert.Contains(t, doc.Body, "Suggested transfers:\n - All settled")
}

func TestRender_MultipleTransfers(t *testing.T) {
	p := &ledger.Party{
		Name: "trip",
		Members: []ledger.Member{
			{Name: "a", Total: decimal.RequireFromString("100")},
			{Name: "b", Total: decimal.Zero},
			{Name: "c", Total: decimal.Zero},
		},
	}

	doc := Render(p, generated)
	assert.Contains(t, doc.Body, "Average: 33.33\n")
	assert.Contains(t, doc.Body, " - b -> a : 33.33\n - c -> a : 33.33")
}

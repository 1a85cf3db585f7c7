package sources

import "github.com/JonMunkholm/recon/internal/core"

func init() {
	registerSettlements()
}

// Settlement flat files are tab separated. Older exports carry only a
// posted-date column, so it backs up posted-date-time.
func registerSettlements() {
	core.Register(core.SourceDefinition{
		Source:           core.SourceSettlements,
		Label:            "Settlements",
		Delimiter:        '\t',
		OrderIDColumns:   []string{"order-id"},
		TimestampColumns: []string{"posted-date-time", "posted-date"},
		AmountColumns:    []string{"amount"},
	})
}

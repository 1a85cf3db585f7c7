package sources

import "github.com/JonMunkholm/recon/internal/core"

func init() {
	registerPayments()
}

// Payment transaction reports: comma separated, one row per charge.
func registerPayments() {
	core.Register(core.SourceDefinition{
		Source:           core.SourcePayments,
		Label:            "Payments",
		Delimiter:        ',',
		OrderIDColumns:   []string{"order id"},
		TimestampColumns: []string{"date/time"},
		AmountColumns:    []string{"total"},
	})
}

package web

import (
	"net/http"
	"strconv"
	"strings"
)

// reportParams are the query parameters of /reconcile and /export-report.
type reportParams struct {
	Limit  int    `validate:"gte=0"`
	Format string `validate:"oneof=csv xlsx"`
}

// parseIntValue parses an integer parameter. Empty or non-numeric values
// yield 0, which every caller treats as "not given".
func parseIntValue(val string) int {
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0
	}
	return i
}

// parseReportParams reads limit and format and validates them.
func (s *Server) parseReportParams(r *http.Request) (reportParams, error) {
	q := r.URL.Query()
	p := reportParams{
		Limit:  parseIntValue(q.Get("limit")),
		Format: strings.ToLower(strings.TrimSpace(q.Get("format"))),
	}
	if p.Format == "" {
		p.Format = "csv"
	}
	if err := s.validate.Struct(p); err != nil {
		return p, err
	}
	return p, nil
}

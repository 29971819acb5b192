// Package export renders agent performance tables as CSV or XLSX files.
package export

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
)

// AgentPerformanceHeader is the header row of every agent performance export.
var AgentPerformanceHeader = []string{
	"Agent Name",
	"Agent Email",
	"Previous 30 Days",
	"Current 30 Days",
	"Change",
}

// CSVContentType is served with CSV downloads.
const CSVContentType = "text/csv; charset=utf-8"

// AgentPerformanceCSV renders rows as CSV. The header is written bare;
// every data field is double-quoted with embedded quotes doubled.
func AgentPerformanceCSV(rows []domain.AgentPerformance) []byte {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(AgentPerformanceHeader, ","))
	buf.WriteByte('\n')

	for _, r := range rows {
		fields := performanceRow(r)
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(quote(f))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func performanceRow(r domain.AgentPerformance) []string {
	return []string{
		r.AgentName,
		r.AgentEmail,
		strconv.Itoa(r.PreviousPeriod),
		strconv.Itoa(r.CurrentPeriod),
		strconv.Itoa(r.Change()),
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

package templates

import "strings"

// Row is one line of the benchmark report, already formatted.
type Row struct {
	Name           string
	Scopes         string
	Watchers       string
	Avg            string
	Min            string
	P75            string
	P99            string
	Max            string
	EvalsPerDigest string
	Checksum       string
}

func (r Row) cells() []string {
	return []string{
		r.Name, r.Scopes, r.Watchers,
		r.Avg, r.Min, r.P75, r.P99, r.Max,
		r.EvalsPerDigest, r.Checksum,
	}
}

// markdownRow joins cells into a table row, escaping pipes.
func markdownRow(cells []string) string {
	var sb strings.Builder
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(strings.ReplaceAll(c, "|", `\|`))
		sb.WriteString(" |")
	}
	return sb.String()
}

var reportHeader = []string{
	"scenario", "scopes", "watchers",
	"avg", "min", "p75", "p99", "max",
	"evals/digest", "checksum",
}

func headerRow() string {
	return markdownRow(reportHeader)
}

func separatorRow() string {
	cells := make([]string, len(reportHeader))
	for i := range cells {
		cells[i] = "---"
	}
	return markdownRow(cells)
}

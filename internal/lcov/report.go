package lcov

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"trimlcov/internal/model"
)

// GenerateReport renders a plain-text summary of a filtering pass. Verbose
// reports list every suppressed record.
func GenerateReport(s model.Summary, verbose bool) string {
	var sb strings.Builder

	sb.WriteString("trimlcov report\n")
	sb.WriteString("===============\n")
	fmt.Fprintf(&sb, "Records read:       %d\n", s.RecordsRead)
	fmt.Fprintf(&sb, "Records kept:       %d\n", s.RecordsKept)
	fmt.Fprintf(&sb, "Source files:       %d\n", s.SourceFilesLoaded)
	fmt.Fprintf(&sb, "Line data (DA):     %d seen, %d suppressed\n", s.LineDataSeen, s.LineDataDropped)
	fmt.Fprintf(&sb, "Branch data (BRDA): %d seen, %d suppressed\n", s.BranchDataSeen, s.BranchDataDropped)

	if len(s.KeywordHits) > 0 {
		sb.WriteString("\nKeyword hits:\n")
		for _, kw := range slices.Sorted(maps.Keys(s.KeywordHits)) {
			fmt.Fprintf(&sb, "  %-24s %d\n", kw, s.KeywordHits[kw])
		}
	}

	if verbose && len(s.Suppressions) > 0 {
		sb.WriteString("\nSuppressed records:\n")
		for _, sup := range s.Suppressions {
			fmt.Fprintf(&sb, "  %s:%d  %s  %s\n", sup.Path, sup.Line, sup.Keyword, sup.Record)
		}
	}

	return sb.String()
}

type jsonReport struct {
	Version           string            `json:"version"`
	RecordsRead       int               `json:"records_read"`
	RecordsKept       int               `json:"records_kept"`
	SourceFilesLoaded int               `json:"source_files_loaded"`
	LineDataSeen      int               `json:"line_data_seen"`
	LineDataDropped   int               `json:"line_data_suppressed"`
	BranchDataSeen    int               `json:"branch_data_seen"`
	BranchDataDropped int               `json:"branch_data_suppressed"`
	KeywordHits       map[string]int    `json:"keyword_hits"`
	Suppressions      []jsonSuppression `json:"suppressions,omitempty"`
}

type jsonSuppression struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Keyword string `json:"keyword"`
	Record  string `json:"record"`
}

// GenerateJSONReport renders the summary as indented JSON. Verbose reports
// include every suppressed record.
func GenerateJSONReport(s model.Summary, verbose bool) ([]byte, error) {
	doc := jsonReport{
		Version:           model.Version,
		RecordsRead:       s.RecordsRead,
		RecordsKept:       s.RecordsKept,
		SourceFilesLoaded: s.SourceFilesLoaded,
		LineDataSeen:      s.LineDataSeen,
		LineDataDropped:   s.LineDataDropped,
		BranchDataSeen:    s.BranchDataSeen,
		BranchDataDropped: s.BranchDataDropped,
		KeywordHits:       s.KeywordHits,
	}
	if doc.KeywordHits == nil {
		doc.KeywordHits = map[string]int{}
	}
	if verbose {
		for _, sup := range s.Suppressions {
			doc.Suppressions = append(doc.Suppressions, jsonSuppression{
				Kind:    sup.Kind.String(),
				Path:    sup.Path,
				Line:    sup.Line,
				Keyword: sup.Keyword,
				Record:  sup.Record,
			})
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"lacuna/internal/gap"
)

// Renderer writes gap reports as JSON and Markdown
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *gap.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as a Markdown document
func (r *Renderer) RenderMarkdown(report *gap.Report, path string) error {
	var b strings.Builder

	b.WriteString("# Gap Analysis Report\n\n")

	b.WriteString("## Pillars\n\n")
	b.WriteString("| Pillar | Completeness | Requirements | No Evidence |\n")
	b.WriteString("|--------|-------------:|-------------:|------------:|\n")
	for _, p := range report.Pillars {
		fmt.Fprintf(&b, "| %s | %.1f%% | %d | %d |\n",
			p.Pillar, p.Completeness, p.Requirements, p.NoEvidence)
	}
	b.WriteString("\n")

	b.WriteString("## Requirements\n\n")
	b.WriteString("| Requirement | Completeness | Priority | Claims | Papers | Trend | Maturity |\n")
	b.WriteString("|-------------|-------------:|---------:|-------:|-------:|-------|----------|\n")
	for _, g := range report.Requirements {
		trend, maturity := "-", "-"
		if g.Temporal != nil {
			trend = string(g.Temporal.QualityTrend)
			maturity = string(g.Temporal.MaturityLevel)
		}
		fmt.Fprintf(&b, "| %s | %.1f%% | %.2f | %d | %d | %s | %s |\n",
			g.Requirement, g.Completeness, g.Priority, g.ClaimCount, g.PaperCount, trend, maturity)
	}
	b.WriteString("\n")

	var stale []string
	for _, g := range report.Requirements {
		if g.Decay != nil && g.Decay.StaleWarning {
			stale = append(stale, g.Requirement)
		}
	}
	if len(stale) > 0 {
		b.WriteString("## Stale Evidence\n\n")
		b.WriteString("Best evidence for these requirements has decayed below the freshness floor:\n\n")
		for _, req := range stale {
			fmt.Fprintf(&b, "- %s\n", req)
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderSummary prints the top gaps to w, highest priority first
func (r *Renderer) RenderSummary(w io.Writer, report *gap.Report) {
	fmt.Fprintf(w, "\nGap summary (%d requirements, %d pillars)\n\n",
		len(report.Requirements), len(report.Pillars))

	for _, p := range report.Pillars {
		fmt.Fprintf(w, "  %-30s %6.1f%% complete", p.Pillar, p.Completeness)
		if p.NoEvidence > 0 {
			fmt.Fprintf(w, "  (%d requirements with no evidence)", p.NoEvidence)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	shown := 0
	for _, g := range topPriority(report.Requirements, 5) {
		if shown == 0 {
			fmt.Fprintln(w, "  Top gaps to fill:")
		}
		fmt.Fprintf(w, "    %-20s priority %.2f, completeness %.1f%%\n",
			g.Requirement, g.Priority, g.Completeness)
		shown++
	}
	if shown > 0 {
		fmt.Fprintln(w)
	}
}

// topPriority returns up to n requirements ordered by descending priority
func topPriority(gaps []gap.RequirementGap, n int) []gap.RequirementGap {
	sorted := make([]gap.RequirementGap, len(gaps))
	copy(sorted, gaps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joelkehle/patent-research/internal/patentanalysis"
	"github.com/joelkehle/patent-research/internal/patentdoc"
)

// innovationGuide is the legend shown alongside the innovation level.
const innovationGuide = "BREAKTHROUGH: Novel mechanism/target, high commercial potential | INCREMENTAL: Improvement on existing, moderate novelty | DERIVATIVE: Minor variation, lifecycle management"

// BuildMarkdown renders a patent record and its analysis as a markdown
// report. Sections with nothing to say are dropped rather than emitted empty.
func BuildMarkdown(rec patentdoc.Record, analysis patentanalysis.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Patent Analysis Report\n\n")
	fmt.Fprintf(&b, "- Patent: %s\n", rec.PatentID)
	fmt.Fprintf(&b, "- Title: %s\n", sanitizeLine(rec.Title))
	if rec.Company != nil {
		fmt.Fprintf(&b, "- Assignee: %s\n", sanitizeLine(*rec.Company))
	}
	fmt.Fprintf(&b, "- Date: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(&b, "## Executive Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(analysis.Summary))

	if len(analysis.KeyInsights) > 0 && !analysis.Failed() {
		fmt.Fprintf(&b, "## Key Research Findings\n\n")
		for i, insight := range analysis.KeyInsights {
			fmt.Fprintf(&b, "%d. %s\n", i+1, sanitizeLine(insight))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Biological Target and Mechanism\n\n")
	fmt.Fprintf(&b, "- Molecular targets: %s\n", sanitizeLine(analysis.Biology.Targets))
	fmt.Fprintf(&b, "- Mechanism of action: %s\n", sanitizeLine(analysis.Biology.Mechanism))
	fmt.Fprintf(&b, "- Therapeutic indications: %s\n", sanitizeLine(analysis.Biology.Indications))
	fmt.Fprintf(&b, "- Assessment confidence: `%s`\n\n", analysis.Biology.Confidence)

	fmt.Fprintf(&b, "## Chemical Structure and Novelty\n\n")
	fmt.Fprintf(&b, "- Chemical series: %s\n", sanitizeLine(analysis.MedicinalChemistry.SeriesDescription))
	fmt.Fprintf(&b, "- Structural features: %s\n", sanitizeLine(analysis.MedicinalChemistry.KeyFeatures))
	if novelty := analysis.MedicinalChemistry.Novelty; novelty != "" && !strings.Contains(strings.ToLower(novelty), "not specified") {
		fmt.Fprintf(&b, "- Novelty assessment: %s\n", sanitizeLine(novelty))
	}
	fmt.Fprintf(&b, "- Assessment confidence: `%s`\n\n", analysis.MedicinalChemistry.Confidence)

	fmt.Fprintf(&b, "## Patent Disclosure Details\n\n")
	fmt.Fprintf(&b, "- Patent number: `%s`\n", rec.PatentID)
	fmt.Fprintf(&b, "- Assignee: %s\n", sanitizeLine(rec.CompanyName()))
	fmt.Fprintf(&b, "- Title: %s\n", sanitizeLine(rec.Title))
	if rec.Abstract != "" && rec.Abstract != patentdoc.NotAvailable {
		fmt.Fprintf(&b, "\nAbstract:\n\n")
		fmt.Fprintf(&b, "> %s\n", sanitizeLine(rec.Abstract))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Strategic Assessment\n\n")
	fmt.Fprintf(&b, "- Therapeutic area: **%s**\n", sanitizeLine(analysis.TherapeuticArea))
	fmt.Fprintf(&b, "- Innovation level: **%s** (%s)\n\n", analysis.InnovationLevel, innovationNote(analysis.InnovationLevel))
	fmt.Fprintf(&b, "%s\n\n", innovationGuide)

	fmt.Fprintf(&b, "## Appendix\n\n")
	fmt.Fprintf(&b, "### Analysis (JSON)\n\n```json\n%s\n```\n", prettyJSON(analysis))

	return b.String()
}

func innovationNote(level string) string {
	switch level {
	case "BREAKTHROUGH":
		return "novel approach, high strategic value"
	case "INCREMENTAL":
		return "optimization of existing, moderate impact"
	default:
		return "minor variation, follow-on patent"
	}
}

func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func sanitizeLine(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return "-"
	}
	return s
}

package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders the summary as a markdown document.
func (s *Summary) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Population %s\n\n", s.RunID)
	fmt.Fprintf(&b, "- Subjects: %d\n", s.TotalUsers)
	fmt.Fprintf(&b, "- Days per subject: %d\n", s.DaysPerSubject)
	fmt.Fprintf(&b, "- Seed: %d\n", s.Seed)
	if !s.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", s.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "- Stress events: %d\n", s.StressEvents)
	fmt.Fprintf(&b, "- Travel events: %d\n\n", s.TravelEvents)

	b.WriteString("## Chronotypes\n\n")
	b.WriteString("| Chronotype | Count | μ mean | τ mean (h) | τ 95% CI | Noise mean | Peak hour |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
	for _, c := range s.Classes {
		fmt.Fprintf(&b, "| %s | %d | %.3f ± %.3f | %.2f ± %.2f | %.2f to %.2f | %.3f | %.1f |\n",
			c.Class, c.Count, c.Mu.Mean, c.Mu.Std, c.Tau.Mean, c.Tau.Std, c.Tau.CI95Low, c.Tau.CI95High,
			c.NoiseLevel.Mean, c.PeakHour.Mean)
	}

	if len(s.MeanActivity) > 0 {
		b.WriteString("\n## Mean activity by variant\n\n")
		b.WriteString("| Variant | Mean | Std | Min | Max |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, name := range s.Variants() {
			d := s.MeanActivity[name]
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %.4f |\n", name, d.Mean, d.Std, d.Min, d.Max)
		}
	}
	return b.String()
}

// HTML renders the markdown report to a standalone HTML fragment.
func (s *Summary) HTML() string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(s.Markdown()), p, renderer))
}

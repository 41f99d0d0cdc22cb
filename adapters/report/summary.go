package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gridpulse/domain/pipeline"
)

// Summary renders a run's headline numbers as markdown: the missingness
// report, outlier counts and the top lag correlations.
func Summary(a *pipeline.Artifacts) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Pipeline run %s\n\n", a.RunID)
	fmt.Fprintf(&b, "Generated %s. %d indexed rows, %d sensors, hourly grid %d rows, daily grid %d rows.\n\n",
		a.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		a.Missing.Rows, len(a.Missing.Per), a.Hourly.Len(), a.Daily.Len())

	b.WriteString("## Missingness\n\n|sensor|missing|rate|\n|---|---|---|\n")
	for _, e := range a.Missing.Per {
		fmt.Fprintf(&b, "|%s|%d|%.4f|\n", e.Sensor, e.Count, e.Rate)
	}

	b.WriteString("\n## Outlier days\n\n|sensor|flagged|\n|---|---|\n")
	for _, s := range a.Outliers.Flags.Sensors {
		fmt.Fprintf(&b, "|%s|%d|\n", s, a.Outliers.Flags.TrueCount(s))
	}

	b.WriteString("\n## Strongest lagged correlations\n\n|pair|best lag (h)|corr|\n|---|---|---|\n")
	top := a.LagRanking
	if len(top) > 5 {
		top = top[:5]
	}
	for _, r := range top {
		lag := "-"
		if r.Lag != nil {
			lag = fmt.Sprintf("%d", *r.Lag)
		}
		corr := "-"
		if !math.IsNaN(r.Correlation) {
			corr = fmt.Sprintf("%.4f", r.Correlation)
		}
		fmt.Fprintf(&b, "|%s~%s|%s|%s|\n", r.A, r.B, lag, corr)
	}

	return b.String()
}

// RenderHTML converts the markdown summary to a standalone HTML document.
func RenderHTML(a *pipeline.Artifacts) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(Summary(a)))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	return markdown.Render(doc, renderer)
}

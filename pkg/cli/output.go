package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/fatih/color"
	"github.com/secmon-lab/plantops/pkg/domain/model"
)

var (
	titleColor = color.New(color.Bold)
	dimColor   = color.New(color.FgHiBlack)
	goodColor  = color.New(color.FgGreen)
	fairColor  = color.New(color.FgYellow)
	poorColor  = color.New(color.FgRed, color.Bold)
)

func scoreColor(score int) *color.Color {
	switch {
	case score >= 70:
		return goodColor
	case score >= 40:
		return fairColor
	default:
		return poorColor
	}
}

func formatScore(score int) string {
	return scoreColor(score).Sprintf("%3d", score)
}

// relativeTime renders t relative to now, e.g. "3 days ago"
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func printPlantList(w io.Writer, plants []*model.Plant, now time.Time) {
	if len(plants) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No plants registered yet."))
		return
	}

	for _, p := range plants {
		score := dimColor.Sprint("  -")
		observed := "never"
		if last := p.LatestEntry(); last != nil {
			score = formatScore(last.HealthScore)
			observed = relativeTime(last.Timestamp, now)
		}

		fmt.Fprintf(w, "%s  %s %s\n", score, titleColor.Sprint(p.Name), dimColor.Sprintf("(%s)", p.Species))
		fmt.Fprintf(w, "     %s  %s  %s\n",
			dimColor.Sprint(p.ID),
			english.Plural(len(p.Entries), "observation", "observations"),
			"last "+observed,
		)
	}
}

func printPlant(w io.Writer, p *model.Plant, now time.Time) {
	titleColor.Fprintf(w, "%s\n", p.Name)
	fmt.Fprintf(w, "  ID:        %s\n", p.ID)
	fmt.Fprintf(w, "  Species:   %s\n", p.Species)
	if p.Location != "" {
		fmt.Fprintf(w, "  Location:  %s\n", p.Location)
	}
	if p.SunExposure != "" {
		fmt.Fprintf(w, "  Sun:       %s\n", p.SunExposure)
	}
	if p.WateringFrequency != "" {
		fmt.Fprintf(w, "  Watering:  %s\n", p.WateringFrequency)
	}
	if p.SoilType != "" {
		fmt.Fprintf(w, "  Soil:      %s\n", p.SoilType)
	}
	fmt.Fprintf(w, "  Added:     %s\n", relativeTime(p.CreatedAt, now))
	if p.ThoughtSignature != "" {
		fmt.Fprintf(w, "  Memory:    %s\n", p.ThoughtSignature)
	}

	if len(p.Entries) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("  No observations recorded yet."))
		return
	}

	fmt.Fprintln(w)
	for _, e := range p.Entries {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			formatScore(e.HealthScore),
			e.Timestamp.UTC().Format("2006-01-02 15:04"),
			dimColor.Sprint(relativeTime(e.Timestamp, now)),
		)
		if e.UserNotes != "" {
			fmt.Fprintf(w, "       notes: %s\n", e.UserNotes)
		}
		if e.Analysis.CareSummary != "" {
			fmt.Fprintf(w, "       %s\n", e.Analysis.CareSummary)
		}
	}
}

func printAnalysis(w io.Writer, e *model.Entry) {
	a := e.Analysis
	fmt.Fprintf(w, "Health score: %s\n\n", formatScore(e.HealthScore))
	for _, section := range []struct{ title, body string }{
		{"Observation", a.Observation},
		{"Hypothesis", a.Hypothesis},
		{"Plan", a.Plan},
		{"Verification", a.Verification},
		{"Compared to before", a.ComparativeAnalysis},
		{"Summary", a.CareSummary},
	} {
		if strings.TrimSpace(section.body) == "" {
			continue
		}
		titleColor.Fprintln(w, section.title)
		fmt.Fprintf(w, "  %s\n\n", section.body)
	}
	printList(w, "Tips", a.OptimizationTips)
	printSources(w, a.Sources)
}

func printAudit(w io.Writer, r *model.QuickAuditResult) {
	titleColor.Fprintf(w, "%s", r.Species)
	fmt.Fprintf(w, " %s\n", dimColor.Sprintf("(confidence %s%%)", humanize.FtoaWithDigits(r.ConfidenceScore*100, 1)))
	fmt.Fprintf(w, "Status: %s\n\n", r.HealthStatus)
	printList(w, "Urgent care", r.UrgentCare)
	if r.LongTermAdvice != "" {
		titleColor.Fprintln(w, "Long-term")
		fmt.Fprintf(w, "  %s\n\n", r.LongTermAdvice)
	}
	if r.ScientificInsight != "" {
		titleColor.Fprintln(w, "Insight")
		fmt.Fprintf(w, "  %s\n\n", r.ScientificInsight)
	}
	printSources(w, r.Sources)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	titleColor.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
	fmt.Fprintln(w)
}

func printSources(w io.Writer, sources []model.GroundingSource) {
	if len(sources) == 0 {
		return
	}
	titleColor.Fprintln(w, "Sources")
	for _, s := range sources {
		fmt.Fprintf(w, "  %s %s\n", s.Title, dimColor.Sprint(s.URI))
	}
}

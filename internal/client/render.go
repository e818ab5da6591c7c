package client

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/maxpollack/Menu/internal/analysis"
	"github.com/maxpollack/Menu/internal/preferences"
)

// Stars renders a 1-5 rating as ★★★★☆. Unrated items get a dash.
func Stars(r analysis.Rating) string {
	if r <= 0 {
		return "-----"
	}
	n := int(r)
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

type renderer struct {
	w   io.Writer
	err error
}

func (r *renderer) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// Render prints a result grouped by suitability. Items the diner already
// rated are marked with their feedback status.
func Render(w io.Writer, res analysis.Result, fb preferences.Feedback) error {
	r := &renderer{w: w}

	if res.IsRaw() {
		r.printf("The analysis could not be structured. Model response:\n\n%s\n", res.RawResponse)
		return r.err
	}

	if res.Summary != "" {
		r.printf("%s\n\n", res.Summary)
	}
	if res.OverallCompatibility > 0 {
		score := float64(res.OverallCompatibility)
		r.printf("Overall compatibility: %s %.1f/5\n\n",
			Stars(analysis.Rating(math.Round(score))), score)
	}

	groups := []struct {
		title string
		items []analysis.Item
	}{
		{"Suitable", res.SuitableItems},
		{"Ask first", res.NeutralItems},
		{"Avoid", res.UnsuitableItems},
	}
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		r.printf("%s (%d)\n", g.title, len(g.items))
		for _, it := range g.items {
			r.printf("  %s  %s", Stars(it.Rating), it.Name)
			if mark := feedbackMark(fb, it.Name); mark != "" {
				r.printf(" %s", mark)
			}
			r.printf("\n")
			if it.Reason != "" {
				r.printf("         %s\n", it.Reason)
			}
			if loc := location(it); loc != "" {
				r.printf("         at %s\n", loc)
			}
		}
		r.printf("\n")
	}

	if len(res.Recommendations) > 0 {
		r.printf("Recommended\n")
		for i, rec := range res.Recommendations {
			r.printf("  %d. %s %s", i+1, rec.Name, Stars(rec.Rating))
			if rec.Reason != "" {
				r.printf(": %s", rec.Reason)
			}
			r.printf("\n")
		}
		r.printf("\n")
	}

	if len(res.MenuSections) > 0 {
		r.printf("Sections\n")
		for _, s := range res.MenuSections {
			r.printf("  %-20s %-8s %s\n", s.Section, s.Compatibility, s.Description)
		}
	}

	return r.err
}

func feedbackMark(fb preferences.Feedback, name string) string {
	switch fb.StatusOf(name) {
	case preferences.Liked:
		return "(liked)"
	case preferences.Disliked:
		return "(disliked)"
	default:
		return ""
	}
}

func location(it analysis.Item) string {
	var parts []string
	if it.Location != "" {
		parts = append(parts, it.Location)
	}
	if b := it.BBox; b != nil {
		parts = append(parts, fmt.Sprintf("x %.0f%% y %.0f%%, %.0fx%.0f%%", b.X, b.Y, b.Width, b.Height))
	}
	return strings.Join(parts, "; ")
}

// ItemNames lists every rated item in display order. The CLI remembers them
// so dishes can be liked or disliked after the analysis.
func ItemNames(res analysis.Result) []string {
	var names []string
	for _, group := range [][]analysis.Item{res.SuitableItems, res.NeutralItems, res.UnsuitableItems} {
		for _, it := range group {
			names = append(names, it.Name)
		}
	}
	return names
}

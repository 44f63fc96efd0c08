// Package components provides reusable UI components for the TUI.
package components

import (
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/xiello/opencode-usage/internal/models"
	"github.com/xiello/opencode-usage/internal/ui/styles"
)

// SeriesValues expands per-minute buckets into a dense token series covering
// the trailing window, filling minutes without activity with zeros so the
// chart's x axis stays linear in time.
func SeriesValues(points []models.TimeSeriesPoint, now time.Time, window time.Duration) []float64 {
	if window <= 0 {
		return nil
	}

	end := now.Truncate(time.Minute)
	minutes := int(window / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	start := end.Add(-time.Duration(minutes-1) * time.Minute)

	values := make([]float64, minutes)
	for _, p := range points {
		if p.Minute.Before(start) || p.Minute.After(end) {
			continue
		}
		idx := int(p.Minute.Sub(start) / time.Minute)
		values[idx] = float64(p.Tokens)
	}

	return values
}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

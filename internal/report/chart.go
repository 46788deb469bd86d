// Package report renders replayed recordings: an interactive column selector
// and a terminal line chart of the chosen series.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/bobolobo/perfmonitor/internal/replay"
)

// ErrNoData is returned by Chart when no selected series has a value.
var ErrNoData = errors.New("no values to plot")

// Chart options. Zero values pick asciigraph's defaults.
type Options struct {
	Height int
	Width  int
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow,
	asciigraph.Magenta, asciigraph.Cyan, asciigraph.Orange, asciigraph.Purple,
}

// Title is the chart heading for a recording of rows ticks at interval.
func Title(rows int, interval time.Duration) string {
	hours := (time.Duration(rows) * interval).Hours()
	return "Memory utilization ran for " + strconv.FormatFloat(hours, 'f', -1, 64) + " hour(s)"
}

// MB converts a byte count to megabytes. NaN stays NaN.
func MB(v float64) float64 { return v / (1 << 20) }

// Chart plots series in megabytes, followed by a legend.
func Chart(w io.Writer, title string, series []replay.Series, opts Options) error {
	var (
		data  [][]float64
		names []string
	)
	for _, s := range series {
		pts := make([]float64, len(s.Points))
		ok := false
		for i, v := range s.Points {
			pts[i] = MB(v)
			if !math.IsNaN(v) {
				ok = true
			}
		}
		if !ok {
			continue
		}
		data = append(data, pts)
		names = append(names, s.Name)
	}
	if len(data) == 0 {
		return ErrNoData
	}

	chartOpts := []asciigraph.Option{
		asciigraph.Caption("MB"),
		asciigraph.SeriesColors(seriesColors[:min(len(data), len(seriesColors))]...),
	}
	if opts.Height > 0 {
		chartOpts = append(chartOpts, asciigraph.Height(opts.Height))
	}
	if opts.Width > 0 {
		chartOpts = append(chartOpts, asciigraph.Width(opts.Width))
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(asciigraph.PlotMany(data, chartOpts...))
	b.WriteString("\n\n")
	for i, name := range names {
		c := seriesColors[i%len(seriesColors)]
		fmt.Fprintf(&b, "%s■%s %s\n", c, asciigraph.Default, name)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

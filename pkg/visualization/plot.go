// Package visualization renders the static images kept next to each image
// set for quality control: the mask preview and the per-image intensity
// plot. Nothing here feeds back into the numbers.
package visualization

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"implantprofile/pkg/profile"
)

// PlotSuffix ends the file name of a per-image intensity plot
const PlotSuffix = "_intensity-plot.png"

// Plot dimensions in pixels
const (
	PlotWidth  = 1000
	PlotHeight = 600
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	{R: 128, G: 0, B: 128, A: 255},
	{R: 0, G: 128, B: 128, A: 255},
}

// SavePNG writes img to path as PNG
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return err
	}
	return file.Close()
}

// PlotProfiles draws the fine-bin means of every channel against the upper
// edge of its bin. Empty bins are left out of the line.
func PlotProfiles(title string, edges []float64, profiles []profile.Profile) ([]byte, error) {
	var series []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)

	for i, p := range profiles {
		var xs, ys []float64
		for j, v := range p.Fine {
			if j >= len(edges) || math.IsNaN(v) {
				continue
			}
			xs = append(xs, edges[j])
			ys = append(ys, v)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if len(xs) < 2 {
			continue
		}

		series = append(series, chart.ContinuousSeries{
			Name:    p.Channel,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2.0,
			},
		})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("no channel has enough populated bins to plot")
	}
	if hi == lo {
		hi = lo + 1
	}

	graph := chart.Chart{
		Title:  title,
		Width:  PlotWidth,
		Height: PlotHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name: "Distance (micron)",
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "Intensity",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render plot: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveProfilePlot renders PlotProfiles to path
func SaveProfilePlot(path, title string, edges []float64, profiles []profile.Profile) error {
	data, err := PlotProfiles(title, edges, profiles)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

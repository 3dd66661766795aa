// Package chart renders station time series to PNG line charts for delivery
// as message attachments.
package chart

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/TechnoConserve/discord-cfs/internal/usgs"
)

// ErrRender is returned when chart generation or PNG export fails. No partial
// image file is left behind.
var ErrRender = errors.New("chart: render failed")

const (
	chartWidth  = 800
	chartHeight = 250

	yAxisLabel = "Streamflow Rate, Cubic Feet/Second"
)

// Semi-transparent navy, matching the bot's embed styling.
var lineColor = drawing.Color{R: 0, G: 0, B: 128, A: 128}

// Artifact is one rendered chart on disk.
type Artifact struct {
	StationID int64
	Title     string
	Path      string
}

// Renderer writes station line charts into a transient working directory,
// one PNG per station, named by site code.
type Renderer struct {
	dir    string
	logger *slog.Logger
}

func NewRenderer(dir string, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, logger: logger}
}

// RenderBundle renders one chart per qualifying series in bundle order.
// Only streamflow series qualify; other variables in the same response (gage
// height and so on) are skipped, as are series too short to draw a line.
// titleFor supplies the chart title for a series.
func (r *Renderer) RenderBundle(bundle usgs.Bundle, titleFor func(usgs.StationSeries) string) ([]Artifact, error) {
	var out []Artifact
	for _, series := range bundle.Series {
		if !series.IsStreamflow() {
			r.logger.Debug("skipping non-streamflow series",
				"station", series.StationID, "variable", series.Variable)
			continue
		}
		if len(series.Readings) < 2 {
			r.logger.Warn("not enough readings to chart, skipping",
				"station", series.StationID, "readings", len(series.Readings))
			continue
		}
		artifact, err := r.renderSeries(series, titleFor(series))
		if err != nil {
			return nil, err
		}
		out = append(out, artifact)
	}
	return out, nil
}

func (r *Renderer) renderSeries(series usgs.StationSeries, title string) (Artifact, error) {
	times := make([]float64, len(series.Readings))
	values := make([]float64, len(series.Readings))
	for i, reading := range series.Readings {
		times[i] = gochart.TimeToFloat64(reading.Time)
		values[i] = reading.Value
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		YAxis: gochart.YAxis{
			Name: yAxisLabel,
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Style: gochart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2.0,
				},
				XValues: times,
				YValues: values,
			},
		},
	}

	path := filepath.Join(r.dir, usgs.FormatSiteID(series.StationID)+".png")
	f, err := os.Create(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: create %s: %v", ErrRender, path, err)
	}

	if err := graph.Render(gochart.PNG, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return Artifact{}, fmt.Errorf("%w: station %d: %v", ErrRender, series.StationID, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return Artifact{}, fmt.Errorf("%w: close %s: %v", ErrRender, path, err)
	}

	r.logger.Debug("chart rendered", "station", series.StationID, "path", path)
	return Artifact{StationID: series.StationID, Title: title, Path: path}, nil
}

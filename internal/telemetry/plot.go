package telemetry

import (
	"fmt"
	"github.com/guptarohit/asciigraph"
	"github.com/pterm/pterm"
	"sync"
)

const DefaultMaxEntries = 100

// PlotSink draws the most recent points of both series as a live terminal graph
type PlotSink struct {
	title      string
	maxEntries int

	mu       sync.Mutex
	measured []Point
	command  []Point
	area     *pterm.AreaPrinter
}

func NewPlotSink(title string, maxEntries int) *PlotSink {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &PlotSink{
		title:      title,
		maxEntries: maxEntries,
	}
}

// Start attaches the sink to a terminal area that is redrawn on every new command point
func (s *PlotSink) Start() error {
	area, err := pterm.DefaultArea.Start()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.area = area
	s.mu.Unlock()
	return nil
}

func (s *PlotSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.area == nil {
		return nil
	}
	err := s.area.Stop()
	s.area = nil
	return err
}

func (s *PlotSink) Add(series Series, point Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch series {
	case SeriesMeasured:
		s.measured = appendBounded(s.measured, point, s.maxEntries)
	case SeriesCommand:
		s.command = appendBounded(s.command, point, s.maxEntries)
		if s.area != nil {
			s.area.Update(s.render())
		}
	}
}

// Points returns a copy of the retained points of a series
func (s *PlotSink) Points(series Series) []Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	var source []Point
	switch series {
	case SeriesMeasured:
		source = s.measured
	case SeriesCommand:
		source = s.command
	}
	result := make([]Point, len(source))
	copy(result, source)
	return result
}

// Render returns the current graph, or an empty string if there is nothing to draw yet
func (s *PlotSink) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render()
}

func (s *PlotSink) render() string {
	return RenderGraph(s.title, values(s.measured), values(s.command))
}

// RenderGraph plots measured and command values into a single graph
func RenderGraph(title string, measured []float64, command []float64) string {
	var data [][]float64
	if len(measured) > 0 {
		data = append(data, measured)
	}
	if len(command) > 0 {
		data = append(data, command)
	}
	if len(data) <= 0 {
		return ""
	}

	caption := fmt.Sprintf("%s (%s: blue, %s: red)", title, SeriesMeasured, SeriesCommand)
	return asciigraph.PlotMany(
		data,
		asciigraph.Height(15),
		asciigraph.Width(100),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
	)
}

func appendBounded(points []Point, point Point, maxEntries int) []Point {
	points = append(points, point)
	if len(points) > maxEntries {
		points = points[len(points)-maxEntries:]
	}
	return points
}

func values(points []Point) []float64 {
	result := make([]float64, len(points))
	for i, p := range points {
		result[i] = p.Value
	}
	return result
}

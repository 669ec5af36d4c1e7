package telemetry

type Series string

const (
	SeriesMeasured Series = "measured"
	SeriesCommand  Series = "command"
)

// Point is a single telemetry value, Elapsed is measured in seconds since the loop started
type Point struct {
	Elapsed float64 `json:"elapsed"`
	Value   float64 `json:"value"`
}

// Sink consumes telemetry points. Implementations must not block the caller for long,
// use AsyncSink to decouple slow sinks.
type Sink interface {
	Add(series Series, point Point)
}

// MultiSink forwards every point to all of its sinks
type MultiSink []Sink

func (m MultiSink) Add(series Series, point Point) {
	for _, sink := range m {
		sink.Add(series, point)
	}
}

// Discard drops all points
var Discard Sink = discard{}

type discard struct{}

func (discard) Add(Series, Point) {}

package statistics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "daq2go"
)

// Register registers all collectors, stopping at the first one that fails
func Register(registerer prometheus.Registerer, collectors ...prometheus.Collector) error {
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

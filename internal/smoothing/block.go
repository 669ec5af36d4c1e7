package smoothing

import "github.com/markusressel/daq2go/internal/util"

// BlockAverage splits data into consecutive chunks of length step and returns the mean
// of each chunk in order. The last chunk is shorter if len(data) is not a multiple of step.
// A step <= 0 averages the whole input as a single chunk.
func BlockAverage(data []float64, step int) []float64 {
	if len(data) <= 0 {
		return []float64{}
	}
	if step <= 0 {
		step = len(data)
	}

	result := make([]float64, 0, (len(data)+step-1)/step)
	for start := 0; start < len(data); start += step {
		end := start + step
		if end > len(data) {
			end = len(data)
		}
		result = append(result, util.Avg(data[start:end]))
	}
	return result
}

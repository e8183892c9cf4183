package pipeline

import (
	"cmp"
	"math"
	"slices"

	"github.com/hed1ad/affguard/pkg/detectors"
	"github.com/hed1ad/affguard/pkg/detectors/iforest"
)

// Partition is the slice of stage-2 rows belonging to one country.
type Partition struct {
	Country string
	Rows    []Row
}

// PartitionByCountry splits rows into per-country partitions sorted by country.
// Row order inside a partition follows the input order.
func PartitionByCountry(rows []Row) []Partition {
	index := make(map[string]int)
	var parts []Partition
	for _, row := range rows {
		i, ok := index[row.Key.Country]
		if !ok {
			i = len(parts)
			index[row.Key.Country] = i
			parts = append(parts, Partition{Country: row.Key.Country})
		}
		parts[i].Rows = append(parts[i].Rows, row)
	}
	slices.SortFunc(parts, func(a, b Partition) int {
		return cmp.Compare(a.Country, b.Country)
	})
	return parts
}

// FeatureMatrix projects rows onto the given measures as float64 columns.
func FeatureMatrix(rows []Row, measures []Measure) [][]float64 {
	matrix := make([][]float64, len(rows))
	for i, row := range rows {
		matrix[i] = make([]float64, len(measures))
		for j, m := range measures {
			matrix[i][j] = row.Values[m].InexactFloat64()
		}
	}
	return matrix
}

// ImputeMedian returns a copy of matrix with NaN cells replaced by the median
// of their column. A column with no values at all is filled with zero.
func ImputeMedian(matrix [][]float64) [][]float64 {
	if len(matrix) == 0 {
		return nil
	}
	width := len(matrix[0])

	medians := make([]float64, width)
	column := make([]float64, 0, len(matrix))
	for j := 0; j < width; j++ {
		column = column[:0]
		for _, row := range matrix {
			if !math.IsNaN(row[j]) {
				column = append(column, row[j])
			}
		}
		medians[j] = median(column)
	}

	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = make([]float64, width)
		for j, v := range row {
			if math.IsNaN(v) {
				v = medians[j]
			}
			out[i][j] = v
		}
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// DetectorFactory builds a fresh, untrained detector for one partition.
type DetectorFactory func(cfg detectors.Config) detectors.Detector

// NewIsolationForest is the default DetectorFactory.
func NewIsolationForest(cfg detectors.Config) detectors.Detector {
	return iforest.New(iforest.FromConfig(cfg)...)
}

// Scorer fits an independent detector per partition.
type Scorer struct {
	Config   detectors.Config
	Features []Measure
	Factory  DetectorFactory
}

// ScorePartition returns one decision-function value per partition row,
// aligned with p.Rows.
func (s Scorer) ScorePartition(p Partition) ([]float64, error) {
	factory := s.Factory
	if factory == nil {
		factory = NewIsolationForest
	}

	matrix := ImputeMedian(FeatureMatrix(p.Rows, s.Features))
	det := factory(s.Config)
	if err := det.Fit(matrix); err != nil {
		return nil, err
	}
	return det.Score(matrix)
}

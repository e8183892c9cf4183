// Package detectors provides unsupervised anomaly detection algorithms.
package detectors

// Detector is the common interface for all anomaly detection algorithms.
type Detector interface {
	// Fit trains the detector on a feature matrix.
	// data is a 2D slice where each row is a sample and each column is a feature.
	Fit(data [][]float64) error

	// Score returns the decision function for the given samples.
	// Higher values are more normal; negative values are outliers.
	Score(data [][]float64) ([]float64, error)
}

// ContaminationAuto selects the fixed offset of the original isolation forest paper
// instead of deriving the outlier threshold from the training scores.
const ContaminationAuto = 0

// Config holds common configuration for detectors.
type Config struct {
	// Trees is the number of estimators in the ensemble.
	Trees int
	// MaxSamples caps the subsample drawn for each estimator.
	MaxSamples int
	// Contamination is the expected proportion of anomalies in training data,
	// or ContaminationAuto.
	Contamination float64
	// RandomSeed for reproducibility.
	RandomSeed int64
}

// DefaultConfig returns sensible defaults for detector configuration.
func DefaultConfig() Config {
	return Config{
		Trees:         100,
		MaxSamples:    256,
		Contamination: ContaminationAuto,
		RandomSeed:    42,
	}
}

package detectors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hed1ad/affguard/pkg/detectors"
	"github.com/hed1ad/affguard/pkg/detectors/iforest"
)

// constant scores every sample the same and needs no persistence support.
type constant struct{}

func (constant) Fit([][]float64) error { return nil }

func (constant) Score(data [][]float64) ([]float64, error) {
	return make([]float64, len(data)), nil
}

func TestDetectorRequiresOnlyFitAndScore(t *testing.T) {
	var d detectors.Detector = constant{}
	assert.NoError(t, d.Fit([][]float64{{1}}))
	scores, err := d.Score([][]float64{{1}, {2}})
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)

	d = iforest.New()
	assert.NotNil(t, d)
}

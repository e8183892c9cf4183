package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hed1ad/affguard/pkg/detectors"
)

func TestPartitionByCountry(t *testing.T) {
	rows := []Row{
		{Key: Key{Country: "SE", AffiliateID: "1"}},
		{Key: Key{Country: "AT", AffiliateID: "2"}},
		{Key: Key{Country: "SE", AffiliateID: "3"}},
	}

	parts := PartitionByCountry(rows)
	require.Len(t, parts, 2)
	assert.Equal(t, "AT", parts[0].Country)
	assert.Equal(t, "SE", parts[1].Country)
	require.Len(t, parts[1].Rows, 2)
	assert.Equal(t, "1", parts[1].Rows[0].Key.AffiliateID)
	assert.Equal(t, "3", parts[1].Rows[1].Key.AffiliateID)
}

func TestFeatureMatrix(t *testing.T) {
	rows := []Row{
		{Values: Measures{DepositsCount: dec("2"), DepositAmount: dec("1.5"), PlayerCount: dec("6")}},
	}
	m := FeatureMatrix(rows, Stage2Spec.Measures())
	require.Len(t, m, 1)
	assert.Equal(t, []float64{2, 1.5, 0, 0, 0, 0, 6}, m[0])
}

func TestImputeMedian(t *testing.T) {
	nan := math.NaN()
	in := [][]float64{
		{1, nan, nan},
		{3, 10, nan},
		{nan, 20, nan},
		{5, 40, nan},
	}

	out := ImputeMedian(in)
	assert.Equal(t, []float64{1, 20, 0}, out[0])
	assert.Equal(t, []float64{3, 10, 0}, out[1])
	assert.Equal(t, []float64{3, 20, 0}, out[2])
	assert.True(t, math.IsNaN(in[0][1]), "input is not modified")

	assert.Nil(t, ImputeMedian(nil))
}

func TestScorePartition(t *testing.T) {
	part := Partition{Country: "DE", Rows: []Row{
		{Key: Key{AffiliateID: "1"}, Values: Measures{DepositAmount: dec("100"), PlayerCount: dec("6")}},
		{Key: Key{AffiliateID: "2"}, Values: Measures{DepositAmount: dec("110"), PlayerCount: dec("7")}},
		{Key: Key{AffiliateID: "3"}, Values: Measures{DepositAmount: dec("105"), PlayerCount: dec("6")}},
		{Key: Key{AffiliateID: "4"}, Values: Measures{DepositAmount: dec("95"), PlayerCount: dec("7")}},
		{Key: Key{AffiliateID: "5"}, Values: Measures{DepositAmount: dec("90000"), PlayerCount: dec("60")}},
	}}
	s := Scorer{Config: detectors.DefaultConfig(), Features: Stage2Spec.Measures()}

	scores, err := s.ScorePartition(part)
	require.NoError(t, err)
	require.Len(t, scores, len(part.Rows))

	for i := 0; i < 4; i++ {
		assert.Less(t, scores[4], scores[i], "the outlier scores lowest")
	}

	again, err := s.ScorePartition(part)
	require.NoError(t, err)
	assert.Equal(t, scores, again)
}

func TestScorePartitionIsIndependent(t *testing.T) {
	de := Partition{Country: "DE", Rows: []Row{
		{Values: Measures{DepositAmount: dec("1"), PlayerCount: dec("6")}},
		{Values: Measures{DepositAmount: dec("2"), PlayerCount: dec("6")}},
		{Values: Measures{DepositAmount: dec("50"), PlayerCount: dec("6")}},
	}}
	other := Partition{Country: "SE", Rows: []Row{
		{Values: Measures{DepositAmount: dec("9000"), PlayerCount: dec("100")}},
	}}
	s := Scorer{Config: detectors.DefaultConfig(), Features: Stage2Spec.Measures()}

	alone, err := s.ScorePartition(de)
	require.NoError(t, err)
	_, err = s.ScorePartition(other)
	require.NoError(t, err)
	after, err := s.ScorePartition(de)
	require.NoError(t, err)

	assert.Equal(t, alone, after)
}

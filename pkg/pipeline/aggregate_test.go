package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hed1ad/affguard/pkg/dataset"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rowOf(country, affiliate, period string, rec dataset.RawRecord) Row {
	return Row{
		Key:    Key{Country: country, AffiliateID: affiliate, Period: period},
		Values: measuresOf(rec),
	}
}

func TestStage1(t *testing.T) {
	rows := []Row{
		rowOf("DE", "10", "P1", dataset.RawRecord{PlayerID: "a", DepositsCount: 2, DepositAmount: dec("10.10"), CPA: dec("5")}),
		rowOf("DE", "10", "P1", dataset.RawRecord{PlayerID: "b", DepositsCount: 1, DepositAmount: dec("0.20"), RS: dec("-1")}),
		rowOf("DE", "10", "P1", dataset.RawRecord{PlayerID: "", DepositsCount: 4}),
		rowOf("DE", "9", "P1", dataset.RawRecord{PlayerID: "c", BonusAmount: dec("3")}),
		rowOf("AT", "10", "P2", dataset.RawRecord{PlayerID: "d", CommissionAmount: dec("7")}),
	}

	out := Stage1(rows)
	require.Len(t, out, 3)

	// Sorted by country, then numeric affiliate ID.
	assert.Equal(t, Key{Country: "AT", AffiliateID: "10", Period: "P2"}, out[0].Key)
	assert.Equal(t, Key{Country: "DE", AffiliateID: "9", Period: "P1"}, out[1].Key)
	assert.Equal(t, Key{Country: "DE", AffiliateID: "10", Period: "P1"}, out[2].Key)

	g := out[2].Values
	assert.True(t, dec("7").Equal(g[DepositsCount]))
	assert.True(t, dec("10.30").Equal(g[DepositAmount]))
	assert.True(t, dec("5").Equal(g[CPA]))
	assert.True(t, dec("-1").Equal(g[RS]))
	// The row without a player ID is summed but not counted.
	assert.True(t, dec("2").Equal(g[PlayerCount]))
}

func TestClassifyAndStage2(t *testing.T) {
	stage1 := []Row{
		{Key: Key{Country: "DE", AffiliateID: "1", Period: "P"}, Values: Measures{CPA: dec("5"), PlayerCount: dec("3"), DepositAmount: dec("1")}},
		{Key: Key{Country: "DE", AffiliateID: "1", Period: "Q"}, Values: Measures{RS: dec("2"), PlayerCount: dec("4")}},
	}

	classified := Classify(stage1)
	assert.Equal(t, DealCPA, classified[0].Key.Deal)
	assert.Equal(t, DealRS, classified[1].Key.Deal)
	assert.Empty(t, stage1[0].Key.Deal, "input rows are not modified")

	out := Stage2(classified)
	require.Len(t, out, 2)
	assert.True(t, dec("3").Equal(out[0].Values[PlayerCount]), "player counts are summed, not recounted")
	assert.True(t, out[0].Values[CPA].IsZero(), "CPA is not carried past classification")
	assert.True(t, out[1].Values[RS].IsZero(), "RS is not carried past classification")
	assert.True(t, dec("1").Equal(out[0].Values[DepositAmount]))
}

func TestStage2MergesEqualKeys(t *testing.T) {
	k := Key{Country: "DE", AffiliateID: "1", Period: "P", Deal: DealCPA}
	rows := []Row{
		{Key: k, Values: Measures{PlayerCount: dec("3"), BetsAmount: dec("10")}},
		{Key: k, Values: Measures{PlayerCount: dec("4"), BetsAmount: dec("5")}},
	}

	out := Stage2(rows)
	require.Len(t, out, 1)
	assert.True(t, dec("7").Equal(out[0].Values[PlayerCount]))
	assert.True(t, dec("15").Equal(out[0].Values[BetsAmount]))
}

func TestFilterMinPlayers(t *testing.T) {
	rows := []Row{
		{Key: Key{AffiliateID: "five"}, Values: Measures{PlayerCount: dec("5")}},
		{Key: Key{AffiliateID: "six"}, Values: Measures{PlayerCount: dec("6")}},
		{Key: Key{AffiliateID: "zero"}},
	}

	out := FilterMinPlayers(rows, DefaultMinPlayers)
	require.Len(t, out, 1)
	assert.Equal(t, "six", out[0].Key.AffiliateID)

	for _, row := range out {
		assert.True(t, row.Values[PlayerCount].GreaterThan(dec("5")))
	}
}

func TestAggSpecMeasures(t *testing.T) {
	assert.Equal(t, []Measure{
		DepositsCount, DepositAmount, BetsAmount, CompanyProfit,
		CommissionAmount, BonusAmount, PlayerCount,
	}, Stage2Spec.Measures())
	assert.Len(t, Stage1Spec.Measures(), int(numMeasures))
}

func TestCompareIDs(t *testing.T) {
	assert.Equal(t, -1, compareIDs("9", "10"))
	assert.Equal(t, 1, compareIDs("b", "a"))
	assert.Equal(t, -1, compareIDs("100", "a"))
	assert.Equal(t, 0, compareIDs("x", "x"))
}

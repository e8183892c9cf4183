package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/hed1ad/affguard/pkg/dataset"
)

// Measure identifies a numeric column carried through aggregation.
type Measure int

const (
	DepositsCount Measure = iota
	DepositAmount
	BetsAmount
	CompanyProfit
	RS
	CPA
	CommissionAmount
	BonusAmount
	PlayerCount

	numMeasures
)

// ColPlayerCount is the output column holding the number of player events.
const ColPlayerCount = "Player count"

var measureNames = [numMeasures]string{
	DepositsCount:    dataset.ColDepositsCount,
	DepositAmount:    dataset.ColDepositAmount,
	BetsAmount:       dataset.ColBetsAmount,
	CompanyProfit:    dataset.ColCompanyProfit,
	RS:               dataset.ColRS,
	CPA:              dataset.ColCPA,
	CommissionAmount: dataset.ColCommissionAmount,
	BonusAmount:      dataset.ColBonusAmount,
	PlayerCount:      ColPlayerCount,
}

// String returns the column name of the measure.
func (m Measure) String() string {
	if m < 0 || m >= numMeasures {
		return "unknown"
	}
	return measureNames[m]
}

// Integral reports whether the measure is a count.
func (m Measure) Integral() bool {
	return m == DepositsCount || m == PlayerCount
}

// Measures holds one value per Measure.
type Measures [numMeasures]decimal.Decimal

// measuresOf lifts a raw record into measure space. PlayerCount is 1 when the
// record names a player, so counting non-zero values counts player IDs.
func measuresOf(rec dataset.RawRecord) Measures {
	var m Measures
	m[DepositsCount] = decimal.NewFromInt(rec.DepositsCount)
	m[DepositAmount] = rec.DepositAmount
	m[BetsAmount] = rec.BetsAmount
	m[CompanyProfit] = rec.CompanyProfit
	m[RS] = rec.RS
	m[CPA] = rec.CPA
	m[CommissionAmount] = rec.CommissionAmount
	m[BonusAmount] = rec.BonusAmount
	if rec.PlayerID != "" {
		m[PlayerCount] = decimal.NewFromInt(1)
	}
	return m
}

// Package dataset defines the affiliate activity records the pipeline consumes,
// the input column contract, and the tabular sheets it produces.
package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

// Input column names. These are the external contract of the export.
const (
	ColFirstDeposit     = "First deposit date"
	ColDepositsCount    = "Deposits count"
	ColDepositAmount    = "Deposit amount"
	ColBetsAmount       = "Bets amount"
	ColCompanyProfit    = "Company profit (total)"
	ColRS               = "RS"
	ColCPA              = "CPA"
	ColCommissionAmount = "Commission amount"
	ColBonusAmount      = "Bonus amount"
	ColAffiliateID      = "Affiliate ID"
	ColPlayerID         = "Player ID"
	ColCountry          = "Country"
)

// RequiredColumns lists every column a loader must find in the header row.
var RequiredColumns = []string{
	ColFirstDeposit,
	ColDepositsCount,
	ColDepositAmount,
	ColBetsAmount,
	ColCompanyProfit,
	ColRS,
	ColCPA,
	ColCommissionAmount,
	ColBonusAmount,
	ColAffiliateID,
	ColPlayerID,
	ColCountry,
}

// RawRecord is one player/affiliate event from the export.
type RawRecord struct {
	Country     string
	AffiliateID string
	PlayerID    string

	// FirstDeposit is nil when the export has no date for the player.
	// Time of day is always zero.
	FirstDeposit *time.Time

	DepositsCount    int64
	DepositAmount    decimal.Decimal
	BetsAmount       decimal.Decimal
	CompanyProfit    decimal.Decimal
	RS               decimal.Decimal
	CPA              decimal.Decimal
	CommissionAmount decimal.Decimal
	BonusAmount      decimal.Decimal
}

// HasDate reports whether the record carries a first-deposit date.
func (r RawRecord) HasDate() bool {
	return r.FirstDeposit != nil
}

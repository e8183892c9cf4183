package pipeline

import "github.com/shopspring/decimal"

// DealType classifies an affiliate's commission structure for a period.
type DealType string

const (
	DealCPA   DealType = "CPA"
	DealRS    DealType = "RS"
	DealMixed DealType = "CPA+RS"
	DealNone  DealType = "None"
)

// ClassifyDeal maps summed CPA and RS amounts to a deal type.
func ClassifyDeal(cpa, rs decimal.Decimal) DealType {
	switch {
	case !cpa.IsZero() && rs.IsZero():
		return DealCPA
	case !rs.IsZero() && cpa.IsZero():
		return DealRS
	case !rs.IsZero() && !cpa.IsZero():
		return DealMixed
	default:
		return DealNone
	}
}

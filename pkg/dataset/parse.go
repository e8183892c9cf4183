package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order for textual date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006",
	"02.01.2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/06 15:04",
	"01-02-06",
	"20060102",
}

// maxExcelSerial is the serial number of 9999-12-31, the last date Excel stores.
const maxExcelSerial = 2958465

// Header maps column names to their position in a row.
type Header map[string]int

// NewHeader indexes a header row and checks that every required column exists.
// Cell text is trimmed; the first occurrence of a duplicated name wins.
func NewHeader(cells []string) (Header, error) {
	h := make(Header, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if _, ok := h[name]; !ok {
			h[name] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := h[col]; !ok {
			return nil, &InputError{Column: col, Err: ErrMissingColumn}
		}
	}
	return h, nil
}

// BlankRow reports whether every cell is empty or whitespace.
func BlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (h Header) cell(cells []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// Record converts one data row of a text export into a RawRecord.
// Errors are *InputError values carrying the offending column.
func (h Header) Record(cells []string) (RawRecord, error) {
	return h.record(cells, ParseDate)
}

// SheetRecord is Record for workbook rows, whose raw date cells may hold
// Excel serial numbers.
func (h Header) SheetRecord(cells []string) (RawRecord, error) {
	return h.record(cells, ParseSheetDate)
}

func (h Header) record(cells []string, parseDate func(string) (*time.Time, error)) (RawRecord, error) {
	rec := RawRecord{
		Country:     h.cell(cells, ColCountry),
		AffiliateID: h.cell(cells, ColAffiliateID),
		PlayerID:    h.cell(cells, ColPlayerID),
	}

	date, err := parseDate(h.cell(cells, ColFirstDeposit))
	if err != nil {
		return RawRecord{}, &InputError{Column: ColFirstDeposit, Err: err}
	}
	rec.FirstDeposit = date

	count, err := parseCount(h.cell(cells, ColDepositsCount))
	if err != nil {
		return RawRecord{}, &InputError{Column: ColDepositsCount, Err: err}
	}
	rec.DepositsCount = count

	amounts := []struct {
		col string
		dst *decimal.Decimal
	}{
		{ColDepositAmount, &rec.DepositAmount},
		{ColBetsAmount, &rec.BetsAmount},
		{ColCompanyProfit, &rec.CompanyProfit},
		{ColRS, &rec.RS},
		{ColCPA, &rec.CPA},
		{ColCommissionAmount, &rec.CommissionAmount},
		{ColBonusAmount, &rec.BonusAmount},
	}
	for _, a := range amounts {
		v, err := ParseAmount(h.cell(cells, a.col))
		if err != nil {
			return RawRecord{}, &InputError{Column: a.col, Err: err}
		}
		*a.dst = v
	}

	return rec, nil
}

// ParseDate parses a textual first-deposit cell. An empty cell yields nil.
// The time of day is dropped.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if missingDate(s) {
		return nil, nil
	}
	return parseLayouts(s)
}

// ParseSheetDate parses a raw workbook date cell. Numbers between 1 and
// maxExcelSerial are Excel serial dates; anything else must match a text layout.
func ParseSheetDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if missingDate(s) {
		return nil, nil
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err == nil && serial >= 1 && serial <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadDate, s)
		}
		d := DateOnly(t)
		return &d, nil
	}
	return parseLayouts(s)
}

func missingDate(s string) bool {
	return s == "" || strings.EqualFold(s, "nat") || strings.EqualFold(s, "nan")
}

func parseLayouts(s string) (*time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := DateOnly(t)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseAmount parses a signed decimal cell. Empty cells count as zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return d, nil
}

func parseCount(s string) (int64, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%w: deposits count %q", ErrBadNumber, s)
	}
	return d.IntPart(), nil
}

package pipeline

import (
	"fmt"
	"time"

	"github.com/hed1ad/affguard/pkg/dataset"
)

// PeriodMissing labels records without a first-deposit date.
const PeriodMissing = "Missing"

// Window is a closed range of days elapsed before the last day of the dataset.
type Window struct {
	From, To int
}

// Windows are the retention cohorts: last week, the week before, five weeks
// back and ten weeks back. The gaps between them are intentional.
var Windows = []Window{
	{From: 1, To: 7},
	{From: 8, To: 14},
	{From: 29, To: 35},
	{From: 64, To: 70},
}

// Contains reports whether days falls inside the window.
func (w Window) Contains(days int) bool {
	return days >= w.From && days <= w.To
}

// Label renders the window as a date range relative to lastDay.
func (w Window) Label(lastDay time.Time) string {
	start := lastDay.AddDate(0, 0, -w.To)
	end := lastDay.AddDate(0, 0, -w.From)
	return fmt.Sprintf("[%s - %s]", start.Format(time.DateOnly), end.Format(time.DateOnly))
}

// Bucketer assigns time periods relative to the latest first-deposit date.
type Bucketer struct {
	lastDay time.Time
	hasDate bool
}

// NewBucketer scans records for the latest present date.
func NewBucketer(records []dataset.RawRecord) *Bucketer {
	b := &Bucketer{}
	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		d := dataset.DateOnly(*rec.FirstDeposit)
		if !b.hasDate || d.After(b.lastDay) {
			b.lastDay = d
			b.hasDate = true
		}
	}
	return b
}

// LastDay returns the latest date seen and whether any date was present.
func (b *Bucketer) LastDay() (time.Time, bool) {
	return b.lastDay, b.hasDate
}

// DaysElapsed returns whole calendar days between date and the last day.
func (b *Bucketer) DaysElapsed(date time.Time) int {
	const secondsPerDay = 24 * 60 * 60
	return int((b.lastDay.Unix() - dataset.DateOnly(date).Unix()) / secondsPerDay)
}

// Bucket returns the period label for a date. A nil date yields PeriodMissing.
// ok is false when the date falls outside every window.
func (b *Bucketer) Bucket(date *time.Time) (label string, ok bool) {
	if date == nil {
		return PeriodMissing, true
	}
	days := b.DaysElapsed(*date)
	for _, w := range Windows {
		if w.Contains(days) {
			return w.Label(b.lastDay), true
		}
	}
	return "", false
}

// BucketRecords converts records to stage-0 rows keyed by (country, affiliate,
// period). Records outside every window, or with an empty country or affiliate
// ID, have no group key and are dropped; their number is returned.
func (b *Bucketer) BucketRecords(records []dataset.RawRecord) (rows []Row, dropped int) {
	rows = make([]Row, 0, len(records))
	for _, rec := range records {
		period, ok := b.Bucket(rec.FirstDeposit)
		if !ok || rec.Country == "" || rec.AffiliateID == "" {
			dropped++
			continue
		}
		rows = append(rows, Row{
			Key: Key{
				Country:     rec.Country,
				AffiliateID: rec.AffiliateID,
				Period:      period,
			},
			Values: measuresOf(rec),
		})
	}
	return rows, dropped
}

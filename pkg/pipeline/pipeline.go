// Package pipeline turns raw affiliate activity into per-country aggregates
// annotated with isolation forest anomaly scores.
//
// A run buckets records into retention periods, aggregates them twice (once
// per affiliate period, once more per deal type), drops thin groups, then fits
// one detector per country and min-max scales its scores.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hed1ad/affguard/pkg/dataset"
	"github.com/hed1ad/affguard/pkg/detectors"
)

// DefaultMinPlayers is the player count a row must exceed to be scored.
const DefaultMinPlayers = 5

// Output column names for scores.
const (
	ColTimePeriod  = "Time Period"
	ColDealType    = "Deal Type"
	ColScore       = "Anomaly Score"
	ColScaledScore = "Scaled Anomaly Score"
)

// ScoredRow is a stage-2 row with its raw and scaled anomaly scores.
type ScoredRow struct {
	Row
	Score  float64
	Scaled float64
}

// CountryResult holds the scored rows of one country.
type CountryResult struct {
	Country    string
	Rows       []ScoredRow
	Degenerate bool
	Invalid    int
}

// Result is the outcome of one run.
type Result struct {
	RunID   uuid.UUID
	LastDay *time.Time

	Records    int
	Unbucketed int
	Stage1Rows int
	Stage2Rows int
	Retained   int

	Countries []CountryResult
}

// Pipeline runs the analysis. The zero value is not usable; call New.
type Pipeline struct {
	forest     detectors.Config
	factory    DetectorFactory
	workers    int
	minPlayers int
	report     Reporter
	now        func() time.Time

	mu sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReporter sets the progress event sink.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) {
		p.report = r
	}
}

// WithForest sets the detector configuration used for every country.
func WithForest(cfg detectors.Config) Option {
	return func(p *Pipeline) {
		p.forest = cfg
	}
}

// WithDetectorFactory replaces the isolation forest.
func WithDetectorFactory(f DetectorFactory) Option {
	return func(p *Pipeline) {
		p.factory = f
	}
}

// WithWorkers sets how many countries are scored concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = n
	}
}

// WithMinPlayers sets the player count a row must exceed to be kept.
func WithMinPlayers(n int) Option {
	return func(p *Pipeline) {
		p.minPlayers = n
	}
}

// New creates a Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		forest:     detectors.DefaultConfig(),
		factory:    NewIsolationForest,
		workers:    1,
		minPlayers: DefaultMinPlayers,
		report:     func(Event) {},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

type run struct {
	*Pipeline
	id uuid.UUID
}

func (r run) emit(stage Stage, country string, level Level, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report(Event{
		RunID:   r.id,
		Time:    r.now(),
		Stage:   stage,
		Country: country,
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

// Run executes every stage over records. Records are not modified.
func (p *Pipeline) Run(ctx context.Context, records []dataset.RawRecord) (*Result, error) {
	r := run{Pipeline: p, id: uuid.New()}
	res := &Result{RunID: r.id, Records: len(records)}

	bucketer := NewBucketer(records)
	if last, ok := bucketer.LastDay(); ok {
		res.LastDay = &last
	}
	rows, dropped := bucketer.BucketRecords(records)
	res.Unbucketed = dropped
	r.emit(StageBucket, "", LevelInfo, "Time periods were detected: %d of %d records bucketed", len(rows), len(records))

	stage1 := Stage1(rows)
	stage2 := Stage2(Classify(stage1))
	kept := FilterMinPlayers(stage2, p.minPlayers)
	res.Stage1Rows = len(stage1)
	res.Stage2Rows = len(stage2)
	res.Retained = len(kept)
	r.emit(StageAggregate, "", LevelInfo, "The dataset was processed: %d groups, %d deal groups, %d with more than %d players",
		len(stage1), len(stage2), len(kept), p.minPlayers)

	parts := PartitionByCountry(kept)
	results, err := r.scoreAll(ctx, parts)
	if err != nil {
		return nil, err
	}
	res.Countries = results

	r.emit(StageDone, "", LevelInfo, "Analysis completed for %d countries", len(results))
	return res, nil
}

func (r run) scoreAll(ctx context.Context, parts []Partition) ([]CountryResult, error) {
	scorer := Scorer{
		Config:   r.forest,
		Features: Stage2Spec.Measures(),
		Factory:  r.factory,
	}

	results := make([]CountryResult, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, part := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.scoreCountry(scorer, part)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r run) scoreCountry(scorer Scorer, part Partition) CountryResult {
	r.emit(StageScore, part.Country, LevelInfo, "Analysing: %s (%d rows)", part.Country, len(part.Rows))

	scores, err := scorer.ScorePartition(part)
	if err != nil {
		r.emit(StageScore, part.Country, LevelWarn, "Scoring failed for %s: %v", part.Country, err)
		scores = make([]float64, len(part.Rows))
		for i := range scores {
			scores[i] = math.NaN()
		}
	}

	scaling := Normalize(scores)
	if scaling.Invalid > 0 {
		r.emit(StageNormalize, part.Country, LevelWarn, "Warning: %d anomaly scores in %s could not be converted to numbers", scaling.Invalid, part.Country)
	}
	if scaling.Degenerate {
		r.emit(StageNormalize, part.Country, LevelWarn, "Warning: anomaly scores in %s do not vary, scaled scores left empty", part.Country)
	}

	out := CountryResult{
		Country:    part.Country,
		Rows:       make([]ScoredRow, len(part.Rows)),
		Degenerate: scaling.Degenerate,
		Invalid:    scaling.Invalid,
	}
	for i, row := range part.Rows {
		out.Rows[i] = ScoredRow{Row: row, Score: scores[i], Scaled: scaling.Scaled[i]}
	}

	r.emit(StageNormalize, part.Country, LevelInfo, "Scaling was applied to: %s", part.Country)
	return out
}

// Header returns the output column names.
func Header() []string {
	header := []string{dataset.ColCountry, dataset.ColAffiliateID, ColTimePeriod, ColDealType}
	for _, m := range Stage2Spec.Measures() {
		header = append(header, m.String())
	}
	return append(header, ColScore, ColScaledScore)
}

// Sheets renders one sheet per country, in country order.
// NaN scores become empty cells.
func (res *Result) Sheets() []dataset.Sheet {
	countries := make([]string, len(res.Countries))
	for i, c := range res.Countries {
		countries[i] = c.Country
	}
	names := dataset.SheetNames(countries)
	header := Header()
	measures := Stage2Spec.Measures()

	sheets := make([]dataset.Sheet, len(res.Countries))
	for i, c := range res.Countries {
		sheet := dataset.Sheet{Name: names[i], Header: header, Rows: make([][]any, len(c.Rows))}
		for j, row := range c.Rows {
			cells := make([]any, 0, len(header))
			cells = append(cells, row.Key.Country, row.Key.AffiliateID, row.Key.Period, string(row.Key.Deal))
			for _, m := range measures {
				if m.Integral() {
					cells = append(cells, row.Values[m].IntPart())
				} else {
					cells = append(cells, row.Values[m].InexactFloat64())
				}
			}
			cells = append(cells, cell(row.Score), cell(row.Scaled))
			sheet.Rows[j] = cells
		}
		sheets[i] = sheet
	}
	return sheets
}

func cell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

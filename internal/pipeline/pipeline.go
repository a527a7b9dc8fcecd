// Package pipeline runs one fetch-render-write cycle over the configured regions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/survey-007/iran-radiation-live/internal/kml"
	"github.com/survey-007/iran-radiation-live/internal/metrics"
	"github.com/survey-007/iran-radiation-live/internal/model"
	"github.com/survey-007/iran-radiation-live/internal/sink"
	"github.com/survey-007/iran-radiation-live/internal/source"
	"github.com/survey-007/iran-radiation-live/internal/store"
)

type Pipeline struct {
	Regions    []model.Region
	Source     source.Source
	Builder    kml.Builder
	Sinks      []sink.Sink
	OutputPath string // reported in the success message

	Dedup   *store.Dedup     // optional
	Metrics *metrics.Metrics // optional
	Log     *log.Logger
	Now     func() time.Time
	Verbose bool
}

type RegionSummary struct {
	Name    string
	Records int
	Err     error
}

type Summary struct {
	Regions    []RegionSummary
	Total      int
	Placemarks int
	Written    bool
}

func (p *Pipeline) logger() *log.Logger {
	if p.Log == nil {
		return log.Default()
	}
	return p.Log
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Fetch queries every region in order. A failed region contributes zero records.
func (p *Pipeline) Fetch(ctx context.Context) (*model.Results, []RegionSummary) {
	res := model.NewResults()
	sums := make([]RegionSummary, 0, len(p.Regions))
	for _, r := range p.Regions {
		fr := p.Source.Fetch(ctx, r)
		recs := fr.Records()
		if p.Dedup != nil && fr.OK() {
			before := len(recs)
			recs = p.Dedup.Filter(recs)
			if p.Verbose {
				p.logger().Printf("%s: dedup filtered %d -> %d", r.Name, before, len(recs))
			}
		}
		res.Add(r.Name, recs)
		sums = append(sums, RegionSummary{Name: r.Name, Records: len(recs), Err: fr.Err})
		if p.Metrics != nil {
			p.Metrics.ObserveFetch(r.Name, len(recs), fr.OK())
		}
	}
	return res, sums
}

// Run fetches all regions, and unless no records came back at all, renders the
// document and hands it to every sink.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := p.now()
	lg := p.logger()

	res, sums := p.Fetch(ctx)
	sum := Summary{Regions: sums, Total: res.Total(), Placemarks: kml.Count(res)}
	defer func() {
		if p.Metrics != nil {
			p.Metrics.ObserveRun(p.now().Sub(start), sum.Placemarks, sum.Written)
		}
	}()

	if sum.Total == 0 {
		lg.Printf("No data from any region.")
		return sum, nil
	}

	doc, err := p.Builder.Build(res, start)
	if err != nil {
		return sum, err
	}

	batch := sink.Batch{Document: doc, Results: res, At: start, Placemarks: sum.Placemarks}
	if err := p.push(ctx, batch); err != nil {
		return sum, err
	}
	sum.Written = true
	lg.Printf("File '%s' created with %d points.", p.OutputPath, sum.Total)
	return sum, nil
}

// push fans the batch out to all sinks and joins their errors.
func (p *Pipeline) push(ctx context.Context, b sink.Batch) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(p.Sinks))
	for _, sk := range p.Sinks {
		sk := sk
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sk.Write(ctx, b); err != nil {
				errCh <- fmt.Errorf("sink %s: %w", sk.Name(), err)
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for e := range errCh {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

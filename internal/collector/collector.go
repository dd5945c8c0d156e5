// Package collector runs one data collection pass against the OpenDota API:
// list recent public matches, fetch their details and turn them into
// training examples.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/smrichards/dota2-llm/internal/analyzer"
	"github.com/smrichards/dota2-llm/internal/dataset"
	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/opendota"
	"github.com/smrichards/dota2-llm/internal/reference"
)

const (
	listingPageSize  = 100
	progressInterval = 50

	DefaultMaxFailedRequests = 10
	DefaultBatchPause        = 2 * time.Second
)

var (
	// ErrConnection means the initial hero fetch failed.
	ErrConnection = errors.New("failed to connect to OpenDota API")
	// ErrTooManyFailures means the detail loop stopped after exceeding the
	// failed request threshold. The Result still holds what was collected.
	ErrTooManyFailures = errors.New("too many failed requests")
)

// API is the part of the OpenDota client a collection run uses.
type API interface {
	GetHeroes(ctx context.Context) ([]opendota.Hero, error)
	GetItems(ctx context.Context) (map[string]opendota.Item, error)
	GetPublicMatches(ctx context.Context, minRank int, lessThanMatchID int64) ([]opendota.PublicMatch, error)
	GetMatch(ctx context.Context, matchID int64) (*opendota.Match, error)
}

// MatchSink receives every fetched detail record, e.g. the raw archive.
type MatchSink interface {
	WriteMatch(m *opendota.Match) error
}

type Config struct {
	MinRank           int
	MaxFailedRequests int
	BatchPause        time.Duration
	Analyzer          analyzer.Config
}

// Result is what a run produced. Matches are kept for the aggregate pass.
type Result struct {
	RunID      string
	Refs       *reference.Table
	Examples   []dataset.Example
	Matches    []*opendota.Match
	Listed     int
	Duplicates int
	Processed  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Result) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type Collector struct {
	api   API
	cfg   Config
	sink  MatchSink
	runID string
}

type Option func(*Collector)

// WithArchive copies every fetched match to sink. Write failures are logged
// and do not stop the run.
func WithArchive(sink MatchSink) Option {
	return func(c *Collector) {
		c.sink = sink
	}
}

// WithRunID fixes the id of the next run instead of generating one.
func WithRunID(id string) Option {
	return func(c *Collector) {
		c.runID = id
	}
}

// New creates a collector. cfg is used as given; defaults come from
// config.LoadCollector. A negative failure threshold falls back to
// DefaultMaxFailedRequests.
func New(api API, cfg Config, opts ...Option) *Collector {
	if cfg.MaxFailedRequests < 0 {
		cfg.MaxFailedRequests = DefaultMaxFailedRequests
	}
	if cfg.BatchPause < 0 {
		cfg.BatchPause = 0
	}
	c := &Collector{api: api, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run collects up to numMatches matches. On cancellation the partial Result
// is returned with ctx.Err(); on too many failures with ErrTooManyFailures.
func (c *Collector) Run(ctx context.Context, numMatches int) (*Result, error) {
	logger := logging.For("collector")
	runID := c.runID
	if runID == "" {
		runID = NewRunID()
	}
	res := &Result{RunID: runID, StartedAt: time.Now()}
	defer func() { res.FinishedAt = time.Now() }()

	heroes, err := c.api.GetHeroes(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	logger.Info().Int("heroes", len(heroes)).Msg("connected to OpenDota")

	items, err := c.api.GetItems(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		logger.Warn().Err(err).Msg("item constants unavailable, names will fall back")
	}
	res.Refs = reference.FromAPI(heroes, items)
	logger.Info().Int("heroes", res.Refs.HeroCount()).Int("items", res.Refs.ItemCount()).Msg("reference data loaded")

	ids, err := c.listMatches(ctx, numMatches, res)
	if err != nil {
		return res, err
	}
	if len(ids) > numMatches {
		ids = ids[:numMatches]
	}

	an := analyzer.New(res.Refs, c.cfg.Analyzer)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		logger.Debug().Int64("match_id", id).Int("n", i+1).Int("of", len(ids)).Msg("processing match")

		m, err := c.api.GetMatch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			if res.Failed > c.cfg.MaxFailedRequests {
				logger.Error().Int("failed", res.Failed).Msg("too many failed requests, stopping")
				return res, ErrTooManyFailures
			}
			continue
		}

		res.Examples = append(res.Examples, an.Analyze(m)...)
		res.Matches = append(res.Matches, m)
		res.Processed++

		if c.sink != nil {
			if err := c.sink.WriteMatch(m); err != nil {
				logger.Warn().Err(err).Int64("match_id", id).Msg("archive write failed")
			}
		}
		if res.Processed%progressInterval == 0 {
			logger.Info().Int("processed", res.Processed).Int("examples", len(res.Examples)).Msg("progress")
		}
	}

	logger.Info().
		Int("processed", res.Processed).
		Int("examples", len(res.Examples)).
		Int("failed", res.Failed).
		Msg("collection complete")
	return res, nil
}

// listMatches pages backwards through /publicMatches until enough unique ids
// are gathered, a page comes back empty, or the batch budget runs out.
func (c *Collector) listMatches(ctx context.Context, numMatches int, res *Result) ([]int64, error) {
	logger := logging.For("collector")

	batches := numMatches/listingPageSize + 1
	seen := bloom.NewWithEstimates(uint(batches*listingPageSize), 0.001)
	logger.Info().Int("batches", batches).Int("target", numMatches).Msg("listing public matches")

	var ids []int64
	var lessThan int64
	for b := 0; b < batches; b++ {
		page, err := c.api.GetPublicMatches(ctx, c.cfg.MinRank, lessThan)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn().Err(err).Int("batch", b+1).Msg("listing batch failed")
			continue
		}
		if len(page) == 0 {
			logger.Info().Int("batch", b+1).Msg("empty listing batch, stopping")
			break
		}

		res.Listed += len(page)
		for _, pm := range page {
			if pm.MatchID == 0 {
				continue
			}
			if lessThan == 0 || pm.MatchID < lessThan {
				lessThan = pm.MatchID
			}
			key := []byte(fmt.Sprint(pm.MatchID))
			if seen.Test(key) {
				res.Duplicates++
				continue
			}
			seen.Add(key)
			ids = append(ids, pm.MatchID)
		}
		logger.Debug().Int("batch", b+1).Int("got", len(page)).Int("total", len(ids)).Msg("listing batch")

		if len(ids) >= numMatches {
			break
		}
		if err := sleep(ctx, c.cfg.BatchPause); err != nil {
			return nil, err
		}
	}

	logger.Info().Int("unique", len(ids)).Int("duplicates", res.Duplicates).Msg("listing complete")
	return ids, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

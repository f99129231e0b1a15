package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// RegionParser parses one region's record set from the archives.
type RegionParser interface {
	ParseRegion(ctx context.Context, region domain.Region) (*domain.RecordSet, error)
}

// RegionCache loads and stores per-region record sets.
type RegionCache interface {
	Load(region domain.Region) (*domain.RecordSet, bool)
	Store(region domain.Region, rs *domain.RecordSet) error
}

// Policy decides what a populated Assembler does when asked for a dataset.
type Policy int

const (
	// ReuseFirst returns the first assembled dataset on every later call,
	// whatever regions are requested.
	ReuseFirst Policy = iota
	// Remerge rebuilds the dataset when the requested regions differ from the
	// ones it was built from.
	Remerge
)

// ParsePolicy maps "reuse" or "remerge" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "reuse", "":
		return ReuseFirst, nil
	case "remerge":
		return Remerge, nil
	default:
		return 0, fmt.Errorf("unknown reuse policy %q", s)
	}
}

func (p Policy) String() string {
	if p == Remerge {
		return "remerge"
	}
	return "reuse"
}

// Assembler merges per-region record sets into one dataset, going through
// the cache before the parser. It owns the merged dataset for its lifetime.
//
// build serializes Get; readers (Dataset, State, CheckReadiness) only take
// stateMu, which is held for the final swap, so they never wait on assembly.
type Assembler struct {
	parser  RegionParser
	cache   RegionCache
	policy  Policy
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	build sync.Mutex
	ready atomic.Bool

	stateMu sync.RWMutex
	data    *domain.RecordSet
	regions []domain.Region
	builtAt time.Time
}

// New creates an Assembler with the given stages and observability.
func New(parser RegionParser, cache RegionCache, policy Policy, logger *slog.Logger, metrics *observability.Metrics) *Assembler {
	return &Assembler{
		parser:  parser,
		cache:   cache,
		policy:  policy,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
}

// WithClock swaps the clock used to stamp builds.
func (a *Assembler) WithClock(c clockwork.Clock) *Assembler {
	a.clock = c
	return a
}

// Get returns the dataset for the requested regions, all regions when none
// are given. Once populated, the policy decides whether a different
// selection rebuilds the dataset or gets the existing one back.
func (a *Assembler) Get(ctx context.Context, regions ...domain.Region) (*domain.RecordSet, error) {
	if len(regions) == 0 {
		regions = domain.AllRegions()
	}

	a.build.Lock()
	defer a.build.Unlock()

	a.stateMu.RLock()
	held, heldRegions := a.data, a.regions
	a.stateMu.RUnlock()

	if held != nil {
		if a.policy == ReuseFirst || slices.Equal(heldRegions, regions) {
			return held, nil
		}
		a.logger.Info("region selection changed, rebuilding dataset",
			"previous", heldRegions, "requested", regions)
	}

	data, err := a.assemble(ctx, regions)
	if err != nil {
		return nil, err
	}

	a.stateMu.Lock()
	a.data = data
	a.regions = slices.Clone(regions)
	a.builtAt = a.clock.Now()
	a.stateMu.Unlock()
	a.ready.Store(true)

	a.metrics.DatasetRows.Set(float64(data.Len()))
	return data, nil
}

func (a *Assembler) assemble(ctx context.Context, regions []domain.Region) (*domain.RecordSet, error) {
	a.metrics.PipelineRunning.Set(1)
	defer a.metrics.PipelineRunning.Set(0)

	start := a.clock.Now()
	var (
		merged *domain.RecordSet
		total  int
	)
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rs, err := a.region(ctx, region)
		if err != nil {
			return nil, err
		}
		total += rs.Len()

		if merged == nil {
			merged = rs.Clone()
			continue
		}
		if err := merged.Concat(rs); err != nil {
			return nil, fmt.Errorf("merge region %s: %w", region, err)
		}
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if merged.Len() != total {
		return nil, fmt.Errorf("%w: merged %d rows, regions hold %d", domain.ErrShapeMismatch, merged.Len(), total)
	}

	a.logger.Info("dataset assembled", "regions", len(regions), "rows", total,
		"duration", a.clock.Since(start))
	return merged, nil
}

// region returns one region's record set from the cache, parsing and caching
// it on a miss. A failed cache write is logged, not returned.
func (a *Assembler) region(ctx context.Context, region domain.Region) (*domain.RecordSet, error) {
	if rs, ok := a.cache.Load(region); ok {
		return rs, nil
	}

	rs, err := a.parser.ParseRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", region, err)
	}
	if err := a.cache.Store(region, rs); err != nil {
		a.logger.Warn("cache store failed", "region", region, "error", err)
	}
	return rs, nil
}

// Reset drops the memoized dataset so the next Get assembles again.
func (a *Assembler) Reset() {
	a.build.Lock()
	defer a.build.Unlock()

	a.ready.Store(false)
	a.stateMu.Lock()
	a.data = nil
	a.regions = nil
	a.builtAt = time.Time{}
	a.stateMu.Unlock()
}

// State reports whether a dataset is held, which regions it covers, and
// when it was built.
func (a *Assembler) State() (populated bool, regions []domain.Region, builtAt time.Time) {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.data != nil, slices.Clone(a.regions), a.builtAt
}

// Dataset returns the held dataset, or nil before the first successful Get.
func (a *Assembler) Dataset() *domain.RecordSet {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.data
}

// CheckReadiness returns nil once a dataset has been assembled.
func (a *Assembler) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("dataset has not been assembled yet")
	}
	return nil
}

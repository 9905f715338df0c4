// Package catalog keeps an in-memory, periodically refreshed snapshot of the
// reference data (meal plans, lab rules, medicines).
package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Skufu/mealguard/internal/engine"
	"github.com/Skufu/mealguard/internal/logging"
	"github.com/Skufu/mealguard/internal/model"
)

// Source fetches the full reference catalog.
type Source interface {
	FetchCatalog(ctx context.Context) (*model.Catalog, error)
}

// Snapshot is an immutable, validated catalog plus its lookup indexes.
type Snapshot struct {
	Version   string
	LoadedAt  time.Time
	Catalog   model.Catalog
	LabRules  engine.LabRules
	Medicines engine.Medicines
	Issues    []error
}

// ActivePlans returns the plans flagged active, in catalog order.
func (s *Snapshot) ActivePlans() []model.MealPlan {
	out := make([]model.MealPlan, 0, len(s.Catalog.Plans))
	for _, p := range s.Catalog.Plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

type Options struct {
	RefreshInterval time.Duration
	MaxStaleness    time.Duration
}

// Cache serves snapshots without blocking readers once one has loaded. A stale
// snapshot triggers a background refresh. A snapshot older than MaxStaleness
// is never served: Get refreshes synchronously and reports ErrUnavailable if
// that fails.
type Cache struct {
	src  Source
	opts Options
	now  func() time.Time
	log  *log.Logger

	snap       atomic.Pointer[Snapshot]
	refreshing atomic.Bool
	group      singleflight.Group
}

func NewCache(src Source, opts Options) *Cache {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 5 * time.Minute
	}
	if opts.MaxStaleness < opts.RefreshInterval {
		opts.MaxStaleness = opts.RefreshInterval
	}
	return &Cache{
		src:  src,
		opts: opts,
		now:  time.Now,
		log:  logging.Logger(logging.SourceCatalog),
	}
}

// Get returns the current snapshot, loading it on first use.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	s := c.snap.Load()
	if s == nil {
		return c.Refresh(ctx)
	}

	age := c.now().Sub(s.LoadedAt)
	if age > c.opts.MaxStaleness {
		fresh, err := c.Refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot is %s old: %w", ErrUnavailable, age.Round(time.Second), err)
		}
		return fresh, nil
	}
	if age > c.opts.RefreshInterval {
		c.refreshInBackground()
	}
	return s, nil
}

// loadTimeout bounds one catalog fetch.
const loadTimeout = 30 * time.Second

// Refresh loads a new snapshot now. Concurrent callers share one fetch, which
// is detached from any single caller's cancellation: a caller whose ctx ends
// stops waiting, and the others still get the result.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := c.group.DoChan("catalog", func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return c.load(lctx)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (c *Cache) refreshInBackground() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.refreshing.Store(false)
		if _, err := c.Refresh(context.Background()); err != nil {
			c.log.Error("background catalog refresh failed", "err", err)
		}
	}()
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	started := c.now()
	raw, err := c.src.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrNoSourceData)
	}

	clean, issues, err := raw.Sanitize()
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrInvalid, err)
	}
	for _, issue := range issues {
		c.log.Warn("catalog entry dropped", "err", issue)
	}

	s := &Snapshot{
		Version:   uuid.NewString(),
		LoadedAt:  started,
		Catalog:   clean,
		LabRules:  engine.NewLabRules(clean.LabRules),
		Medicines: engine.NewMedicines(clean.Medicines),
		Issues:    issues,
	}
	c.snap.Store(s)
	c.log.Info("catalog loaded",
		"version", s.Version,
		"plans", len(clean.Plans),
		"lab_rules", len(clean.LabRules),
		"medicines", len(clean.Medicines),
		"dropped", len(issues),
	)
	return s, nil
}

// Status describes the current snapshot without loading one.
type Status struct {
	Loaded   bool      `json:"loaded"`
	Version  string    `json:"version,omitempty"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
	Expired  bool      `json:"expired"`
	Dropped  int       `json:"dropped"`
	Issues   []string  `json:"issues,omitempty"`
}

// Status reports what Get would serve. An expired snapshot is older than
// MaxStaleness and will not be served until a refresh succeeds.
func (c *Cache) Status() Status {
	s := c.snap.Load()
	if s == nil {
		return Status{}
	}
	st := Status{
		Loaded:   true,
		Version:  s.Version,
		LoadedAt: s.LoadedAt,
		Expired:  c.now().Sub(s.LoadedAt) > c.opts.MaxStaleness,
		Dropped:  len(s.Issues),
	}
	for _, issue := range s.Issues {
		st.Issues = append(st.Issues, issue.Error())
	}
	return st
}

// Run refreshes on every interval tick until ctx is done. Failures keep the
// previous snapshot.
func (c *Cache) Run(ctx context.Context) {
	t := time.NewTicker(c.opts.RefreshInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := c.Refresh(ctx); err != nil {
				c.log.Error("scheduled catalog refresh failed", "err", err)
			}
		}
	}
}

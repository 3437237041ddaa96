package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"catreport/internal/core"
	"catreport/internal/report"
)

// Generator is the part of report.Generator the cache needs.
type Generator interface {
	Generate(ctx context.Context, def report.Definition) (*report.Output, error)
	Today() core.Date
}

// Reports caches generated reports per definition and day, so a report is
// regenerated at the latest when the date changes or the TTL runs out.
type Reports struct {
	gen     Generator
	lru     *LRUCache[*report.Output]
	group   singleflight.Group
	timeout time.Duration
}

// DefaultGenerateTimeout bounds a shared generation once it no longer follows
// the context of the request that started it.
const DefaultGenerateTimeout = 2 * time.Minute

func NewReports(gen Generator, size int, ttl time.Duration) *Reports {
	return &Reports{
		gen:     gen,
		lru:     NewLRUCache[*report.Output](size, ttl),
		timeout: DefaultGenerateTimeout,
	}
}

// Key identifies a report for one day.
func Key(def report.Definition, today core.Date) string {
	return def.Slug() + "@" + today.String()
}

// Get returns the cached report or generates it. Concurrent misses for the
// same key share one generation, which keeps running when the caller that
// started it goes away. Each caller stops waiting when its own ctx is done.
func (r *Reports) Get(ctx context.Context, def report.Definition) (*report.Output, error) {
	key := Key(def, r.gen.Today())
	if out, ok := r.lru.Get(key); ok {
		return out, nil
	}

	ch := r.group.DoChan(key, func() (any, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		out, err := r.gen.Generate(genCtx, def)
		if err != nil {
			return nil, err
		}
		r.lru.Set(key, out)
		return out, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*report.Output), nil
	}
}

// Invalidate drops every cached report.
func (r *Reports) Invalidate() {
	r.lru.Clear()
}

func (r *Reports) CleanExpired() int { return r.lru.CleanExpired() }

func (r *Reports) Size() int { return r.lru.Size() }

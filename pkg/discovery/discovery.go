// Package discovery orchestrates the full catalog pipeline: concurrent
// source scans, metadata extraction, rendering, and fingerprint-keyed
// caching. Nothing below this boundary is allowed to terminate the process;
// every failure is absorbed into a degraded record, a partial catalog, or a
// logged warning.
package discovery

import (
	"context"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/skillscan/skillscan/pkg/cache"
	"github.com/skillscan/skillscan/pkg/logger"
	"github.com/skillscan/skillscan/pkg/metadata"
	"github.com/skillscan/skillscan/pkg/overview"
	"github.com/skillscan/skillscan/pkg/scanner"
	"github.com/skillscan/skillscan/pkg/sources"
)

// Phase names the orchestrator's progress through one run
type Phase string

const (
	// PhaseScanningFast is the mtime-only scan used for cache validation
	PhaseScanningFast Phase = "scanning_fast"
	// PhaseCacheHit means the stored catalog was emitted unchanged
	PhaseCacheHit Phase = "cache_hit"
	// PhaseScanningFull is metadata extraction over all candidates
	PhaseScanningFull Phase = "scanning_full"
	// PhaseRendering is catalog text generation
	PhaseRendering Phase = "rendering"
	// PhaseStoring is the atomic cache replace
	PhaseStoring Phase = "storing"
	// PhaseDone is the terminal phase of a full rebuild
	PhaseDone Phase = "done"
)

// Engine composes the registry, scanner, extractor, renderer, and cache
// store into one discovery pipeline
type Engine struct {
	registry     *sources.Registry
	store        cache.Store
	forceRefresh bool
	allow        []string
	ignore       []string
}

// Option configures an Engine
type Option func(*Engine)

// WithForceRefresh bypasses the cache fast path and always rebuilds
func WithForceRefresh(force bool) Option {
	return func(e *Engine) {
		e.forceRefresh = force
	}
}

// WithAllowPatterns keeps only skills whose ID matches one of the glob
// patterns. Empty means allow all.
func WithAllowPatterns(patterns []string) Option {
	return func(e *Engine) {
		e.allow = patterns
	}
}

// WithIgnorePatterns drops skills whose ID matches one of the glob patterns
func WithIgnorePatterns(patterns []string) Option {
	return func(e *Engine) {
		e.ignore = patterns
	}
}

// New creates a discovery engine
func New(registry *sources.Registry, store cache.Store, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		store:    store,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one discovery run
type Result struct {
	Text        string
	FromCache   bool
	Partial     bool
	RecordCount int
	// SkippedDirs counts subtrees abandoned due to read errors across all sources
	SkippedDirs int
	// Warnings aggregates non-fatal problems (cache load/store failures).
	// Nil when the run was clean.
	Warnings error
}

// Run executes one discovery pass. It never returns an error: the worst
// outcome is an empty or partial catalog in the result.
func (e *Engine) Run(ctx context.Context) *Result {
	res := &Result{}

	srcs := e.registry.Sources()
	logger.G(ctx).WithField("phase", PhaseScanningFast).WithField("sources", len(srcs)).Debug("scanning sources")

	// Fork-join: one worker per source, each writing to its own slot.
	// Merging happens strictly after Wait, so no locks are needed.
	scans := make([]scanner.Result, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			scans[i] = scanner.Scan(gctx, src)
			return nil
		})
	}
	_ = g.Wait()

	var pairs []cache.Pair
	for _, sc := range scans {
		res.SkippedDirs += sc.SkippedDirs
		if sc.Partial {
			res.Partial = true
		}
		for _, cand := range sc.Candidates {
			pairs = append(pairs, cache.Pair{Path: cand.SkillPath, ModTime: cand.ModTime})
		}
	}

	fp := cache.Fingerprint(pairs, e.fingerprintSeed()...)

	if !res.Partial && !e.forceRefresh {
		entry, err := e.store.Load()
		if err != nil {
			res.Warnings = multierror.Append(res.Warnings, err)
			logger.G(ctx).WithError(err).Warn("cache load failed, rebuilding")
		}
		if entry != nil && entry.Fingerprint == fp {
			logger.G(ctx).WithField("phase", PhaseCacheHit).Debug("catalog unchanged, emitting cached text")
			res.Text = entry.RenderedText
			res.FromCache = true
			res.RecordCount = entry.RecordCount
			return res
		}
	}

	logger.G(ctx).WithField("phase", PhaseScanningFull).WithField("candidates", len(pairs)).Debug("extracting skill metadata")

	var records []metadata.Record
extract:
	for _, sc := range scans {
		for _, cand := range sc.Candidates {
			if ctx.Err() != nil {
				res.Partial = true
				break extract
			}
			records = append(records, metadata.Extract(sc.Source, cand))
		}
	}

	records = e.filterRecords(records)

	logger.G(ctx).WithField("phase", PhaseRendering).WithField("records", len(records)).Debug("rendering catalog")
	res.Text = overview.Render(records, res.Partial)
	res.RecordCount = len(records)

	if res.Partial {
		// A partial scan must never poison the fingerprint-to-content
		// mapping for a future full scan.
		logger.G(ctx).Debug("partial scan, skipping cache store")
		return res
	}

	logger.G(ctx).WithField("phase", PhaseStoring).Debug("storing catalog")
	entry := &cache.Entry{
		Fingerprint:  fp,
		GeneratedAt:  time.Now().UTC(),
		RenderedText: res.Text,
		RecordCount:  len(records),
	}
	if err := e.store.Save(entry); err != nil {
		res.Warnings = multierror.Append(res.Warnings, err)
		logger.G(ctx).WithError(err).Warn("cache store failed, catalog still emitted")
	}

	logger.G(ctx).WithField("phase", PhaseDone).Debug("discovery complete")
	return res
}

// fingerprintSeed folds the filter configuration into the fingerprint so a
// config change invalidates the cached catalog just like a file change.
func (e *Engine) fingerprintSeed() []string {
	seed := make([]string, 0, len(e.allow)+len(e.ignore))
	for _, p := range e.allow {
		seed = append(seed, "allow="+p)
	}
	for _, p := range e.ignore {
		seed = append(seed, "ignore="+p)
	}
	return seed
}

// filterRecords applies the allow and ignore glob patterns. Plugin skills
// are also matched as "group/id" so patterns can target whole plugins.
func (e *Engine) filterRecords(records []metadata.Record) []metadata.Record {
	if len(e.allow) == 0 && len(e.ignore) == 0 {
		return records
	}

	filtered := make([]metadata.Record, 0, len(records))
	for _, rec := range records {
		if len(e.allow) > 0 && !matchesAny(e.allow, rec) {
			continue
		}
		if matchesAny(e.ignore, rec) {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

func matchesAny(patterns []string, rec metadata.Record) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rec.ID); err == nil && ok {
			return true
		}
		if rec.Group != "" {
			if ok, err := doublestar.Match(pattern, rec.Group+"/"+rec.ID); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Package pipeline drives the parse → cache → resolve → emit flow.
//
// Definition files are enumerated in deterministic order, parsed, looked up
// in the resolution cache, and cache misses are resolved concurrently by a
// bounded worker pool. Results are reassembled into input order regardless
// of completion order, so the emitted manifest is diff-stable. Per-entry
// failures are accumulated and reported; only storage failures abort the
// run.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ToyVo/minecraft-modpack/pkg/cache"
	"github.com/ToyVo/minecraft-modpack/pkg/httputil"
	"github.com/ToyVo/minecraft-modpack/pkg/modpack"
	"github.com/ToyVo/minecraft-modpack/pkg/resolve"
)

// DefaultWorkers bounds concurrent resolutions. Kept low to respect
// upstream rate limits.
const DefaultWorkers = 4

// Options configures one pipeline run.
type Options struct {
	InputDir   string
	Cache      cache.Cache
	Resolvers  *resolve.Registry
	Workers    int
	Attempts   int
	RetryDelay time.Duration
	Refresh    bool
	Logger     func(format string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Attempts <= 0 {
		o.Attempts = httputil.DefaultAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = httputil.DefaultDelay
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Logger == nil {
		o.Logger = func(string, ...any) {}
	}
	return o
}

// Failure records one skipped entry and why.
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of a run: the ordered manifest plus the entries
// that could not be included.
type Result struct {
	Manifest []modpack.ModMetadata
	Failures []Failure
}

type entry struct {
	def  *modpack.Definition
	meta *modpack.ModMetadata
}

type job struct {
	idx int
	ref modpack.ModReference
}

type jobResult struct {
	idx  int
	meta *modpack.ModMetadata
	err  error
}

// Run executes the pipeline over opts.InputDir.
//
// The returned error is non-nil only for storage failures (unreadable input
// directory, cache write failure) and cancellation; per-entry failures land
// in Result.Failures and the manifest still contains every entry that
// resolved.
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	paths, err := modpack.ListDefinitions(opts.InputDir)
	if err != nil {
		return nil, err
	}

	entries := make([]*entry, len(paths))
	var failures []Failure
	seen := make(map[string]bool)

	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, Failure{Path: path, Err: err})
			continue
		}
		def, err := modpack.ParseDefinition(path, data)
		if err != nil {
			failures = append(failures, Failure{Path: path, Err: err})
			continue
		}
		if key := dedupKey(def); seen[key] {
			opts.Logger("duplicate entry skipped: %s", path)
			continue
		} else {
			seen[key] = true
		}
		entries[i] = &entry{def: def, meta: def.Inline}
	}

	misses := consultCache(ctx, opts, entries)

	if len(misses) > 0 {
		if err := resolveMisses(ctx, opts, entries, misses, &failures); err != nil {
			return nil, err
		}
	}

	applySideHints(entries)

	result := &Result{Failures: failures}
	for _, e := range entries {
		if e != nil && e.meta != nil {
			result.Manifest = append(result.Manifest, *e.meta)
		}
	}
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Path < result.Failures[j].Path
	})
	return result, nil
}

// dedupKey identifies a mod project independent of version, so the manifest
// never lists the same project twice. First occurrence wins.
func dedupKey(def *modpack.Definition) string {
	if def.Ref != nil {
		return string(def.Ref.Platform) + "/" + def.Ref.ProjectID
	}
	return "direct/" + def.Inline.URL
}

// consultCache fills entries from the resolution cache and returns the jobs
// that still need a network resolution. Cache read problems degrade to
// misses; only cache writes are load-bearing.
func consultCache(ctx context.Context, opts Options, entries []*entry) []job {
	var misses []job
	for i, e := range entries {
		if e == nil || e.def.Ref == nil || e.meta != nil {
			continue
		}
		ref := *e.def.Ref
		if !opts.Refresh {
			if meta, ok := cacheGet(ctx, opts, ref); ok {
				e.meta = meta
				continue
			}
		}
		misses = append(misses, job{idx: i, ref: ref})
	}
	return misses
}

func cacheGet(ctx context.Context, opts Options, ref modpack.ModReference) (*modpack.ModMetadata, bool) {
	key := cache.Key(string(ref.Platform), ref.ProjectID, ref.VersionID)
	data, ok, err := opts.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger("cache read failed for %s: %v", ref, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var meta modpack.ModMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		opts.Logger("invalid cache entry for %s: %v", ref, err)
		return nil, false
	}
	return &meta, true
}

// resolveMisses runs the bounded worker pool over the cache misses and
// writes successful resolutions back to the cache. Results carry their
// originating index, so manifest order stays independent of completion
// order. Cache writes are serialized in the collecting goroutine; a failed
// write is fatal since the next run would silently re-fetch.
func resolveMisses(ctx context.Context, opts Options, entries []*entry, misses []job, failures *[]Failure) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job, len(misses))
	results := make(chan jobResult, len(misses))

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					results <- jobResult{idx: j.idx, err: ctx.Err()}
					continue
				}
				meta, err := resolveOne(ctx, opts, j.ref)
				results <- jobResult{idx: j.idx, meta: meta, err: err}
			}
		}()
	}

	for _, j := range misses {
		jobs <- j
	}
	close(jobs)
	wg.Wait()
	close(results)

	for r := range results {
		e := entries[r.idx]
		if r.err != nil {
			if errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded) {
				return r.err
			}
			*failures = append(*failures, Failure{Path: e.def.Path, Err: r.err})
			continue
		}
		e.meta = r.meta

		ref := *e.def.Ref
		data, err := json.Marshal(r.meta)
		if err != nil {
			return fmt.Errorf("encoding cache entry for %s: %w", ref, err)
		}
		key := cache.Key(string(ref.Platform), ref.ProjectID, ref.VersionID)
		if err := opts.Cache.Set(ctx, key, data, 0); err != nil {
			return fmt.Errorf("writing cache entry for %s: %w", ref, err)
		}
		opts.Logger("resolved %s", ref)
	}
	return nil
}

func resolveOne(ctx context.Context, opts Options, ref modpack.ModReference) (*modpack.ModMetadata, error) {
	var meta *modpack.ModMetadata
	err := httputil.Retry(ctx, opts.Attempts, opts.RetryDelay, func() error {
		m, err := opts.Resolvers.Resolve(ctx, ref)
		if err != nil {
			return err
		}
		meta = m
		return nil
	})
	return meta, err
}

// applySideHints overrides the side for CurseForge entries with the
// definition file's own declaration. Applied after both cache hits and
// fresh resolutions, so the cache stores pure resolver output.
func applySideHints(entries []*entry) {
	for _, e := range entries {
		if e == nil || e.meta == nil || e.def.Ref == nil {
			continue
		}
		if e.def.Ref.Platform == modpack.PlatformCurseForge && e.def.SideHint != "" {
			e.meta.Side = modpack.ParseSide(e.def.SideHint)
		}
	}
}

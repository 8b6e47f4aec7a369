package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/coaldraw/pkg/cache"
	"github.com/matzehuels/coaldraw/pkg/observability"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so the caching logic lives in one place.
//
// The Runner holds no per-run state; one Runner can serve many goroutines
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer means [cache.DefaultKeyer]; a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the draw → render pipeline for t with caching.
func (r *Runner) Execute(ctx context.Context, t *tree.Tree, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, invalidTree(err)
	}

	treeHash, err := TreeHash(t)
	if err != nil {
		return nil, err
	}
	if opts.IDPrefix == "" {
		opts.IDPrefix = DefaultIDPrefix(treeHash)
	}

	result := &Result{
		TreeHash: treeHash,
		Stats: Stats{
			NodeCount: t.Len(),
			EdgeCount: len(t.Edges()),
		},
	}

	start := time.Now()
	artifacts, hit, err := r.renderTree(ctx, t, treeHash, opts, &result.Stats)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	if hit {
		result.Stats.RenderTime = time.Since(start)
	}

	r.Logger.Debug("rendered tree",
		"nodes", result.Stats.NodeCount,
		"formats", opts.Formats,
		"cached", hit,
		"duration", time.Since(start))

	return result, nil
}

// RenderWithCacheInfo draws and renders t, returning whether every artifact
// was served from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, t *tree.Tree, opts Options) (map[string][]byte, bool, error) {
	res, err := r.Execute(ctx, t, opts)
	if err != nil {
		return nil, false, err
	}
	return res.Artifacts, res.CacheInfo.RenderHit, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, t *tree.Tree, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, t, opts)
	return artifacts, err
}

func (r *Runner) renderTree(ctx context.Context, t *tree.Tree, treeHash string, opts Options, stats *Stats) (map[string][]byte, bool, error) {
	sceneHash := cache.Hash([]byte(r.Keyer.SceneKey(treeHash, opts.SceneKeyOpts())))

	if !opts.Refresh {
		if artifacts, ok := r.cached(ctx, sceneHash, opts); ok {
			return artifacts, true, nil
		}
	}

	layoutStart := time.Now()
	d, err := DrawTree(ctx, t, opts)
	if err != nil {
		return nil, false, err
	}
	stats.LayoutTime = time.Since(layoutStart)
	opts.Logger.Debug("drew tree", "viz", opts.VizType, "duration", stats.LayoutTime)

	renderStart := time.Now()
	artifacts, err := RenderDrawing(ctx, d, opts)
	if err != nil {
		return nil, false, err
	}
	stats.RenderTime = time.Since(renderStart)

	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, false, nil
}

// cached returns every requested artifact from the cache, or false if any
// one is missing.
func (r *Runner) cached(ctx context.Context, sceneHash string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			opts.Logger.Warn("cache read failed", "format", format, "err", err)
		}
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		observability.Cache().OnCacheHit(ctx, "artifact")
		artifacts[format] = data
	}
	return artifacts, true
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// TreeHash returns the content hash of t's canonical JSON document.
func TreeHash(t *tree.Tree) (string, error) {
	data, err := tree.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("serialize tree for cache key: %w", err)
	}
	return cache.Hash(data), nil
}

// DefaultIDPrefix derives a stable SVG id prefix from a tree hash, so the
// same tree always gets the same ids and two different trees embedded in one
// page do not collide.
func DefaultIDPrefix(treeHash string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(treeHash))
	return "t" + id.String()[:8]
}

package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/coaldraw/pkg/cache"
	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/observability"
	"github.com/matzehuels/coaldraw/pkg/render"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

func coalescent(t *testing.T) *tree.Tree {
	t.Helper()
	tr, err := tree.Build([]int{4, 4, 5, 6, 5, 6, -1}, []float64{1, 1, 2, 3, 1, 2, 0})
	if err != nil {
		t.Fatalf("tree.Build() error: %v", err)
	}
	return tr
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	return NewRunner(c, nil, nil)
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !cerrors.Is(err, cerrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want INVALID_FORMAT", tt.format, cerrors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateVizType(t *testing.T) {
	tests := []struct {
		vizType string
		wantErr bool
	}{
		{"plot", false},
		{"dot", false},
		{"radial", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateVizType(tt.vizType)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateVizType(%q) error = %v, wantErr %v", tt.vizType, err, tt.wantErr)
		}
	}
}

func TestSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()

	if o.VizType != VizPlot {
		t.Errorf("VizType = %q, want %q", o.VizType, VizPlot)
	}
	if o.Width != 400 || o.Height != 200 {
		t.Errorf("size = %vx%v, want 400x200", o.Width, o.Height)
	}
	if o.FontSize != 18 {
		t.Errorf("FontSize = %v, want 18", o.FontSize)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", o.Formats)
	}
	if o.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", o.Scale, DefaultScale)
	}
	if o.Logger == nil {
		t.Error("Logger should be set")
	}
	if o.IDPrefix != "" {
		t.Errorf("IDPrefix = %q, want empty", o.IDPrefix)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		code   cerrors.Code
	}{
		{"defaults", func(*Options) {}, ""},
		{"bad viz", func(o *Options) { o.VizType = "radial" }, cerrors.ErrCodeInvalidOptions},
		{"bad format", func(o *Options) { o.Formats = []string{"gif"} }, cerrors.ErrCodeInvalidFormat},
		{"json with dot", func(o *Options) { o.VizType = VizDot; o.Formats = []string{"json"} }, cerrors.ErrCodeInvalidOptions},
		{"dot source from plot", func(o *Options) { o.Formats = []string{"dot"} }, ""},
		{"negative width", func(o *Options) { o.Width = -1 }, cerrors.ErrCodeInvalidOptions},
		{"huge canvas", func(o *Options) { o.Height = 1e6 }, cerrors.ErrCodeInvalidOptions},
		{"negative node size", func(o *Options) { o.NodeSize = -2 }, cerrors.ErrCodeInvalidOptions},
		{"zero scale", func(o *Options) { o.Scale = -1 }, cerrors.ErrCodeInvalidOptions},
		{"bad prefix", func(o *Options) { o.IDPrefix = "1 bad" }, cerrors.ErrCodeInvalidOptions},
		{"good prefix", func(o *Options) { o.IDPrefix = "fig-1" }, ""},
		{"bad mutation", func(o *Options) { o.Mutations = map[int]string{1: "a\x00b"} }, cerrors.ErrCodeInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Options
			o.SetDefaults()
			tt.modify(&o)
			err := o.Validate()
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !cerrors.Is(err, tt.code) {
				t.Errorf("Validate() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	o := Options{Scale: 3, CSS: "circle{}", Class: "small"}
	png := o.ArtifactKeyOpts(FormatPNG)
	svg := o.ArtifactKeyOpts(FormatSVG)

	if png.Scale != 3 {
		t.Errorf("png Scale = %v, want 3", png.Scale)
	}
	if svg.Scale != 0 {
		t.Errorf("svg Scale = %v, want 0 (scale only affects png)", svg.Scale)
	}
	if svg.CSSHash == "" || svg.CSSHash != png.CSSHash {
		t.Errorf("CSSHash = %q / %q, want equal and non-empty", svg.CSSHash, png.CSSHash)
	}
}

// artifactKey is the cache key Execute uses for one format.
func artifactKey(o Options, format string) string {
	k := cache.NewDefaultKeyer()
	sceneHash := cache.Hash([]byte(k.SceneKey("tree", o.SceneKeyOpts())))
	return k.ArtifactKey(sceneHash, o.ArtifactKeyOpts(format))
}

func TestCacheKeyCoversOptions(t *testing.T) {
	base := Options{Formats: []string{FormatPNG}}
	if err := base.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	baseKey := artifactKey(base, FormatPNG)

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"viz", func(o *Options) { o.VizType = VizDot }},
		{"width", func(o *Options) { o.Width = 500 }},
		{"height", func(o *Options) { o.Height = 300 }},
		{"font size", func(o *Options) { o.FontSize = 12 }},
		{"node size", func(o *Options) { o.NodeSize = 3 }},
		{"node labels", func(o *Options) { o.NodeLabels = true }},
		{"show internal", func(o *Options) { o.ShowInternal = true }},
		{"detailed", func(o *Options) { o.Detailed = true }},
		{"jitter x", func(o *Options) { o.JitterX = 2 }},
		{"jitter y", func(o *Options) { o.JitterY = 15 }},
		{"id prefix", func(o *Options) { o.IDPrefix = "fig" }},
		{"mutations", func(o *Options) { o.Mutations = map[int]string{2: "m1"} }},
		{"mutation text", func(o *Options) { o.Mutations = map[int]string{2: "m2"} }},
		{"css", func(o *Options) { o.CSS = "circle{}" }},
		{"class", func(o *Options) { o.Class = "x-lab-sml" }},
		{"background", func(o *Options) { o.Background = "white" }},
		{"scale", func(o *Options) { o.Scale = 3 }},
	}

	seen := map[string]string{baseKey: "base"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			tt.modify(&o)
			key := artifactKey(o, FormatPNG)
			if prev, ok := seen[key]; ok {
				t.Errorf("changing %s gives the same cache key as %s", tt.name, prev)
			}
			seen[key] = tt.name
		})
	}
}

func TestExecuteCachedMatchesFresh(t *testing.T) {
	tests := []struct {
		name          string
		first, second Options
		format        string
	}{
		{
			"detailed then internal labels",
			Options{NodeLabels: true, Detailed: true},
			Options{NodeLabels: true, ShowInternal: true},
			FormatSVG,
		},
		{
			"dot plain then detailed",
			Options{VizType: VizDot},
			Options{VizType: VizDot, Detailed: true},
			FormatDOT,
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t)
			tr := coalescent(t)
			tt.first.Formats = []string{tt.format}
			tt.second.Formats = []string{tt.format}

			if _, err := r.Execute(ctx, tr, tt.first); err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			got, err := r.Execute(ctx, tr, tt.second)
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			want, err := NewRunner(nil, nil, nil).Execute(ctx, tr, tt.second)
			if err != nil {
				t.Fatalf("Execute() uncached error: %v", err)
			}
			if got.CacheInfo.RenderHit {
				t.Error("second options should miss the cache")
			}
			if string(got.Artifacts[tt.format]) != string(want.Artifacts[tt.format]) {
				t.Errorf("%s differs from an uncached render:\ngot:\n%s\nwant:\n%s",
					tt.format, got.Artifacts[tt.format], want.Artifacts[tt.format])
			}
		})
	}
}

func TestDefaultIDPrefix(t *testing.T) {
	a := DefaultIDPrefix("abc")
	if a != DefaultIDPrefix("abc") {
		t.Error("DefaultIDPrefix() should be deterministic")
	}
	if a == DefaultIDPrefix("abd") {
		t.Error("different hashes should give different prefixes")
	}
	if len(a) != 9 || a[0] != 't' {
		t.Errorf("DefaultIDPrefix() = %q, want t + 8 hex digits", a)
	}
	if !idPrefixRe.MatchString(a) {
		t.Errorf("DefaultIDPrefix() = %q does not pass its own validation", a)
	}
}

func TestExecuteSVG(t *testing.T) {
	r := newRunner(t)
	tr := coalescent(t)

	res, err := r.Execute(context.Background(), tr, Options{NodeLabels: true})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	svg := string(res.Artifacts[FormatSVG])
	if !strings.HasPrefix(svg, "<svg") {
		t.Fatalf("svg artifact does not start with <svg: %.40q", svg)
	}
	if got := strings.Count(svg, "<line"); got != 6 {
		t.Errorf("svg has %d lines, want 6", got)
	}
	if got := strings.Count(svg, "<text"); got != 4 {
		t.Errorf("svg has %d labels, want 4 (leaves only)", got)
	}
	prefix := DefaultIDPrefix(res.TreeHash)
	if !strings.Contains(svg, `id="`+prefix+`-node-0"`) {
		t.Errorf("svg lacks derived id prefix %q", prefix)
	}
	if res.Stats.NodeCount != 7 || res.Stats.EdgeCount != 6 {
		t.Errorf("Stats = %+v, want 7 nodes and 6 edges", res.Stats)
	}
	if res.CacheInfo.RenderHit {
		t.Error("first run should not be a cache hit")
	}
}

func TestExecuteCaching(t *testing.T) {
	r := newRunner(t)
	tr := coalescent(t)
	ctx := context.Background()
	opts := Options{Formats: []string{"svg", "json"}}

	first, err := r.Execute(ctx, tr, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	second, err := r.Execute(ctx, tr, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should be served from cache")
	}
	for _, f := range opts.Formats {
		if string(first.Artifacts[f]) != string(second.Artifacts[f]) {
			t.Errorf("cached %s artifact differs from rendered one", f)
		}
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, tr, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}

	// A different option must not reuse the cached artifact.
	changed, err := r.Execute(ctx, tr, Options{Formats: []string{"svg"}, Width: 500})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if changed.CacheInfo.RenderHit {
		t.Error("changed width should miss the cache")
	}
}

func TestExecuteJSON(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), coalescent(t), Options{Formats: []string{"json"}, IDPrefix: "fig"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	var doc struct {
		Width    float64           `json:"width"`
		IDPrefix string            `json:"id_prefix"`
		Viz      string            `json:"viz"`
		Nodes    []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(res.Artifacts["json"], &doc); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if doc.Width != 400 || doc.IDPrefix != "fig" || doc.Viz != VizPlot || len(doc.Nodes) != 7 {
		t.Errorf("json = %+v, want width 400, prefix fig, viz plot, 7 nodes", doc)
	}
}

func TestExecuteDotSource(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	for _, viz := range []string{VizPlot, VizDot} {
		t.Run(viz, func(t *testing.T) {
			res, err := r.Execute(ctx, coalescent(t), Options{VizType: viz, Formats: []string{"dot"}})
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			dot := string(res.Artifacts["dot"])
			if !strings.HasPrefix(dot, "digraph G {") {
				t.Errorf("dot artifact = %.40q, want DOT source", dot)
			}
			if !strings.Contains(dot, "n6 -> n3 [minlen=3];") {
				t.Error("dot artifact should scale edges by branch length")
			}
		})
	}
}

func TestExecuteInvalidTree(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	bad := &tree.Tree{Nodes: []tree.Node{{Ancestor: 1}, {Ancestor: 0}}}

	_, err := r.Execute(context.Background(), bad, Options{})
	if !cerrors.Is(err, cerrors.ErrCodeInvalidTree) {
		t.Errorf("Execute() error = %v, want INVALID_TREE", err)
	}
}

func TestExecuteRasterWithoutConverter(t *testing.T) {
	if render.Available() {
		t.Skip("rsvg-convert is installed")
	}
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), coalescent(t), Options{Formats: []string{"png"}})
	if !cerrors.Is(err, cerrors.ErrCodeUnsupported) {
		t.Errorf("Execute() error = %v, want UNSUPPORTED", err)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLayoutStart(_ context.Context, viz string, n int) {
	h.record("layout-start:" + viz)
}

func (h *recordingHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {
	h.record("layout-done")
}

func (h *recordingHooks) OnRenderStart(_ context.Context, formats []string) {
	h.record("render-start:" + strings.Join(formats, ","))
}

func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.record("render-done")
}

func TestExecuteHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	t.Cleanup(observability.Reset)

	r := newRunner(t)
	tr := coalescent(t)
	for range 2 {
		if _, err := r.Execute(context.Background(), tr, Options{}); err != nil {
			t.Fatalf("Execute() error: %v", err)
		}
	}

	want := []string{"layout-start:plot", "layout-done", "render-start:svg", "render-done"}
	if strings.Join(h.events, " ") != strings.Join(want, " ") {
		t.Errorf("events = %v, want %v (cached run emits none)", h.events, want)
	}
}

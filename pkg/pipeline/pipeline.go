// Package pipeline runs the draw → export pipeline shared by the CLI and the
// HTTP server.
//
// # Stages
//
//  1. Draw: fit the tree onto the canvas and build a scene (viz "plot"), or
//     convert it to Graphviz DOT (viz "dot")
//  2. Render: export in the requested formats (svg, json, png, pdf, dot)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, t, pipeline.Options{
//	    NodeLabels: true,
//	    Formats:    []string{"svg", "png"},
//	})
//	svg := res.Artifacts["svg"]
//
// Artifacts are cached per format under a key derived from the tree content
// and every option that affects the output.
package pipeline

import (
	"io"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coaldraw/pkg/cache"
	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/render/scene"
)

// =============================================================================
// Default Values
// =============================================================================

// Visualization types.
const (
	VizPlot = "plot"
	VizDot  = "dot"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
)

const (
	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultVizType is used when Options.VizType is empty.
	DefaultVizType = VizPlot
)

// ValidFormats lists the supported output formats in display order.
var ValidFormats = []string{FormatSVG, FormatJSON, FormatPNG, FormatPDF, FormatDOT}

// ValidVizTypes lists the supported visualization types.
var ValidVizTypes = []string{VizPlot, VizDot}

var idPrefixRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It is JSON-serializable for API
// requests.
type Options struct {
	// Draw options
	VizType      string         `json:"viz,omitempty"`
	Width        float64        `json:"width,omitempty"`
	Height       float64        `json:"height,omitempty"`
	IDPrefix     string         `json:"id_prefix,omitempty"`
	NodeLabels   bool           `json:"node_labels,omitempty"`
	ShowInternal bool           `json:"show_internal,omitempty"`
	FontSize     float64        `json:"font_size,omitempty"`
	NodeSize     float64        `json:"node_size,omitempty"`
	JitterX      float64        `json:"jitter_x,omitempty"`
	JitterY      float64        `json:"jitter_y,omitempty"`
	Mutations    map[int]string `json:"mutations,omitempty"`
	Detailed     bool           `json:"detailed,omitempty"` // dot viz: depth in labels

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
	CSS        string   `json:"css,omitempty"`
	Class      string   `json:"class,omitempty"`
	Background string   `json:"background,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result holds the outputs of a pipeline run.
type Result struct {
	// TreeHash is the content hash of the tree, as used in cache keys.
	TreeHash string

	// Artifacts holds the rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo reports whether all artifacts came from the cache. The drawing
// stage is skipped entirely on a hit.
type CacheInfo struct {
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return cerrors.New(cerrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(ValidFormats, ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is supported.
func ValidateVizType(viz string) error {
	if !slices.Contains(ValidVizTypes, viz) {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "invalid viz: %q (must be one of: %s)",
			viz, strings.Join(ValidVizTypes, ", "))
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset fields. The id prefix is left alone; [Runner]
// derives one from the tree when it is empty.
func (o *Options) SetDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if o.Width == 0 {
		o.Width = scene.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = scene.DefaultHeight
	}
	if o.FontSize == 0 {
		o.FontSize = scene.DefaultFontSize
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after defaults have been applied.
func (o *Options) Validate() error {
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.VizType == VizDot && slices.Contains(o.Formats, FormatJSON) {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "json output needs viz %q", VizPlot)
	}
	if err := cerrors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if err := cerrors.ValidateFontSize(o.FontSize); err != nil {
		return err
	}
	if o.NodeSize < 0 || math.IsNaN(o.NodeSize) {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "node size must not be negative")
	}
	if !isFinite(o.JitterX) || !isFinite(o.JitterY) {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "label jitter must be finite")
	}
	if o.Scale <= 0 || o.Scale > 10 || math.IsNaN(o.Scale) {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "scale must be in (0, 10], got %g", o.Scale)
	}
	if o.IDPrefix != "" && !idPrefixRe.MatchString(o.IDPrefix) {
		return cerrors.New(cerrors.ErrCodeInvalidOptions, "invalid id prefix %q", o.IDPrefix)
	}
	for i, m := range o.Mutations {
		if err := cerrors.ValidateLabel(m); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInvalidOptions, err, "mutation label of node %d", i)
		}
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	return o.Validate()
}

// IsDot reports whether Graphviz does the layout.
func (o *Options) IsDot() bool { return o.VizType == VizDot }

// SceneOptions converts the draw options for [scene.Draw].
func (o *Options) SceneOptions() []scene.Option {
	opts := []scene.Option{
		scene.WithSize(o.Width, o.Height),
		scene.WithIDPrefix(o.IDPrefix),
		scene.WithFontSize(o.FontSize),
		scene.WithNodeSize(o.NodeSize),
		scene.WithLabelJitter(o.JitterX, o.JitterY),
	}
	if o.NodeLabels {
		opts = append(opts, scene.WithNodeLabels(o.ShowInternal))
	}
	if len(o.Mutations) > 0 {
		opts = append(opts, scene.WithMutationLabels(o.Mutations))
	}
	return opts
}

// SceneKeyOpts returns cache key options for the drawing stage.
func (o *Options) SceneKeyOpts() cache.SceneKeyOpts {
	return cache.SceneKeyOpts{
		Viz:          o.VizType,
		Width:        o.Width,
		Height:       o.Height,
		FontSize:     o.FontSize,
		NodeSize:     o.NodeSize,
		NodeLabels:   o.NodeLabels,
		ShowInternal: o.ShowInternal,
		Detailed:     o.Detailed,
		JitterX:      o.JitterX,
		JitterY:      o.JitterY,
		IDPrefix:     o.IDPrefix,
		Mutations:    o.Mutations,
	}
}

// ArtifactKeyOpts returns cache key options for one output format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Class: o.Class, Background: o.Background}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	if o.CSS != "" {
		k.CSSHash = cache.Hash([]byte(o.CSS))
	}
	return k
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

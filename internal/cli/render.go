package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/pipeline"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output    string
	formats   string
	ancestors string
	branches  string
	mutations []string
	cssFile   string
	noCache   bool

	pipeline.Options
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Draw a genealogical tree as SVG, JSON, PNG, PDF or DOT",
		Long: `Draw a genealogical tree.

The tree is read from a JSON file ("-" for stdin), or given inline as
ancestor indices and branch lengths:

  coaldraw render tree.json --labels -f svg,png
  coaldraw render --ancestors 4,4,5,6,5,6,-1 --branches 1,1,2,3,1,2,0 -o tree.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			c.applyRenderConfig(cmd, &opts)
			return c.runRender(cmd.Context(), input, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", `output file (single format), base path (several formats) or "-" for stdout`)
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), json, png, pdf, dot (comma-separated)")
	f.StringVar(&opts.VizType, "viz", "", "visualization: plot (default) or dot (Graphviz)")
	f.StringVar(&opts.ancestors, "ancestors", "", "ancestor index of each node, -1 for the root (comma-separated)")
	f.StringVar(&opts.branches, "branches", "", "branch length above each node (comma-separated)")
	f.Float64Var(&opts.Width, "width", 0, "canvas width")
	f.Float64Var(&opts.Height, "height", 0, "canvas height")
	f.Float64Var(&opts.FontSize, "font-size", 0, "label font size")
	f.Float64Var(&opts.NodeSize, "node-size", 0, "node marker radius (0 hides nodes)")
	f.BoolVar(&opts.NodeLabels, "labels", false, "label leaves")
	f.BoolVar(&opts.ShowInternal, "internal", false, "label internal nodes too (implies --labels)")
	f.Float64Var(&opts.JitterX, "jitter-x", 0, "horizontal label offset")
	f.Float64Var(&opts.JitterY, "jitter-y", 0, "vertical label offset")
	f.StringArrayVar(&opts.mutations, "mutation", nil, `mutation label on the branch above a node, as "node:label" (repeatable)`)
	f.StringVar(&opts.IDPrefix, "id-prefix", "", "SVG element id prefix (default derived from the tree)")
	f.StringVar(&opts.cssFile, "css", "", "stylesheet to embed in SVG output")
	f.StringVar(&opts.Class, "class", "", "class of the SVG root element")
	f.StringVar(&opts.Background, "background", "", "background colour")
	f.Float64Var(&opts.Scale, "scale", 0, "PNG resolution multiplier")
	f.BoolVar(&opts.Detailed, "detailed", false, "show depth and height in node labels (dot)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	f.BoolVar(&opts.Refresh, "refresh", false, "re-render even when cached")

	return cmd
}

// applyRenderConfig fills options the user did not set on the command line
// from the [render] section of the config file.
func (c *CLI) applyRenderConfig(cmd *cobra.Command, opts *renderOpts) {
	rc := c.Config.Render
	changed := cmd.Flags().Changed
	if !changed("width") {
		opts.Width = rc.Width
	}
	if !changed("height") {
		opts.Height = rc.Height
	}
	if !changed("font-size") {
		opts.FontSize = rc.FontSize
	}
	if !changed("node-size") {
		opts.NodeSize = rc.NodeSize
	}
	if !changed("labels") {
		opts.NodeLabels = rc.NodeLabels
	}
	if !changed("internal") {
		opts.ShowInternal = rc.ShowInternal
	}
	if !changed("viz") {
		opts.VizType = rc.Viz
	}
	if !changed("format") {
		opts.formats = rc.Format
	}
	if !changed("scale") {
		opts.Scale = rc.Scale
	}
	if !changed("class") {
		opts.Class = rc.Class
	}
	if !changed("css") {
		opts.cssFile = rc.CSSFile
	}
}

// buildOptions turns flags into validated pipeline options.
func (c *CLI) buildOptions(opts *renderOpts) (pipeline.Options, error) {
	o := opts.Options
	o.Formats = parseFormats(opts.formats)
	o.Logger = c.Logger
	if o.ShowInternal {
		o.NodeLabels = true
	}

	muts, err := parseMutations(opts.mutations)
	if err != nil {
		return o, err
	}
	o.Mutations = muts

	if opts.cssFile != "" {
		css, err := os.ReadFile(opts.cssFile)
		if err != nil {
			return o, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "read stylesheet")
		}
		o.CSS = string(css)
	}
	return o, o.ValidateAndSetDefaults()
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	t, err := c.loadTree(input, opts.ancestors, opts.branches)
	if err != nil {
		return err
	}
	popts, err := c.buildOptions(opts)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if popts.Detailed && !popts.IsDot() && !slices.Contains(popts.Formats, pipeline.FormatDOT) {
		c.printWarning("--detailed only affects Graphviz output (--viz dot or -f dot)")
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", strings.Join(popts.Formats, ", ")))
	spinner.Start()
	res, err := runner.Execute(ctx, t, popts)
	cancelled := spinner.Cancelled()
	spinner.Stop()
	if err != nil {
		if cancelled {
			return ctx.Err()
		}
		return err
	}
	prog.done("render finished", "formats", len(popts.Formats))

	if opts.output == "-" {
		if len(popts.Formats) != 1 {
			return cerrors.New(cerrors.ErrCodeInvalidOptions, "stdout output takes exactly one format")
		}
		_, err := c.out.Write(res.Artifacts[popts.Formats[0]])
		return err
	}

	paths := outputPaths(opts.output, input, popts.Formats)
	for _, format := range popts.Formats {
		if err := writeFile(paths[format], res.Artifacts[format]); err != nil {
			return err
		}
	}

	c.printSuccess("Rendered tree")
	c.printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.RenderHit)
	for _, format := range popts.Formats {
		c.printFile(paths[format])
	}
	return nil
}

// loadTree reads a tree from a file, stdin ("-") or inline ancestry flags.
func (c *CLI) loadTree(input, ancestors, branches string) (*tree.Tree, error) {
	switch {
	case ancestors != "" || branches != "":
		if input != "" {
			return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "give either a tree file or --ancestors/--branches, not both")
		}
		return parseAncestry(ancestors, branches)
	case input == "":
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "no tree given (pass a file or --ancestors and --branches)")
	case input == "-":
		return readTree(os.Stdin, "stdin")
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "open tree")
	}
	defer f.Close()
	return readTree(f, input)
}

func readTree(r io.Reader, name string) (*tree.Tree, error) {
	t, err := tree.Read(r)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidTree, err, "read %s", name)
	}
	return t, nil
}

// parseAncestry builds a tree from comma-separated flag values.
func parseAncestry(ancestors, branches string) (*tree.Tree, error) {
	var anc []int
	for _, s := range splitList(ancestors) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "ancestor %q is not an integer", s)
		}
		anc = append(anc, n)
	}
	var br []float64
	for _, s := range splitList(branches) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "branch length %q is not a number", s)
		}
		br = append(br, f)
	}
	t, err := tree.Build(anc, br)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidTree, err, "build tree")
	}
	return t, nil
}

// parseMutations parses "node:label" pairs.
func parseMutations(specs []string) (map[int]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(specs))
	for _, s := range specs {
		idx, label, ok := strings.Cut(s, ":")
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if !ok || err != nil || n < 0 {
			return nil, cerrors.New(cerrors.ErrCodeInvalidOptions, "mutation must be node:label, got %q", s)
		}
		out[n] = label
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// outputPaths maps each format to its output file. A single format writes to
// output as given; several formats share output (minus a format extension) as
// base name. Without output the base is the input file name, or "tree". JSON
// drawings get a ".scene.json" suffix so they never replace a tree file.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		if f == pipeline.FormatJSON {
			paths[f] = base + ".scene.json"
			continue
		}
		paths[f] = base + "." + f
	}
	return paths
}

func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == "-" {
			return "tree"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

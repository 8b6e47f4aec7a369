package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/pipeline"
	"github.com/matzehuels/coaldraw/pkg/render/scene"
	"github.com/matzehuels/coaldraw/pkg/render/sink"
	"github.com/matzehuels/coaldraw/pkg/workbook"
	"github.com/matzehuels/coaldraw/pkg/workbook/figures"
)

type figureOpts struct {
	output string
	format string
	small  bool
	scale  float64
}

func (c *CLI) figureCommand() *cobra.Command {
	var opts figureOpts

	cmd := &cobra.Command{
		Use:       "figure [name]",
		Short:     "Draw one of the built-in workshop figures",
		Long:      "Draw one of the built-in workshop figures. Without a name, list them.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: figures.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range figures.Names() {
					c.println(name)
				}
				return nil
			}
			return c.runFigure(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file (default <name>.<format>) or "-" for stdout`)
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.FormatSVG, "output format: svg, json, png, pdf")
	cmd.Flags().BoolVar(&opts.small, "small", false, "use the small-label workbook style")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG resolution multiplier")

	return cmd
}

func (c *CLI) runFigure(ctx context.Context, name string, opts *figureOpts) error {
	s, err := figures.Lookup(name)
	if err != nil {
		return err
	}
	data, err := renderFigure(ctx, s, opts)
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := c.out.Write(data)
		return err
	}
	path := opts.output
	if path == "" {
		path = fmt.Sprintf("%s.%s", name, opts.format)
	}
	if err := writeFile(path, data); err != nil {
		return err
	}
	c.printSuccess("Drew %s", name)
	c.printFile(path)
	return nil
}

func renderFigure(ctx context.Context, s *scene.Scene, opts *figureOpts) ([]byte, error) {
	var svgOpts []sink.SVGOption
	if opts.small {
		svgOpts = append(svgOpts, sink.WithClass(workbook.SmallClass), sink.WithCSS(workbook.SmallStyle))
	}
	switch opts.format {
	case pipeline.FormatSVG:
		return sink.RenderSVG(s, svgOpts...), nil
	case pipeline.FormatJSON:
		return sink.RenderJSON(s, sink.WithJSONIndent())
	case pipeline.FormatPNG:
		return sink.RenderPNG(ctx, s, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(opts.scale))
	case pipeline.FormatPDF:
		return sink.RenderPDF(ctx, s, svgOpts...)
	}
	return nil, cerrors.New(cerrors.ErrCodeInvalidFormat, "figures render as svg, json, png or pdf, not %q", opts.format)
}

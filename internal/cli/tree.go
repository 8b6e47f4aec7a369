package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coaldraw/pkg/render/layout"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

func (c *CLI) treeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Inspect and convert tree files",
	}
	cmd.AddCommand(c.treeInfoCommand())
	cmd.AddCommand(c.treeBuildCommand())
	return cmd
}

type treeFlags struct {
	ancestors string
	branches  string
}

func (f *treeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ancestors, "ancestors", "", "ancestor index of each node, -1 for the root (comma-separated)")
	cmd.Flags().StringVar(&f.branches, "branches", "", "branch length above each node (comma-separated)")
}

func (c *CLI) treeInfoCommand() *cobra.Command {
	var tf treeFlags
	var width, height float64

	cmd := &cobra.Command{
		Use:   "info [tree.json]",
		Short: "Show the nodes of a tree with their depth and plot position",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			t, err := c.loadTree(input, tf.ancestors, tf.branches)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("width") {
				width = c.Config.Render.Width
			}
			if !cmd.Flags().Changed("height") {
				height = c.Config.Render.Height
			}
			c.printTreeInfo(t, width, height)
			return nil
		},
	}
	tf.register(cmd)
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width for plot positions")
	cmd.Flags().Float64Var(&height, "height", 0, "canvas height for plot positions")
	return cmd
}

func (c *CLI) printTreeInfo(t *tree.Tree, width, height float64) {
	plot := layout.Fit(t, width, height)
	depths := t.Depths()

	rows := make([][]string, t.Len())
	for i, n := range t.Nodes {
		ancestor := "root"
		if !n.IsRoot() {
			ancestor = strconv.Itoa(n.Ancestor)
		}
		kind := "internal"
		if n.Leaf {
			kind = "leaf"
		}
		rows[i] = []string{
			strconv.Itoa(i),
			n.Label,
			kind,
			ancestor,
			strconv.Itoa(depths[i]),
			fmtCoord(n.Coords),
			fmtCoord(plot[i]),
		}
	}

	c.println(StyleTitle.Render("Tree"))
	c.printKeyValue("Nodes", strconv.Itoa(t.Len()))
	c.printKeyValue("Leaves", strconv.Itoa(len(t.Leaves())))
	c.printKeyValue("Root", strconv.Itoa(t.Root()))
	c.printKeyValue("Canvas", fmt.Sprintf("%gx%g", width, height))
	c.println(renderTable([]string{"#", "Label", "Kind", "Ancestor", "Depth", "Tree (x, y)", "Plot (x, y)"}, rows))
}

func fmtCoord(p tree.Coordinate) string {
	return fmt.Sprintf("(%.4g, %.4g)", p.X, p.Y)
}

func (c *CLI) treeBuildCommand() *cobra.Command {
	var tf treeFlags
	var output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Convert ancestor indices and branch lengths into a tree file",
		Example: `  coaldraw tree build --ancestors 4,4,5,6,5,6,-1 --branches 1,1,2,3,1,2,0 -o tree.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseAncestry(tf.ancestors, tf.branches)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return tree.Write(t, c.out)
			}
			if err := tree.WriteFile(t, output); err != nil {
				return err
			}
			c.printSuccess("Built tree with %d nodes", t.Len())
			c.printFile(output)
			c.printNextStep("Draw it", "coaldraw render "+output+" --labels")
			return nil
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

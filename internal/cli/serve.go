package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coaldraw/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the drawing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	qf, err := c.loadQuiz()
	if err != nil {
		return err
	}

	sc := c.Config.Server
	srv := server.New(server.Config{
		Addr:         addr,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		MaxBodyBytes: sc.MaxBodyBytes,
	}, runner, st, qf, c.Logger)

	c.printInfo("Serving on %s", addr)
	return srv.ListenAndServe(ctx)
}

package cmd

import (
	"mcpstack/internal/api"
	"mcpstack/internal/serving"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		pipelinePath string
		transport    string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a saved pipeline",
		Long: `Serve loads a saved pipeline document, exports its environment overrides
into the process, and serves its tools until interrupted.

This is the command generated host configurations launch. The document is
taken from --pipeline, then MCPSTACK_CONFIG_PATH, then the configured
pipeline path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			rc := a.RuntimeConfig()
			if transport != "" {
				rc.Transport = transport
			}
			rt, err := serving.Factory(rc)()
			if err != nil {
				return api.Wrap(api.ErrInitialization, err, "create serving runtime")
			}
			return a.Serve(contextOf(cmd), a.ResolvePipelinePath(pipelinePath), rt)
		},
	}

	serveCmd.Flags().StringVarP(&pipelinePath, "pipeline", "p", "", "Pipeline document to serve")
	serveCmd.Flags().StringVarP(&transport, "transport", "t", "", "Transport to serve over (stdio, sse, streamable-http)")
	return serveCmd
}

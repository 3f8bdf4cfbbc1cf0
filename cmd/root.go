package cmd

import (
	"errors"
	"fmt"
	"os"

	"mcpstack/internal/app"
	"mcpstack/internal/cli"

	"github.com/spf13/cobra"
)

var (
	// rootDebug forces debug logging for every command.
	rootDebug bool

	// rootSettingsDir overrides the directory config.yaml is read from.
	rootSettingsDir string
)

// rootCmd represents the base command for the mcpstack application.
var rootCmd = &cobra.Command{
	Use:   "mcpstack",
	Short: "Compose MCP tools into pipelines and launch them from any host",
	Long: `mcpstack composes MCP tools and presets into a pipeline, validates the
environment the tools need, and emits the configuration a host application
uses to launch the pipeline: a local command, a docker container, or a raw
dump of the pipeline.

Saved pipelines are served with 'mcpstack serve', which is what generated
host configurations invoke.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	// Errors are printed by Execute together with a suggestion.
	SilenceErrors: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main() and exits the process with the code matching the error kind.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd, err)
		os.Exit(cli.ExitCode(err))
	}
}

func printError(cmd *cobra.Command, err error) {
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(err))
	var hinted *hintedError
	if errors.As(err, &hinted) {
		fmt.Fprintln(cmd.ErrOrStderr(), hinted.hint)
	}
}

// hintedError carries a "did you mean" line alongside an unknown-name error.
type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return e.err.Error() }
func (e *hintedError) Unwrap() error { return e.err }

// withHint attaches a suggestion for name when err lists known alternatives.
func withHint(err error, name string) error {
	if err == nil {
		return nil
	}
	if hint := cli.Hint(err, name); hint != "" {
		return &hintedError{err: err, hint: hint}
	}
	return err
}

// loadApp bootstraps the application from the global flags. Logs go to the
// command's stderr so stdout stays free for artifacts and the stdio transport.
func loadApp(cmd *cobra.Command) (*app.Application, error) {
	cfg := app.NewConfig(rootDebug, false, rootSettingsDir)
	cfg.Version = rootCmd.Version
	cfg.LogOutput = cmd.ErrOrStderr()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}

func init() {
	rootCmd.SetVersionTemplate(`{{printf "mcpstack version %s\n" .Version}}`)
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootSettingsDir, "settings-dir", "", "Directory holding config.yaml (default is $HOME/.config/mcpstack)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPipelineCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDockerCmd())
}

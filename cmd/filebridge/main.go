package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"filebridge/internal/config"
	"filebridge/internal/version"
)

// errToolFailed signals a tool result that carried an error. The result has
// already been printed.
var errToolFailed = errors.New("tool call failed")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "filebridge",
		Short:         "filebridge - sandboxed file tools for the Gemini Files API",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringSlice("workspace", nil, "Workspace directory (repeatable); defaults to the enclosing git root")
	flags.String("temp-dir", "", "Project temp directory that tools may also access")
	flags.String("auth-type", "", "Auth mode: gemini-api-key, oauth-personal, vertex-ai or cloud-shell")
	flags.String("base-url", config.DefaultBaseURL, "Files API base URL")
	flags.String("timeout", config.DefaultTimeout.String(), "Per-call timeout (e.g. 60s)")
	flags.String("ignore-file", "", "Ignore file name read from each workspace root")
	flags.String("output", config.DefaultOutputFormat, "Output format: text, json or yaml")
	flags.Bool("json", false, "Shorthand for --output json")
	flags.Bool("verbose", false, "Enable verbose logging and tool previews")
	flags.Bool("quiet", false, "Only print tool results")

	cmd.AddCommand(
		newUploadCmd(),
		newDownloadCmd(),
		newListCmd(),
		newCallCmd(),
		newBatchCmd(),
		newToolsCmd(),
		newServeCmd(),
	)
	return cmd
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

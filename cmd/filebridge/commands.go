package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"filebridge/internal/agent"
	"filebridge/internal/render"
	"filebridge/internal/server"
	"filebridge/internal/tools"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a workspace file to the Files API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			params := map[string]any{"absolute_path": path}
			if name, _ := cmd.Flags().GetString("display-name"); name != "" {
				params["display_name"] = name
			}
			return runTool(cmd, tools.UploadToolName, params)
		},
	}
	cmd.Flags().String("display-name", "", "Display name for the uploaded file")
	return cmd
}

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <file_id> <path>",
		Short: "Download a remote file into the workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			return runTool(cmd, tools.DownloadToolName, map[string]any{
				"file_id":       args[0],
				"absolute_path": path,
			})
		},
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files held by the Files API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]any{}
			if cmd.Flags().Changed("page-size") {
				size, _ := cmd.Flags().GetInt("page-size")
				params["page_size"] = size
			}
			return runTool(cmd, tools.ListToolName, params)
		},
	}
	cmd.Flags().Int("page-size", 0, "Files requested per page")
	return cmd
}

func newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args|-]",
		Short: "Invoke a tool with raw JSON arguments",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if len(args) == 2 {
				var err error
				raw, err = readArg(cmd, args[1])
				if err != nil {
					return err
				}
			}
			return dispatch(cmd, agent.Call{Name: args[0], Arguments: raw})
		},
	}
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [file|-]",
		Short: "Run a JSON list of tool calls",
		Long:  "Run tool calls read from a file or stdin. Input is either a JSON array of {\"name\",\"arguments\"} objects or {\"calls\": [...]}.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			data, err := readSource(cmd, source)
			if err != nil {
				return err
			}
			calls, err := parseCalls(data)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			records := a.dispatcher.RunBatch(ctx, calls)
			out := cmd.OutOrStdout()
			if a.cfg.OutputFormat == render.FormatText {
				for i, record := range records {
					fmt.Fprintf(out, "[%d] %s (%s)\n", i+1, record.ToolName, record.Status)
					if err := render.WriteResult(out, render.FormatText, record.Result); err != nil {
						return err
					}
				}
			} else if err := render.WriteValue(out, a.cfg.OutputFormat, server.BatchResponse{Results: records}); err != nil {
				return err
			}
			for _, record := range records {
				if record.Result.Failed() {
					return errToolFailed
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("concurrency", 0, "Maximum calls run at once")
	return cmd
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print tool definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close()

			reg := a.dispatcher.Tools()
			out := cmd.OutOrStdout()
			if a.cfg.OutputFormat != render.FormatText {
				return render.WriteValue(out, a.cfg.OutputFormat, reg.Definitions())
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, def := range reg.Definitions() {
				fmt.Fprintf(tw, "%s\t%s\n", def.Name, firstLine(def.Description))
			}
			return tw.Flush()
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tools over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			srv := server.New(a.dispatcher, server.Options{
				Addr:     a.cfg.Server.Addr,
				Gatherer: a.registry,
				Logger:   a.logger.Named("server"),
			})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address")
	cmd.Flags().Int("concurrency", 0, "Maximum batch calls run at once")
	return cmd
}

func runTool(cmd *cobra.Command, name string, params map[string]any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return dispatch(cmd, agent.Call{Name: name, Arguments: raw})
}

func dispatch(cmd *cobra.Command, call agent.Call) error {
	ctx, stop := signalContext(cmd)
	defer stop()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	record := a.dispatcher.Run(ctx, call)
	out := cmd.OutOrStdout()
	if a.cfg.OutputFormat == render.FormatText {
		err = render.WriteResult(out, render.FormatText, record.Result)
	} else {
		err = render.WriteValue(out, a.cfg.OutputFormat, record)
	}
	if err != nil {
		return err
	}
	if record.Result.Failed() {
		return errToolFailed
	}
	return nil
}

func readArg(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return []byte(arg), nil
}

func readSource(cmd *cobra.Command, source string) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return data, nil
}

func parseCalls(data []byte) ([]agent.Call, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("batch input is empty")
	}
	var calls []agent.Call
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &calls); err != nil {
			return nil, fmt.Errorf("parse batch: %w", err)
		}
	} else {
		var req server.BatchRequest
		if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
			return nil, fmt.Errorf("parse batch: %w", err)
		}
		calls = req.Calls
	}
	if len(calls) == 0 {
		return nil, fmt.Errorf("batch contains no calls")
	}
	return calls, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

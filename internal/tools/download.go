package tools

import (
	"context"
	"fmt"
	"strings"

	"filebridge/internal/remotefs"
	"filebridge/internal/workspace"
)

const DownloadToolName = "download_file"

// DownloadParams are the arguments of download_file.
type DownloadParams struct {
	FileID       string `json:"file_id"`
	AbsolutePath string `json:"absolute_path"`
}

// NewDownloadTool returns the download_file tool.
func NewDownloadTool(client remotefs.Client, meta Meta) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_id": map[string]any{
				"type":        "string",
				"description": "The remote file name, for example 'files/abc123', as returned by list_files or upload_file.",
			},
			"absolute_path": map[string]any{
				"type":        "string",
				"description": "The absolute local path to write the file to. The parent directory must exist.",
			},
		},
		"required":             []string{"file_id", "absolute_path"},
		"additionalProperties": false,
	}
	return NewDeclarative(DownloadToolName,
		"Downloads a file from the Gemini file manager and saves it to a local path inside the workspace.",
		schema,
		func(p DownloadParams) (Invocation, error) {
			if strings.TrimSpace(p.FileID) == "" {
				return nil, invalidParams(DownloadToolName, "%s", nonEmptyMessage("file_id"))
			}
			if strings.TrimSpace(p.AbsolutePath) == "" {
				return nil, invalidParams(DownloadToolName, "%s", nonEmptyMessage("absolute_path"))
			}
			if err := requireAvailable(DownloadToolName, meta.AuthType); err != nil {
				return nil, err
			}
			path, err := meta.Sandbox.Check(p.AbsolutePath, workspace.Checks{
				Param:         "absolute_path",
				RequireParent: true,
			})
			if err != nil {
				return nil, invalidParams(DownloadToolName, "%s", err.Error())
			}
			return newDownloadInvocation(client, strings.TrimSpace(p.FileID), path), nil
		},
	)
}

func newDownloadInvocation(client remotefs.Client, fileID, path string) Invocation {
	description := fmt.Sprintf("Download %s to %s", fileID, path)
	return newInvocation(description, ErrorFileManagerOperation, "downloading file", func(ctx context.Context) Result {
		if err := client.Download(ctx, fileID, path); err != nil {
			return failure(ErrorFileManagerOperation, "downloading file", err)
		}
		return Result{
			LLMContent:    fmt.Sprintf("Successfully downloaded file %s to %s", fileID, path),
			ReturnDisplay: fmt.Sprintf("Downloaded %s to %s", fileID, path),
		}
	})
}

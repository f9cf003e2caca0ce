package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"filebridge/internal/remotefs"
	"filebridge/internal/workspace"
)

const UploadToolName = "upload_file"

// UploadParams are the arguments of upload_file.
type UploadParams struct {
	AbsolutePath string `json:"absolute_path"`
	DisplayName  string `json:"display_name,omitempty"`
}

// NewUploadTool returns the upload_file tool.
func NewUploadTool(client remotefs.Client, meta Meta) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"absolute_path": map[string]any{
				"type":        "string",
				"description": "The absolute path of the local file to upload. Relative paths are not supported.",
			},
			"display_name": map[string]any{
				"type":        "string",
				"description": "Optional display name for the uploaded file. Defaults to the file name.",
			},
		},
		"required":             []string{"absolute_path"},
		"additionalProperties": false,
	}
	return NewDeclarative(UploadToolName,
		"Uploads a local file from the workspace to the Gemini file manager so it can be referenced by its URI.",
		schema,
		func(p UploadParams) (Invocation, error) {
			if strings.TrimSpace(p.AbsolutePath) == "" {
				return nil, invalidParams(UploadToolName, "%s", nonEmptyMessage("absolute_path"))
			}
			if err := requireAvailable(UploadToolName, meta.AuthType); err != nil {
				return nil, err
			}
			path, err := meta.Sandbox.Check(p.AbsolutePath, workspace.Checks{
				Param:         "absolute_path",
				RespectIgnore: true,
				RequireFile:   true,
			})
			if err != nil {
				return nil, invalidParams(UploadToolName, "%s", err.Error())
			}
			return newUploadInvocation(client, path, p.DisplayName), nil
		},
	)
}

func newUploadInvocation(client remotefs.Client, path, displayName string) Invocation {
	description := fmt.Sprintf("Upload %s", path)
	if displayName != "" {
		description += fmt.Sprintf(" as %q", displayName)
	}
	return newInvocation(description, ErrorFileManagerOperation, "uploading file", func(ctx context.Context) Result {
		file, err := client.Upload(ctx, path, displayName)
		if err != nil {
			return failure(ErrorFileManagerOperation, "uploading file", err)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Successfully uploaded file: %s\n", path)
		fmt.Fprintf(&b, "Name: %s\n", file.Name)
		fmt.Fprintf(&b, "URI: %s\n", orDefault(file.URI, "unknown"))
		fmt.Fprintf(&b, "MIME type: %s\n", orDefault(file.MimeType, "unknown"))
		fmt.Fprintf(&b, "Size: %s\n", formatSize(file.SizeBytes))
		fmt.Fprintf(&b, "State: %s", orDefault(file.State, "unknown"))
		return Result{
			LLMContent:    b.String(),
			ReturnDisplay: fmt.Sprintf("Uploaded %s as %s", filepath.Base(path), file.Name),
		}
	})
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func formatSize(size *int64) string {
	if size == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d bytes", *size)
}

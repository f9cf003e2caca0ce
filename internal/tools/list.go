package tools

import (
	"context"
	"fmt"
	"strings"

	"filebridge/internal/remotefs"
)

const ListToolName = "list_files"

// ListParams are the arguments of list_files.
type ListParams struct {
	PageSize *int `json:"page_size,omitempty"`
}

// NewListTool returns the list_files tool.
func NewListTool(client remotefs.Client, meta Meta) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_size": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Optional number of files fetched per request.",
			},
		},
		"additionalProperties": false,
	}
	return NewDeclarative(ListToolName,
		"Lists the files currently stored in the Gemini file manager.",
		schema,
		func(p ListParams) (Invocation, error) {
			pageSize := 0
			if p.PageSize != nil {
				if *p.PageSize <= 0 {
					return nil, invalidParams(ListToolName, "The 'page_size' parameter must be a positive integer.")
				}
				pageSize = *p.PageSize
			}
			if err := requireAvailable(ListToolName, meta.AuthType); err != nil {
				return nil, err
			}
			return newListInvocation(client, pageSize), nil
		},
	)
}

func newListInvocation(client remotefs.Client, pageSize int) Invocation {
	description := "List files in the file manager"
	if pageSize > 0 {
		description += fmt.Sprintf(" (page size %d)", pageSize)
	}
	return newInvocation(description, ErrorFileManagerList, "listing files", func(ctx context.Context) Result {
		var files []remotefs.File
		for file, err := range client.List(ctx, pageSize) {
			if err != nil {
				return failure(ErrorFileManagerList, "listing files", err)
			}
			files = append(files, file)
		}
		if len(files) == 0 {
			return Result{
				LLMContent:    "No files found in the file manager.",
				ReturnDisplay: "No files found",
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d file(s):\n", len(files))
		for i, file := range files {
			fmt.Fprintf(&b, "%d. %s\n", i+1, orDefault(file.DisplayName, "unknown"))
			fmt.Fprintf(&b, "   Name: %s\n", file.Name)
			fmt.Fprintf(&b, "   URI: %s\n", orDefault(file.URI, "unknown"))
			fmt.Fprintf(&b, "   MIME type: %s\n", orDefault(file.MimeType, "unknown"))
			fmt.Fprintf(&b, "   Size: %s\n", formatSize(file.SizeBytes))
			fmt.Fprintf(&b, "   State: %s\n", orDefault(file.State, "unknown"))
			fmt.Fprintf(&b, "   Created: %s\n", orDefault(file.CreateTime, "N/A"))
		}
		fmt.Fprintf(&b, "\nUse the %s tool with a file's name to save it locally.", DownloadToolName)
		return Result{
			LLMContent:    b.String(),
			ReturnDisplay: fmt.Sprintf("Found %d file(s)", len(files)),
		}
	})
}

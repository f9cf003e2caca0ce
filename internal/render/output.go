package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"filebridge/internal/tools"
)

// Output formats accepted by WriteResult and WriteValue.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteResult prints a tool result. Text output is the model-facing content.
func WriteResult(w io.Writer, format string, result tools.Result) error {
	if format == FormatText || format == "" {
		content := strings.TrimRight(result.LLMContent, "\n")
		_, err := fmt.Fprintln(w, content)
		return err
	}
	return WriteValue(w, format, result)
}

// WriteValue encodes v as JSON or YAML. Text falls back to JSON.
func WriteValue(w io.Writer, format string, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON, FormatText, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"

	"filebridge/internal/remotefs"
)

// Definition is the advertised shape of a tool.
type Definition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters" yaml:"parameters"`
}

// Registry stores available tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from tools.
func NewRegistry(items ...Tool) (*Registry, error) {
	reg := &Registry{tools: map[string]Tool{}}
	for _, item := range items {
		if err := reg.Register(item); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds tool, rejecting empty and duplicate names.
func (r *Registry) Register(tool Tool) error {
	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return ErrEmptyToolName
	}
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns sorted tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns every tool's definition sorted by name.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.tools))
	for _, name := range r.Names() {
		tool := r.tools[name]
		defs = append(defs, Definition{Name: name, Description: tool.Description(), Parameters: tool.Schema()})
	}
	return defs
}

// OpenAITools converts tool definitions to OpenAI tool schema.
func (r *Registry) OpenAITools() []openai.ChatCompletionToolUnionParam {
	var defs []openai.ChatCompletionToolUnionParam
	for _, def := range r.Definitions() {
		defs = append(defs, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        def.Name,
					Description: param.NewOpt(def.Description),
					Parameters:  def.Parameters,
				},
			},
		})
	}
	return defs
}

// NewFileTools registers the upload, list and download tools.
func NewFileTools(client remotefs.Client, meta Meta) (*Registry, error) {
	return NewRegistry(
		NewUploadTool(client, meta),
		NewListTool(client, meta),
		NewDownloadTool(client, meta),
	)
}

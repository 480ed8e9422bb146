// Package tools defines the tool contract, the tag-format parser, the
// registry, the executor, and the built-in tool implementations.
package tools

import (
	"context"

	"github.com/nextlevelbuilder/coda/internal/providers"
)

// ParamType is the semantic type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param describes one tool parameter.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Default     interface{} // nil = no default
	Required    bool
}

// Definition is the serializable description of a tool.
type Definition struct {
	Name        string
	Description string
	Params      []Param
	// Safe marks a pure read-only operation. Safe tools bypass the review
	// prompt; unsafe tools require approval in review mode.
	Safe bool
}

// Handler executes a tool call. Handlers must never panic outward: low-level
// failures are converted to error results at this boundary.
type Handler func(ctx context.Context, args map[string]interface{}) *Result

// Tool pairs a definition with its handler.
type Tool struct {
	Def     Definition
	Handler Handler
}

// ToProviderDef converts a definition into the OpenAI function-tool schema
// the LLM transport expects.
func ToProviderDef(def Definition) providers.ToolDefinition {
	properties := make(map[string]interface{}, len(def.Params))
	var required []string

	for _, p := range def.Params {
		prop := map[string]interface{}{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunctionSchema{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  schema,
		},
	}
}

// param returns the declared parameter by name, or nil.
func (d Definition) param(name string) *Param {
	for i := range d.Params {
		if d.Params[i].Name == name {
			return &d.Params[i]
		}
	}
	return nil
}

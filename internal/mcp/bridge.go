package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/coda/internal/tools"
)

// BridgeTool adapts a discovered remote tool into the shared registry. The
// adapter name is mcp_<server>_<remote-name>; collisions are the manager's
// problem.
func BridgeTool(client *Client, remote remoteTool) *tools.Tool {
	name := fmt.Sprintf("mcp_%s_%s", client.Name, remote.Name)

	description := remote.Description
	if description == "" {
		description = fmt.Sprintf("Remote tool %s from MCP server %s", remote.Name, client.Name)
	}

	return &tools.Tool{
		Def: tools.Definition{
			Name:        name,
			Description: description,
			Params:      schemaToParams(remote.InputSchema),
			// Remote tools may have side effects; never auto-approved.
			Safe: false,
		},
		Handler: func(ctx context.Context, args map[string]interface{}) *tools.Result {
			output, isError, err := client.CallTool(ctx, remote.Name, args)
			if err != nil {
				return tools.ErrorResult(tools.KindMcpTimeout, "%v", err)
			}
			if isError {
				return tools.ErrorResult(tools.KindExec, "%s", output)
			}
			return tools.NewResult(output).WithMeta("server", client.Name)
		},
	}
}

// jsonSchema is the subset of JSON Schema MCP servers describe inputs with.
type jsonSchema struct {
	Type       string                       `json:"type"`
	Properties map[string]jsonSchemaProperty `json:"properties"`
	Required   []string                     `json:"required"`
}

type jsonSchemaProperty struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Default     interface{} `json:"default"`
}

// schemaToParams converts a JSON-Schema input definition into the internal
// parameter list. Types map directly except integer, which becomes number.
func schemaToParams(raw json.RawMessage) []tools.Param {
	if len(raw) == 0 {
		return nil
	}

	var schema jsonSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	params := make([]tools.Param, 0, len(schema.Properties))
	for name, prop := range schema.Properties {
		params = append(params, tools.Param{
			Name:        name,
			Type:        mapSchemaType(prop.Type),
			Description: prop.Description,
			Default:     prop.Default,
			Required:    required[name],
		})
	}
	return params
}

func mapSchemaType(t string) tools.ParamType {
	switch t {
	case "integer", "number":
		return tools.TypeNumber
	case "boolean":
		return tools.TypeBoolean
	case "array":
		return tools.TypeArray
	case "object":
		return tools.TypeObject
	default:
		return tools.TypeString
	}
}

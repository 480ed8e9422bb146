package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/coda/internal/tools"
)

func TestSchemaToParams(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query"},
			"limit": {"type": "integer", "default": 10},
			"deep": {"type": "boolean"},
			"filters": {"type": "array"}
		},
		"required": ["query"]
	}`)

	params := schemaToParams(schema)
	require.Len(t, params, 4)

	byName := make(map[string]tools.Param)
	for _, p := range params {
		byName[p.Name] = p
	}

	assert.Equal(t, tools.TypeString, byName["query"].Type)
	assert.True(t, byName["query"].Required)
	assert.Equal(t, "Search query", byName["query"].Description)

	// integer maps to number.
	assert.Equal(t, tools.TypeNumber, byName["limit"].Type)
	assert.False(t, byName["limit"].Required)
	assert.Equal(t, float64(10), byName["limit"].Default)

	assert.Equal(t, tools.TypeBoolean, byName["deep"].Type)
	assert.Equal(t, tools.TypeArray, byName["filters"].Type)
}

func TestSchemaToParamsDegenerate(t *testing.T) {
	assert.Nil(t, schemaToParams(nil))
	assert.Nil(t, schemaToParams(json.RawMessage(`not json`)))
	assert.Empty(t, schemaToParams(json.RawMessage(`{"type":"object"}`)))
}

func TestBridgeToolNaming(t *testing.T) {
	client := &Client{Name: "search"}
	bridge := BridgeTool(client, remoteTool{Name: "web_lookup", Description: "Look things up"})

	assert.Equal(t, "mcp_search_web_lookup", bridge.Def.Name)
	assert.False(t, bridge.Def.Safe)
	assert.Equal(t, "Look things up", bridge.Def.Description)
}

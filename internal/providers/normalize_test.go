package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderActionBlock(t *testing.T) {
	block := renderActionBlock([]nativeToolCall{
		{
			Name: "read_file",
			Arguments: map[string]interface{}{
				"path": "src/main.go",
			},
		},
		{
			Name: "run_command",
			Arguments: map[string]interface{}{
				"command": "go",
				"args":    []interface{}{"build", "./..."},
			},
		},
	})

	assert.True(t, len(block) > 0)
	assert.Contains(t, block, "<action>\n")
	assert.Contains(t, block, `<invoke tool="read_file">`)
	assert.Contains(t, block, `<param name="path">src/main.go</param>`)
	assert.Contains(t, block, `<invoke tool="run_command">`)
	assert.Contains(t, block, `<param name="args">["build","./..."]</param>`)
	assert.True(t, block[len(block)-len("</action>"):] == "</action>")
}

func TestRenderActionBlockEmpty(t *testing.T) {
	assert.Empty(t, renderActionBlock(nil))
}

func TestRenderParamValue(t *testing.T) {
	assert.Equal(t, "plain", renderParamValue("plain"))
	assert.Equal(t, "true", renderParamValue(true))
	assert.Equal(t, "false", renderParamValue(false))
	assert.Equal(t, "42", renderParamValue(float64(42)))
	assert.Equal(t, "1.5", renderParamValue(float64(1.5)))
	assert.Equal(t, "", renderParamValue(nil))
	assert.Equal(t, `{"k":"v"}`, renderParamValue(map[string]interface{}{"k": "v"}))
}
